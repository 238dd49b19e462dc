package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestL1SetGet(t *testing.T) {
	l1 := NewL1(64)
	l1.Set("k1", Entry{Payload: []byte("v1"), InsertedAt: time.Now(), TTL: time.Minute})

	entry, ok := l1.Get("k1")
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), entry.Payload)
}

func TestL1ExpiredEntryIsMiss(t *testing.T) {
	l1 := NewL1(64)
	l1.Set("k1", Entry{Payload: []byte("v1"), InsertedAt: time.Now().Add(-time.Hour), TTL: time.Minute})

	_, ok := l1.Get("k1")
	assert.False(t, ok)
}

func TestL1NonExpiringEntry(t *testing.T) {
	l1 := NewL1(64)
	l1.Set("permanent", Entry{Payload: []byte("v1"), InsertedAt: time.Now().Add(-24 * time.Hour), TTL: 0})

	_, ok := l1.Get("permanent")
	assert.True(t, ok)
}

func TestL1EvictsLeastRecentlyUsed(t *testing.T) {
	// Force everything into a single shard's worth of capacity by using a
	// tiny total capacity; per-shard capacity floors at 1.
	l1 := NewL1(l1ShardCount)

	// Find two keys that land in the same shard by hashing brute-force.
	var keyA, keyB string
	for i := 0; ; i++ {
		k := "key-" + string(rune('a'+i))
		if l1.shardFor(k) == l1.shardFor("key-a") && k != "key-a" {
			keyA, keyB = "key-a", k
			break
		}
		if i > 25 {
			t.Skip("could not find colliding keys deterministically")
		}
	}

	l1.Set(keyA, Entry{Payload: []byte("a"), InsertedAt: time.Now(), TTL: time.Minute})
	l1.Set(keyB, Entry{Payload: []byte("b"), InsertedAt: time.Now(), TTL: time.Minute})

	// keyA should have been evicted since shard capacity is 1 and keyB
	// was inserted more recently.
	_, okA := l1.Get(keyA)
	_, okB := l1.Get(keyB)
	assert.False(t, okA)
	assert.True(t, okB)
}

func TestL1Scan(t *testing.T) {
	l1 := NewL1(64)
	l1.Set("fx:rate:USD:INR:v1", Entry{Payload: []byte("1"), TTL: time.Minute, InsertedAt: time.Now()})
	l1.Set("fx:rate:USD:EUR:v1", Entry{Payload: []byte("1"), TTL: time.Minute, InsertedAt: time.Now()})
	l1.Set("bars:range:AAPL:v1", Entry{Payload: []byte("1"), TTL: time.Minute, InsertedAt: time.Now()})

	matches := l1.Scan("fx:rate:USD:")
	assert.Len(t, matches, 2)
}

func TestL1Delete(t *testing.T) {
	l1 := NewL1(64)
	l1.Set("k1", Entry{Payload: []byte("v1"), TTL: time.Minute, InsertedAt: time.Now()})
	l1.Delete("k1")
	_, ok := l1.Get("k1")
	assert.False(t, ok)
}
