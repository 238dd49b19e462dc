package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCommander is the narrow slice of *redis.Client this package
// depends on, following brandon-relentnet-myscrollr's GetCache/SetCache
// pattern over *redis.Client but named so tests can substitute a fake
// without a live Redis instance.
type redisCommander interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Keys(ctx context.Context, pattern string) *redis.StringSliceCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// redisRecord is the wire envelope stored in Redis: payload plus the
// metadata needed to reconstruct an Entry on read (insertion time, TTL,
// source tag). Values are stored as JSON bytes (spec §4.2 Serialization).
type redisRecord struct {
	Payload    []byte        `json:"payload"`
	InsertedAt time.Time     `json:"inserted_at"`
	TTL        time.Duration `json:"ttl"`
	SourceTag  string        `json:"source_tag"`
}

// L1Prime is the shared KV cache backend (Redis). Payloads over 1MiB are
// only ever written here, never to L1 (spec §4.2 Serialization).
type L1Prime struct {
	client redisCommander
}

// NewL1Prime wraps a *redis.Client as the L1' backend.
func NewL1Prime(client *redis.Client) *L1Prime {
	return &L1Prime{client: client}
}

func newL1PrimeFromCommander(c redisCommander) *L1Prime {
	return &L1Prime{client: c}
}

// Get returns the entry for key if present and unexpired.
func (p *L1Prime) Get(ctx context.Context, key string) (Entry, bool, error) {
	raw, err := p.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}

	var rec redisRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Entry{}, false, err
	}
	entry := Entry{Payload: rec.Payload, InsertedAt: rec.InsertedAt, TTL: rec.TTL, SourceTag: rec.SourceTag}
	if entry.Expired(time.Now()) {
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Set writes entry under key with a Redis-native expiry matching the
// entry's TTL (0 means no expiry, used for data meant to live as long
// as Redis keeps it, e.g. negative-cache markers rely on an explicit TTL
// instead).
func (p *L1Prime) Set(ctx context.Context, key string, entry Entry) error {
	rec := redisRecord{Payload: entry.Payload, InsertedAt: entry.InsertedAt, TTL: entry.TTL, SourceTag: entry.SourceTag}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return p.client.Set(ctx, key, raw, entry.TTL).Err()
}

// Delete removes key.
func (p *L1Prime) Delete(ctx context.Context, key string) error {
	return p.client.Del(ctx, key).Err()
}

// Scan returns keys matching a prefix glob. Redis KEYS is used here
// (rather than a cursor-based SCAN) because IR-mapping-driven prefixes
// are narrow and this path is not in the request hot loop.
func (p *L1Prime) Scan(ctx context.Context, prefix string) ([]string, error) {
	return p.client.Keys(ctx, prefix+"*").Result()
}

// Health pings Redis; failures mark the backend unavailable so the Tier
// can degrade to L1-only (spec §4.2 Tiering policy).
func (p *L1Prime) Health(ctx context.Context) Health {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return Health{Available: false, Detail: err.Error()}
	}
	return Health{Available: true}
}
