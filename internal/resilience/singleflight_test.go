package resilience

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupCollapsesConcurrentCallers(t *testing.T) {
	d := NewDedup()
	var calls atomic.Int32
	var wg sync.WaitGroup

	start := make(chan struct{})
	results := make([]any, 10)
	errsOut := make([]error, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start
			v, _, err := d.Do("fx:rate:USD:INR:v1", func() (any, error) {
				calls.Add(1)
				return "resolved", nil
			})
			results[idx] = v
			errsOut[idx] = err
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := range results {
		require.NoError(t, errsOut[i])
		assert.Equal(t, "resolved", results[i])
	}
}

func TestDedupDistinctKeysRunIndependently(t *testing.T) {
	d := NewDedup()
	var calls atomic.Int32

	_, _, err := d.Do("key-a", func() (any, error) { calls.Add(1); return "a", nil })
	require.NoError(t, err)
	_, _, err = d.Do("key-b", func() (any, error) { calls.Add(1); return "b", nil })
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
}

func TestDedupSequentialCallsAfterCompletionRunAgain(t *testing.T) {
	d := NewDedup()
	var calls atomic.Int32

	for i := 0; i < 3; i++ {
		_, _, err := d.Do("k", func() (any, error) { calls.Add(1); return "v", nil })
		require.NoError(t, err)
	}

	assert.Equal(t, int32(3), calls.Load())
}
