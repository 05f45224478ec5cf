package parallel

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForEachIndex(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 64} {
		results := make([]int, 10)
		err := ForEachIndex(context.Background(), len(results), workers, func(i int) {
			results[i] = i * i
		})
		require.NoError(t, err)
		for i, v := range results {
			assert.Equal(t, i*i, v, "workers=%d index=%d", workers, i)
		}
	}
}

func TestForEachIndexSequentialOrder(t *testing.T) {
	var order []int
	err := ForEachIndex(context.Background(), 5, 1, func(i int) {
		order = append(order, i)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestForEachIndexBoundedWorkers(t *testing.T) {
	var running, peak int32
	var mu sync.Mutex
	err := ForEachIndex(context.Background(), 20, 2, func(i int) {
		cur := atomic.AddInt32(&running, 1)
		mu.Lock()
		if cur > peak {
			peak = cur
		}
		mu.Unlock()
		for j := 0; j < 1000; j++ {
			_ = j * i
		}
		atomic.AddInt32(&running, -1)
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak, int32(2))
}

func TestForEachIndexCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int32
	err := ForEachIndex(ctx, 10, 1, func(i int) {
		atomic.AddInt32(&calls, 1)
		if i == 2 {
			cancel()
		}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(3), calls)

	ctx, cancel = context.WithCancel(context.Background())
	cancel()
	calls = 0
	err = ForEachIndex(ctx, 10, 4, func(int) { atomic.AddInt32(&calls, 1) })
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, calls, int32(10))
}

func TestParallelize(t *testing.T) {
	var sum int64
	Parallelize(1000, func(start, end int) {
		local := int64(0)
		for i := start; i < end; i++ {
			local += int64(i)
		}
		atomic.AddInt64(&sum, local)
	})
	assert.Equal(t, int64(999*1000/2), sum)

	called := false
	ParallelizeWithThreshold(5, 10, func(start, end int) {
		called = true
		assert.Equal(t, 0, start)
		assert.Equal(t, 5, end)
	})
	assert.True(t, called)
}
