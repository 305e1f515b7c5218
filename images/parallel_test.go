package images

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelCoversEveryIndex(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 8} {
		const n = 1000
		var hits [n]int32
		Parallel(n, workers, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("workers=%d: index %d visited %d times", workers, i, h)
			}
		}
	}
}

func TestParallelSmallWorkloadRunsSerially(t *testing.T) {
	var calls int
	Parallel(3, 8, func(start, end int) {
		calls++
		assert.Equal(t, 0, start)
		assert.Equal(t, 3, end)
	})
	assert.Equal(t, 1, calls)
}
