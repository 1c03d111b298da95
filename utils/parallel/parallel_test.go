package parallel_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/scenario-player/utils/parallel"
)

func TestGoFor(t *testing.T) {
	for _, n := range []int{0, 3, 1000} {
		items := make([]int, n)
		for i := range items {
			items[i] = i
		}
		var sum atomic.Int64
		parallel.GoFor(items, func(i int) { sum.Add(int64(i)) })
		assert.Equal(t, int64(n*(n-1)/2), sum.Load())
	}
}

func TestGoMapKeepsOrder(t *testing.T) {
	items := make([]int, 500)
	for i := range items {
		items[i] = i
	}
	out := parallel.GoMap(items, func(i int) int { return i * i })
	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
}
