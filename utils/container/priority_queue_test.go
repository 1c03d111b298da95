package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/scenario-player/utils/container"
)

func TestPriorityQueueOrder(t *testing.T) {
	q := container.NewPriorityQueue[string]()
	q.HeapPush("c", 3)
	q.HeapPush("a", 1)
	q.HeapPush("b", 2)
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, "a", q.First())
	assert.Equal(t, 1.0, q.FirstPriority())

	got := make([]string, 0)
	for q.Len() > 0 {
		v, _ := q.HeapPop()
		got = append(got, v)
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestPriorityQueueStable(t *testing.T) {
	q := container.NewPriorityQueue[int]()
	for i := 0; i < 10; i++ {
		q.Push(i, float64(i%2))
	}
	q.Heapify()
	got := make([]int, 0)
	for q.Len() > 0 {
		v, p := q.HeapPop()
		assert.Equal(t, float64(v%2), p)
		got = append(got, v)
	}
	assert.Equal(t, []int{0, 2, 4, 6, 8, 1, 3, 5, 7, 9}, got)
}

func TestPriorityQueueClear(t *testing.T) {
	q := container.NewPriorityQueue[int]()
	q.HeapPush(1, 1)
	q.HeapPush(2, 1)
	q.Clear()
	assert.Equal(t, 0, q.Len())
	assert.Panics(t, func() { q.First() })
	q.HeapPush(3, 0)
	assert.Equal(t, 3, q.First())
}
