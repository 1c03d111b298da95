package container

import "container/heap"

// item 优先队列中单个元素
type item[T any] struct {
	Value    T       // 元素的值
	Priority float64 // 优先级（越小越优先）
	seq      uint64  // 入队序号，优先级相同时先入先出
	index    int     // 项在堆中的索引，由heap.Interface方法维护
}

// priorityQueue 实现heap.Interface的最小堆
type priorityQueue[T any] []*item[T]

func (pq priorityQueue[T]) Len() int { return len(pq) }

// Less 优先级小者在前，优先级相同时入队早者在前
func (pq priorityQueue[T]) Less(i, j int) bool {
	if pq[i].Priority != pq[j].Priority {
		return pq[i].Priority < pq[j].Priority
	}
	return pq[i].seq < pq[j].seq
}

func (pq priorityQueue[T]) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue[T]) Push(x any) {
	n := len(*pq)
	item := x.(*item[T])
	item.index = n
	*pq = append(*pq, item)
}

func (pq *priorityQueue[T]) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil  // 避免内存泄漏
	item.index = -1 // 为了安全起见
	*pq = old[0 : n-1]
	return item
}

// PriorityQueue 稳定的最小优先队列
// 功能：按优先级数值从小到大弹出，优先级相同的元素按入队顺序弹出
// 说明：用于按激活时间排列的待触发事件
type PriorityQueue[T any] struct {
	queue priorityQueue[T]
	seq   uint64
}

// NewPriorityQueue 创建优先队列
func NewPriorityQueue[T any]() *PriorityQueue[T] {
	return &PriorityQueue[T]{queue: make(priorityQueue[T], 0)}
}

// Len 获取当前队列长度
func (q *PriorityQueue[T]) Len() int {
	return len(q.queue)
}

// First 查看优先级数值最小的元素，不移除
// 说明：队列为空时panic
func (q *PriorityQueue[T]) First() T {
	return q.queue[0].Value
}

// FirstPriority 查看队首元素的优先级
func (q *PriorityQueue[T]) FirstPriority() float64 {
	return q.queue[0].Priority
}

// Push 加入元素（简单添加）
// 说明：添加后需要调用Heapify()来重新构建堆结构
func (q *PriorityQueue[T]) Push(value T, priority float64) {
	q.queue = append(q.queue, &item[T]{
		Value:    value,
		Priority: priority,
		seq:      q.nextSeq(),
		index:    len(q.queue),
	})
}

// Heapify 重新构建堆
// 说明：在批量Push后调用
func (q *PriorityQueue[T]) Heapify() {
	heap.Init(&q.queue)
}

// HeapPush 加入元素并维护堆结构
func (q *PriorityQueue[T]) HeapPush(value T, priority float64) {
	heap.Push(&q.queue, &item[T]{
		Value:    value,
		Priority: priority,
		seq:      q.nextSeq(),
	})
}

// HeapPop 弹出优先级数值最小的元素
// 返回：value-元素值，priority-元素优先级
func (q *PriorityQueue[T]) HeapPop() (value T, priority float64) {
	item := heap.Pop(&q.queue).(*item[T])
	return item.Value, item.Priority
}

// Clear 清空队列，序号重新计数
func (q *PriorityQueue[T]) Clear() {
	clear(q.queue)
	q.queue = q.queue[:0]
	q.seq = 0
}

func (q *PriorityQueue[T]) nextSeq() uint64 {
	q.seq++
	return q.seq
}
