package queue

import (
	"container/heap"
	"sync"
)

// PriorityQueue is a thread-safe min-priority queue keyed by float64. Items
// with equal priority come out in insertion order.
type PriorityQueue[T any] struct {
	mu  sync.Mutex
	h   entryHeap[T]
	seq uint64
}

type entry[T any] struct {
	value    T
	priority float64
	seq      uint64
}

type entryHeap[T any] []entry[T]

func (h entryHeap[T]) Len() int { return len(h) }

func (h entryHeap[T]) Less(i, j int) bool {
	if h[i].priority == h[j].priority {
		return h[i].seq < h[j].seq
	}
	return h[i].priority < h[j].priority
}

func (h entryHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap[T]) Push(x any) { *h = append(*h, x.(entry[T])) }

func (h *entryHeap[T]) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	var zero entry[T]
	old[n-1] = zero
	*h = old[:n-1]
	return e
}

// NewPriority creates an empty priority queue.
func NewPriority[T any]() *PriorityQueue[T] {
	return &PriorityQueue[T]{}
}

// Push inserts value with the given priority.
func (q *PriorityQueue[T]) Push(value T, priority float64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	heap.Push(&q.h, entry[T]{value: value, priority: priority, seq: q.seq})
}

// Pop removes and returns the lowest-priority item.
func (q *PriorityQueue[T]) Pop() (T, float64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.h) == 0 {
		var zero T
		return zero, 0, false
	}
	e := heap.Pop(&q.h).(entry[T])
	return e.value, e.priority, true
}

// PopDue removes and returns, in order, every item with priority <= limit.
func (q *PriorityQueue[T]) PopDue(limit float64) []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []T
	for len(q.h) > 0 && q.h[0].priority <= limit {
		e := heap.Pop(&q.h).(entry[T])
		out = append(out, e.value)
	}
	return out
}

// Len returns the number of queued items.
func (q *PriorityQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.h)
}

// Clear drops every queued item.
func (q *PriorityQueue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.h = nil
}
