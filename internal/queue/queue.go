// Package queue holds the small container types shared by the journal and
// the order relay.
package queue

import "sync"

// Buffer is a thread-safe FIFO drained in whole batches. A batch that could
// not be consumed can be put back ahead of anything pushed since.
type Buffer[T any] struct {
	mu    sync.Mutex
	items []T
}

func NewBuffer[T any]() *Buffer[T] {
	return &Buffer[T]{}
}

// Push appends items in order.
func (b *Buffer[T]) Push(items ...T) {
	b.mu.Lock()
	b.items = append(b.items, items...)
	b.mu.Unlock()
}

func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Drain takes every buffered item, nil when empty.
func (b *Buffer[T]) Drain() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) == 0 {
		return nil
	}
	batch := b.items
	b.items = make([]T, 0, len(batch))
	return batch
}

// Requeue returns batch to the front of the buffer.
func (b *Buffer[T]) Requeue(batch []T) {
	if len(batch) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(append(make([]T, 0, len(batch)+len(b.items)), batch...), b.items...)
}
