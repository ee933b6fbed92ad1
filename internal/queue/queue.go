// Package queue provides the bounded FIFO queues connecting the webhook
// intake, the webhook adapter and the logic worker.
package queue

import "context"

// Queue is a bounded FIFO with one logical producer stage and one consumer
// stage. Enqueue blocks while the queue is full so that backpressure
// propagates upstream; TryEnqueue never blocks and lets the HTTP intake turn
// a full queue into 503. A closed queue keeps serving buffered elements
// until drained.
type Queue[T any] struct {
	ch chan T
}

// New returns a queue with the given fixed capacity (at least 1).
func New[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[T]{ch: make(chan T, capacity)}
}

// TryEnqueue appends v when there is room and reports whether it did.
func (q *Queue[T]) TryEnqueue(v T) bool {
	select {
	case q.ch <- v:
		return true
	default:
		return false
	}
}

// Enqueue appends v, blocking while the queue is full. It reports false when
// ctx ends first.
func (q *Queue[T]) Enqueue(ctx context.Context, v T) bool {
	select {
	case q.ch <- v:
		return true
	case <-ctx.Done():
		return false
	}
}

// Dequeue removes the oldest element, blocking while the queue is empty. The
// second result is false when the queue was closed and drained, or when ctx
// ended first.
func (q *Queue[T]) Dequeue(ctx context.Context) (T, bool) {
	var zero T
	select {
	case v, ok := <-q.ch:
		if !ok {
			return zero, false
		}
		return v, true
	case <-ctx.Done():
		return zero, false
	}
}

// Close ends the stream. Consumers drain buffered elements and then observe
// closure. Only the producing stage may call Close, exactly once, after all
// its enqueues finished.
func (q *Queue[T]) Close() {
	close(q.ch)
}

// Len reports the number of buffered elements.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// Cap reports the fixed capacity.
func (q *Queue[T]) Cap() int {
	return cap(q.ch)
}
