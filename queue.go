package sponge

// Queue is a first-in first-out queue with a single consumer.
// The zero value is an empty queue ready to use.
type Queue[T any] struct {
	items []T
	head  int
}

// Push appends v to the back of the queue.
func (q *Queue[T]) Push(v T) {
	q.items = append(q.items, v)
}

// Pop removes and returns the value at the front of the queue.
func (q *Queue[T]) Pop() (v T, ok bool) {
	if q.head == len(q.items) {
		return v, false
	}
	v = q.items[q.head]
	var zero T
	q.items[q.head] = zero
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return v, true
}

// Front returns the value at the front of the queue without removing it.
func (q *Queue[T]) Front() (v T, ok bool) {
	if q.head == len(q.items) {
		return v, false
	}
	return q.items[q.head], true
}

// Len returns the number of queued values.
func (q *Queue[T]) Len() int { return len(q.items) - q.head }

// Empty returns true if there are no queued values.
func (q *Queue[T]) Empty() bool { return q.Len() == 0 }

// Clear discards all queued values.
func (q *Queue[T]) Clear() {
	clear(q.items)
	q.items = q.items[:0]
	q.head = 0
}

// Drain removes and returns all queued values in order.
func (q *Queue[T]) Drain() []T {
	if q.Empty() {
		return nil
	}
	out := make([]T, q.Len())
	copy(out, q.items[q.head:])
	q.Clear()
	return out
}
