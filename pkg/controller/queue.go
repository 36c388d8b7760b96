package controller

import "sync"

// Queue is an unbounded FIFO of signals. Any goroutine may push; one
// goroutine pops.
type Queue struct {
	mu    sync.Mutex
	items []Signal
}

// Push appends s. It never blocks on the consumer.
func (q *Queue) Push(s Signal) {
	if s == nil {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, s)
	q.mu.Unlock()
}

// TryPop removes the oldest signal, if any.
func (q *Queue) TryPop() (Signal, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	s := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return s, true
}

// Len reports the number of pending signals.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
