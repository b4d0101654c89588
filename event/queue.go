package event

import (
	"context"
	"errors"
	"sync"
)

// ErrQueueClosed is returned by Next once the queue is closed and drained
var ErrQueueClosed = errors.New("event queue closed")

// Queue is an unbounded FIFO between one producer and one consumer
// Thread-Safety:
//   - Push/Close: producer side
//   - Next/TryNext: single consumer
//   - Len: any goroutine
//
// Push never blocks and never drops; events pushed after Close are rejected
type Queue struct {
	mu     sync.Mutex
	items  []Event
	head   int
	closed bool
	ready  chan struct{} // cap 1, signalled on Push and Close
}

func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Push appends ev; returns false if the queue is closed
func (q *Queue) Push(ev Event) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, ev)
	q.mu.Unlock()

	q.signal()
	return true
}

// Close marks the end of the stream; pending events remain readable
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *Queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Next blocks until an event is available, the queue is closed and drained
// (ErrQueueClosed), or ctx is done
func (q *Queue) Next(ctx context.Context) (Event, error) {
	for {
		ev, ok, closed := q.pop()
		if ok {
			return ev, nil
		}
		if closed {
			return Event{}, ErrQueueClosed
		}

		select {
		case <-q.ready:
		case <-ctx.Done():
			return Event{}, ctx.Err()
		}
	}
}

// TryNext returns the oldest event without blocking
func (q *Queue) TryNext() (Event, bool) {
	ev, ok, _ := q.pop()
	return ev, ok
}

// Len returns the number of pending events
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Closed reports whether Close has been called
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *Queue) pop() (Event, bool, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head == len(q.items) {
		return Event{}, false, q.closed
	}
	ev := q.items[q.head]
	q.items[q.head] = Event{}
	q.head++

	// Reclaim the consumed prefix once it dominates the backing array
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 64 && q.head*2 > len(q.items) {
		n := copy(q.items, q.items[q.head:])
		q.items = q.items[:n]
		q.head = 0
	}
	return ev, true, q.closed
}
