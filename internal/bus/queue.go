package bus

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrQueueFull   = errors.New("event queue full")
	ErrQueueClosed = errors.New("event queue closed")
)

// Kind tags an event flowing from the ingestion client to the presentation
// layer.
type Kind uint8

const (
	// KindChat is one chat message.
	KindChat Kind = iota
	// KindLog is one debug log line.
	KindLog
	// KindStatus is a connection state change.
	KindStatus
)

// Event is the unit passed through the in-memory bus.
type Event struct {
	Kind     Kind
	Username string
	Content  string
	Line     string
	At       time.Time
}

// Queue is a bounded, non-blocking event queue between the ingestion
// callbacks and the UI. Publishing never blocks the dispatch path; overflow
// drops the event.
type Queue struct {
	ch chan Event

	// mu gates sends against close: publishers hold the read side, Close
	// holds the write side, so no send can land on a closed channel.
	mu     sync.RWMutex
	closed bool
}

// NewQueue allocates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan Event, capacity)}
}

// TryPublish enqueues an event without blocking.
func (q *Queue) TryPublish(e Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the queue from accepting new events. Idempotent; safe while
// publishers are active.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}

// Run consumes events until the context is done or the queue is closed.
func (q *Queue) Run(ctx context.Context, handler func(Event)) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-q.ch:
			if !ok {
				return
			}
			handler(e)
		}
	}
}
