package events

import (
	"errors"
	"time"
)

// QueueError reports a failed queue operation to the error callback.
type QueueError struct {
	Operation string
	Err       error
	Timestamp time.Time
}

func (e QueueError) Error() string {
	return e.Operation + ": " + e.Err.Error()
}

// Queue is the FIFO hand-off between the interpreter worker (producer) and
// the UI polling loop (consumer). Push never blocks the worker and Drain
// never blocks the UI.
type Queue struct {
	ch            chan Event
	errorCallback func(QueueError)
}

const defaultCapacity = 1024

func NewQueue() *Queue {
	return &Queue{
		ch: make(chan Event, defaultCapacity),
	}
}

func (q *Queue) SetErrorCallback(callback func(QueueError)) {
	q.errorCallback = callback
}

func (q *Queue) reportError(operation string, err error) {
	if q.errorCallback != nil {
		q.errorCallback(QueueError{
			Operation: operation,
			Err:       err,
			Timestamp: time.Now(),
		})
	}
}

// Push enqueues an event without blocking. A full queue is an error: events
// must never be silently dropped or reordered.
func (q *Queue) Push(event Event) error {
	select {
	case q.ch <- event:
		return nil
	default:
		err := errors.New("event queue is full")
		q.reportError("Push", err)
		return err
	}
}

// Drain returns and removes every currently queued event, in the order the
// producer pushed them. Safe to call on an empty queue.
func (q *Queue) Drain() []Event {
	var drained []Event
	for {
		select {
		case event := <-q.ch:
			drained = append(drained, event)
		default:
			return drained
		}
	}
}

// Len reports how many events are currently queued.
func (q *Queue) Len() int {
	return len(q.ch)
}
