package internal

import (
	"sync"
	"time"
)

// Event is a trigger delivered to the controller. Producers (button poller,
// voice activation) enqueue; only the controller dequeues.
type Event interface {
	isEvent()
}

// ButtonPressed is a short press, used as the object-detection trigger.
type ButtonPressed struct {
	ID int
}

// ButtonHeld is a push-to-talk hold. Duration is how long the button was down.
type ButtonHeld struct {
	ID       int
	Duration time.Duration
}

// VoiceCommand carries text already produced by the voice trigger source.
type VoiceCommand struct {
	Text string
}

func (ButtonPressed) isEvent() {}
func (ButtonHeld) isEvent()    {}
func (VoiceCommand) isEvent()  {}

// EventQueue is an unbounded multi-producer, single-consumer FIFO.
// Enqueue never blocks. Dequeue blocks until an event arrives or the queue
// is closed; after Close the remaining events drain before ok=false.
type EventQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	events []Event
	closed bool
}

func NewEventQueue() *EventQueue {
	q := &EventQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends an event and reports whether it was accepted. Events
// enqueued after Close are discarded.
func (q *EventQueue) Enqueue(ev Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, ev)
	q.cond.Signal()
	return true
}

// Dequeue returns the next event in arrival order. ok is false only once the
// queue is closed and fully drained.
func (q *EventQueue) Dequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.events) == 0 && !q.closed {
		q.cond.Wait()
	}

	if len(q.events) == 0 {
		return nil, false
	}

	ev := q.events[0]
	q.events = q.events[1:]
	return ev, true
}

// Close stops accepting new events and wakes the consumer.
func (q *EventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
