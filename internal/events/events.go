// Package events is the optional monitoring hook: a stream of operator
// state-transition records an external observability layer can subscribe to.
// The engine runs identically with a nil sink.
package events

import (
	"sync"
	"time"
)

// Transition is one operator state change.
type Transition struct {
	OperatorID string    `json:"operator_id"`
	Group      int       `json:"group"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	At         time.Time `json:"at"`
}

// Sink receives transitions. Implementations must not block the caller; the
// emitting side is the scheduler's control goroutine.
type Sink interface {
	Emit(t Transition)
}

// Emit forwards to sink when it is non-nil.
func Emit(sink Sink, t Transition) {
	if sink != nil {
		sink.Emit(t)
	}
}

// Stream is a fan-out Sink. Subscribers get buffered channels; a subscriber
// that stops draining loses events rather than stalling the engine.
type Stream struct {
	mu     sync.Mutex
	subs   []chan Transition
	closed bool
}

// NewStream returns an empty Stream.
func NewStream() *Stream {
	return &Stream{}
}

// Subscribe returns a channel of future transitions. The channel is closed
// by Close.
func (s *Stream) Subscribe() <-chan Transition {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Transition, 64)
	if s.closed {
		close(ch)
		return ch
	}
	s.subs = append(s.subs, ch)
	return ch
}

// Emit implements Sink.
func (s *Stream) Emit(t Transition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	for _, ch := range s.subs {
		select {
		case ch <- t:
		default: // slow subscriber, drop
		}
	}
}

// Close ends the stream and closes all subscriber channels.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
}
