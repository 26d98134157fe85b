// Package eventstest provides a Publisher that records events for assertions.
package eventstest

import (
	"context"
	"sync"

	"fishtopia_backend/internal/events"
)

// Recorder is an events.Publisher that keeps every published event.
type Recorder struct {
	mu     sync.Mutex
	events []events.ChangeEvent
}

func (r *Recorder) Publish(_ context.Context, ev events.ChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded events in publish order.
func (r *Recorder) Events() []events.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.ChangeEvent(nil), r.events...)
}

// Last returns the most recent event, or false when nothing was published.
func (r *Recorder) Last() (events.ChangeEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return events.ChangeEvent{}, false
	}
	return r.events[len(r.events)-1], true
}
