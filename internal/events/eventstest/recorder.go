// Package eventstest provides an in-memory event sink for tests.
package eventstest

import (
	"context"
	"sync"

	"github.com/illegalcall/fitplan/internal/events"
)

// Recorder keeps published events in memory for inspection.
type Recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *Recorder) Publish(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]events.Event(nil), r.events...)
}
