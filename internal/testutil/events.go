package testutil

import (
	"fmt"
	"sync"

	"keybrame/internal/event"
)

// EventRecorder is an event.Emitter that keeps everything it receives.
type EventRecorder struct {
	mu     sync.Mutex
	events []event.Event
}

// Emit records ev.
func (r *EventRecorder) Emit(ev event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *EventRecorder) Events() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.Event(nil), r.events...)
}

// Reset forgets recorded events.
func (r *EventRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Lines renders the recorded events compactly, e.g. "key_pressed a" or
// "transition in.gif 500 final.png", for easy comparison in tests.
func (r *EventRecorder) Lines() []string {
	return FormatEvents(r.Events())
}

// FormatEvents renders events the same way as EventRecorder.Lines.
func FormatEvents(events []event.Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		switch p := ev.Payload.(type) {
		case event.KeyPayload:
			out = append(out, fmt.Sprintf("%s %s", ev.Kind, p.Key))
		case event.ImagePayload:
			out = append(out, fmt.Sprintf("%s %s", ev.Kind, p.Image))
		case event.TransitionPayload:
			out = append(out, fmt.Sprintf("%s %s %d %s", ev.Kind, p.TransitionImage, p.Duration, p.FinalImage))
		default:
			out = append(out, fmt.Sprintf("%s %v", ev.Kind, ev.Payload))
		}
	}
	return out
}
