// Package hotkey resolves held key combinations against the configured
// bindings and drives the overlay's displayed image.
package hotkey

import (
	"log/slog"
	"os"
	"sync"

	"keybrame/internal/event"
	"keybrame/internal/input"
)

// Engine serializes every key edge from all listeners through one lock so
// that the read and update of the runtime state for an edge is atomic.
// Nothing in the edge path blocks: events go to a non-blocking Emitter.
type Engine struct {
	mu      sync.Mutex
	snap    *Snapshot
	state   State
	current string // last image sent to the overlay
	stopped bool

	emit      event.Emitter
	terminate func()
}

// Option configures an Engine
type Option func(*Engine)

// WithTerminate replaces the action taken when the shutdown combo is
// pressed. The default exits the process with status 0.
func WithTerminate(fn func()) Option {
	return func(e *Engine) { e.terminate = fn }
}

// NewEngine creates an engine over snap. A nil emitter discards events.
func NewEngine(snap *Snapshot, emit event.Emitter, opts ...Option) *Engine {
	if snap == nil {
		snap = NewSnapshot(nil, "", nil)
	}
	if emit == nil {
		emit = event.Discard
	}
	e := &Engine{
		snap:      snap,
		state:     NewState(),
		current:   snap.BaseImage(),
		emit:      emit,
		terminate: func() { os.Exit(0) },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Press handles a key going down
func (e *Engine) Press(key input.Key) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}

	next, res := ApplyPress(e.state, e.snap, key)
	e.state = next
	e.publish(res.Events)

	if res.Fired != nil {
		slog.Debug("[hotkey] binding fired", "id", res.Fired.ID, "keys", res.Fired.Combo(), "type", res.Fired.Kind)
	}

	if !res.Shutdown {
		e.mu.Unlock()
		return
	}

	// Terminal transition: nothing is processed after this point.
	e.stopped = true
	combo := e.snap.shutdown.String()
	terminate := e.terminate
	e.mu.Unlock()

	slog.Info("[hotkey] shutdown combo pressed, exiting", "combo", combo)
	terminate()
}

// Release handles a key going up
func (e *Engine) Release(key input.Key) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return
	}

	next, events := ApplyRelease(e.state, e.snap, key)
	e.state = next
	e.publish(events)
}

// ReleaseUnclassified handles the release of a key the normalizer dropped
func (e *Engine) ReleaseUnclassified() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return
	}

	next, events := ApplyReleaseUnclassified(e.state)
	e.state = next
	e.publish(events)
}

// HandleRaw normalizes a raw listener event and applies it
func (e *Engine) HandleRaw(ev input.RawEvent) {
	input.Dispatch(ev, e)
}

// Reload swaps in a new snapshot and resets all runtime state, as if every
// key had been released, then shows the new default image.
func (e *Engine) Reload(snap *Snapshot) {
	if snap == nil {
		snap = NewSnapshot(nil, "", nil)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.snap = snap
	e.state = NewState()
	if e.stopped {
		return
	}
	e.publish([]event.Event{event.NewImageChange(snap.BaseImage())})
	slog.Info("[hotkey] bindings reloaded", "bindings", len(snap.bindings), "default", snap.BaseImage())
}

// Stop makes the engine ignore all further edges. When Stop returns no edge
// is being processed. Safe to call more than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopped = true
}

// Stopped reports whether the engine has stopped
func (e *Engine) Stopped() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopped
}

// Snapshot returns the active snapshot
func (e *Engine) Snapshot() *Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap
}

// State returns a copy of the runtime state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// CurrentImage returns the image the overlay was last told to settle on
func (e *Engine) CurrentImage() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// publish must be called with e.mu held so events keep edge order.
func (e *Engine) publish(events []event.Event) {
	for _, ev := range events {
		switch p := ev.Payload.(type) {
		case event.ImagePayload:
			e.current = p.Image
		case event.TransitionPayload:
			e.current = p.FinalImage
		}
		e.emit.Emit(ev)
	}
}
