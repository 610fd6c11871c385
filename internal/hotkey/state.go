package hotkey

import (
	"keybrame/internal/event"
	"keybrame/internal/input"
)

// State is the runtime key state of the display machine.
//
// Physical mirrors the keys currently held. Pressed is used for matching and
// is always a superset of Physical: keys that belong only to Toggle bindings
// stay latched in it after release, so an active toggle survives partial
// releases. Active is the key set of the active toggle, nil when idle.
type State struct {
	Physical KeySet
	Pressed  KeySet
	Active   KeySet
}

// NewState returns the idle state with no keys held
func NewState() State {
	return State{
		Physical: make(KeySet),
		Pressed:  make(KeySet),
	}
}

// Clone returns a deep copy
func (st State) Clone() State {
	c := State{
		Physical: st.Physical.Clone(),
		Pressed:  st.Pressed.Clone(),
	}
	if st.Active != nil {
		c.Active = st.Active.Clone()
	}
	return c
}

// Idle reports whether no toggle is active
func (st State) Idle() bool {
	return st.Active == nil
}

// PressResult carries the outcome of one press edge.
type PressResult struct {
	Events []event.Event

	// Fired is the binding that fired, if any.
	Fired *Binding

	// Shutdown is set when Pressed covers the shutdown combo. No binding is
	// resolved in that case.
	Shutdown bool
}

// ApplyPress computes the state and events that follow a press of key. st is
// not modified. A key that is already physically held is ignored.
func ApplyPress(st State, snap *Snapshot, key input.Key) (State, PressResult) {
	if st.Physical.Has(key) {
		return st, PressResult{}
	}

	next := st.Clone()
	next.Physical.Add(key)
	next.Pressed.Add(key)

	res := PressResult{Events: []event.Event{event.NewKeyPressed(string(key))}}

	if len(snap.shutdown) > 0 && snap.shutdown.SubsetOf(next.Pressed) {
		res.Shutdown = true
		return next, res
	}

	b := Resolve(next, snap, key)
	if b == nil {
		return next, res
	}
	res.Fired = b

	switch b.Kind {
	case Toggle:
		if next.Active != nil && next.Active.Equal(b.set) {
			// Deactivation clears the latch so the next press starts fresh.
			next.Active = nil
			next.Pressed = next.Physical.Clone()
			final := snap.BaseImage()
			if t := b.TransitionOut; t != nil {
				res.Events = append(res.Events, event.NewTransition(t.Image, t.Duration, final))
			} else {
				res.Events = append(res.Events, event.NewImageChange(final))
			}
		} else {
			next.Active = b.set.Clone()
			next.Pressed = next.Physical.Clone()
			if t := b.TransitionIn; t != nil {
				res.Events = append(res.Events, event.NewTransition(t.Image, t.Duration, b.Image))
			} else {
				res.Events = append(res.Events, event.NewImageChange(b.Image))
			}
		}
	case Hold:
		res.Events = append(res.Events, event.NewImageChange(DisplayedImage(next, snap)))
	}
	return next, res
}

// ApplyRelease computes the state and events that follow a release of key.
// Physical always drops the key. Pressed drops it when it belongs to a Hold
// binding (and the image is recomputed) or to no binding at all; keys that
// belong only to Toggle bindings stay latched.
func ApplyRelease(st State, snap *Snapshot, key input.Key) (State, []event.Event) {
	next := st.Clone()
	next.Physical.Remove(key)
	events := []event.Event{event.NewKeyReleased(string(key))}

	switch {
	case snap.isHoldKey(key):
		next.Pressed.Remove(key)
		events = append(events, event.NewImageChange(DisplayedImage(next, snap)))
	case !snap.isToggleKey(key):
		next.Pressed.Remove(key)
	}
	return next, events
}

// ApplyReleaseUnclassified handles the release of a key the normalizer could
// not name: every placeholder entry is purged from both sets and reported as
// released.
func ApplyReleaseUnclassified(st State) (State, []event.Event) {
	// Pressed is a superset of Physical, so scanning it is enough.
	var stale []input.Key
	for _, k := range st.Pressed.Sorted() {
		if input.IsPlaceholder(k) {
			stale = append(stale, k)
		}
	}
	if len(stale) == 0 {
		return st, nil
	}

	next := st.Clone()
	events := make([]event.Event, 0, len(stale))
	for _, k := range stale {
		next.Pressed.Remove(k)
		next.Physical.Remove(k)
		events = append(events, event.NewKeyReleased(string(k)))
	}
	return next, events
}

// DisplayedImage is the image implied by st, by precedence:
// combo > hold > active toggle > default (or placeholder).
func DisplayedImage(st State, snap *Snapshot) string {
	for i := range snap.bindings {
		b := &snap.bindings[i]
		if len(b.set) > 1 && b.set.SubsetOf(st.Pressed) {
			return b.Image
		}
	}
	for i := range snap.bindings {
		b := &snap.bindings[i]
		if b.Kind == Hold && b.set.SubsetOf(st.Pressed) {
			return b.Image
		}
	}
	if st.Active != nil {
		if b := snap.toggleFor(st.Active); b != nil {
			return b.Image
		}
	}
	return snap.BaseImage()
}
