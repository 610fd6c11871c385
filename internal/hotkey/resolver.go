package hotkey

import "keybrame/internal/input"

// Resolve picks the binding that fires for a press of key, given the state
// after key was added to Pressed. Rules, first hit wins:
//
//  1. Pressed equals the active toggle: that toggle fires (deactivation).
//  2. The first combo (more than one key) whose keys are all in Pressed.
//  3. The first single-key binding for key, unless key belongs to the
//     active toggle.
//
// Combos always outrank single keys; priority only orders bindings of the
// same cardinality. Returns nil when nothing fires.
func Resolve(st State, snap *Snapshot, key input.Key) *Binding {
	if st.Active != nil && st.Pressed.Equal(st.Active) {
		if b := snap.toggleFor(st.Active); b != nil {
			return b
		}
	}

	for i := range snap.bindings {
		b := &snap.bindings[i]
		if len(b.set) > 1 && b.set.SubsetOf(st.Pressed) {
			return b
		}
	}

	if st.Active.Has(key) {
		return nil
	}
	for i := range snap.bindings {
		b := &snap.bindings[i]
		if len(b.set) == 1 && b.set.Has(key) {
			return b
		}
	}
	return nil
}
