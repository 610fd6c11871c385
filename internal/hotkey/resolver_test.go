package hotkey

import (
	"testing"

	"keybrame/internal/input"
)

func pressedState(active []input.Key, pressed ...input.Key) State {
	st := State{Physical: NewKeySet(pressed...), Pressed: NewKeySet(pressed...)}
	if active != nil {
		st.Active = NewKeySet(active...)
	}
	return st
}

func TestResolve(t *testing.T) {
	prio := func(b Binding, p int) Binding { b.Priority = p; return b }

	tests := []struct {
		name     string
		bindings []Binding
		state    State
		key      input.Key
		wantID   int64 // 0 means nothing fires
	}{
		{
			name:     "single key",
			bindings: []Binding{binding(1, Toggle, "a.png", "a")},
			state:    pressedState(nil, "a"),
			key:      "a",
			wantID:   1,
		},
		{
			name:     "unbound key",
			bindings: []Binding{binding(1, Toggle, "a.png", "a")},
			state:    pressedState(nil, "b"),
			key:      "b",
		},
		{
			name: "combo beats single regardless of priority",
			bindings: []Binding{
				prio(binding(1, Toggle, "single.png", "a"), 100),
				prio(binding(2, Toggle, "combo.png", "ctrl", "a"), 0),
			},
			state:  pressedState(nil, "ctrl", "a"),
			key:    "a",
			wantID: 2,
		},
		{
			name: "higher priority wins",
			bindings: []Binding{
				prio(binding(5, Toggle, "low.png", "a"), 1),
				prio(binding(9, Hold, "high.png", "a"), 2),
			},
			state:  pressedState(nil, "a"),
			key:    "a",
			wantID: 9,
		},
		{
			name: "equal priority lower id wins",
			bindings: []Binding{
				binding(3, Toggle, "three.png", "a"),
				binding(2, Toggle, "two.png", "a"),
			},
			state:  pressedState(nil, "a"),
			key:    "a",
			wantID: 2,
		},
		{
			name: "first matching combo by priority",
			bindings: []Binding{
				prio(binding(1, Toggle, "ca.png", "ctrl", "a"), 1),
				prio(binding(2, Toggle, "sa.png", "shift", "a"), 5),
			},
			state:  pressedState(nil, "ctrl", "shift", "a"),
			key:    "a",
			wantID: 2,
		},
		{
			name: "pressed equal to active toggle deactivates",
			bindings: []Binding{
				prio(binding(1, Toggle, "combo.png", "ctrl", "a"), 0),
				prio(binding(2, Toggle, "other.png", "a", "ctrl"), 0),
			},
			state:  pressedState([]input.Key{"ctrl", "a"}, "ctrl", "a"),
			key:    "a",
			wantID: 1,
		},
		{
			name: "single key inside active toggle is skipped",
			bindings: []Binding{
				binding(1, Toggle, "combo.png", "ctrl", "a"),
				binding(2, Toggle, "single.png", "a"),
			},
			state: State{
				Physical: NewKeySet("a"),
				Pressed:  NewKeySet("a"),
				Active:   NewKeySet("ctrl", "a"),
			},
			key: "a",
		},
		{
			name:     "disabled binding ignored",
			bindings: []Binding{{ID: 1, Keys: []input.Key{"a"}, Kind: Toggle, Image: "a.png"}},
			state:    pressedState(nil, "a"),
			key:      "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := NewSnapshot(tt.bindings, "", nil)
			got := Resolve(tt.state, snap, tt.key)
			switch {
			case tt.wantID == 0 && got != nil:
				t.Errorf("Resolve fired binding %d, want none", got.ID)
			case tt.wantID != 0 && got == nil:
				t.Errorf("Resolve fired nothing, want %d", tt.wantID)
			case got != nil && got.ID != tt.wantID:
				t.Errorf("Resolve fired %d, want %d", got.ID, tt.wantID)
			}
		})
	}
}

func TestSnapshotOrdering(t *testing.T) {
	snap := NewSnapshot([]Binding{
		{ID: 4, Keys: []input.Key{"d"}, Priority: 0, Enabled: true},
		{ID: 3, Keys: []input.Key{"c"}, Priority: 2, Enabled: true},
		{ID: 1, Keys: []input.Key{"a"}, Priority: 0, Enabled: true},
		{ID: 2, Keys: nil, Priority: 9, Enabled: true},
		{ID: 5, Keys: []input.Key{"e"}, Priority: 9, Enabled: false},
	}, "", []input.Key{"ctrl", "q"})

	var ids []int64
	for _, b := range snap.Bindings() {
		ids = append(ids, b.ID)
	}
	want := []int64{3, 1, 4}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids = %v, want %v", ids, want)
			break
		}
	}

	if got := snap.BaseImage(); got != Placeholder {
		t.Errorf("BaseImage = %q, want placeholder", got)
	}
	if got := snap.ShutdownCombo().String(); got != "ctrl+q" {
		t.Errorf("ShutdownCombo = %q", got)
	}
}
