package hotkey

import (
	"reflect"
	"testing"

	"keybrame/internal/input"
	"keybrame/internal/testutil"
)

func binding(id int64, kind Kind, image string, keys ...input.Key) Binding {
	return Binding{ID: id, Keys: keys, Kind: kind, Image: image, Enabled: true}
}

// machine drives the pure transition functions and collects events.
type machine struct {
	t    *testing.T
	st   State
	snap *Snapshot
}

func newMachine(t *testing.T, snap *Snapshot) *machine {
	return &machine{t: t, st: NewState(), snap: snap}
}

func (m *machine) press(k input.Key) []string {
	m.t.Helper()
	next, res := ApplyPress(m.st, m.snap, k)
	m.st = next
	return testutil.FormatEvents(res.Events)
}

func (m *machine) release(k input.Key) []string {
	m.t.Helper()
	next, events := ApplyRelease(m.st, m.snap, k)
	m.st = next
	return testutil.FormatEvents(events)
}

func expectEvents(t *testing.T, step string, got []string, want ...string) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("%s: events = %q, want %q", step, got, want)
	}
}

func TestSingleKeyToggle(t *testing.T) {
	snap := NewSnapshot([]Binding{binding(1, Toggle, "img1", "a")}, "assets/placeholder.svg", nil)
	m := newMachine(t, snap)

	expectEvents(t, "press a", m.press("a"), "key_pressed a", "image_change img1")
	expectEvents(t, "release a", m.release("a"), "key_released a")
	expectEvents(t, "press a again", m.press("a"), "key_pressed a", "image_change assets/placeholder.svg")

	if !m.st.Idle() {
		t.Errorf("toggle still active: %v", m.st.Active)
	}
}

func TestRepressWithoutReleaseIsIgnored(t *testing.T) {
	snap := NewSnapshot([]Binding{binding(1, Toggle, "img1", "a")}, "", nil)
	m := newMachine(t, snap)

	m.press("a")
	before := m.st.Clone()
	expectEvents(t, "repeat a", m.press("a"))
	if !reflect.DeepEqual(before, m.st) {
		t.Errorf("state changed on repeat press: %+v -> %+v", before, m.st)
	}
}

func TestComboToggleAnyOrder(t *testing.T) {
	orders := [][]input.Key{{"ctrl", "a"}, {"a", "ctrl"}}
	for _, order := range orders {
		snap := NewSnapshot([]Binding{binding(1, Toggle, "combo.png", "ctrl", "a")}, "def.png", nil)
		m := newMachine(t, snap)

		expectEvents(t, "first key", m.press(order[0]), "key_pressed "+string(order[0]))
		expectEvents(t, "second key", m.press(order[1]), "key_pressed "+string(order[1]), "image_change combo.png")
		if !m.st.Active.Equal(NewKeySet("ctrl", "a")) {
			t.Fatalf("Active = %v, want ctrl+a", m.st.Active)
		}

		// Partial release keeps the toggle and the latched key.
		expectEvents(t, "release a", m.release("a"), "key_released a")
		if !m.st.Pressed.Has("a") || m.st.Idle() {
			t.Fatalf("after releasing a: Pressed=%v Active=%v", m.st.Pressed, m.st.Active)
		}
		if m.st.Physical.Has("a") {
			t.Errorf("Physical still holds a")
		}

		expectEvents(t, "press a again", m.press("a"), "key_pressed a", "image_change def.png")
		if !m.st.Idle() {
			t.Errorf("toggle not cleared")
		}
	}
}

func TestHoldBinding(t *testing.T) {
	snap := NewSnapshot([]Binding{binding(1, Hold, "hold.png", "h")}, "def.png", nil)
	m := newMachine(t, snap)

	expectEvents(t, "press h", m.press("h"), "key_pressed h", "image_change hold.png")
	expectEvents(t, "release h", m.release("h"), "key_released h", "image_change def.png")
	if m.st.Pressed.Has("h") {
		t.Errorf("hold key still in Pressed")
	}
}

func TestPrecedenceChain(t *testing.T) {
	snap := NewSnapshot([]Binding{
		binding(1, Toggle, "toggle.png", "t"),
		binding(2, Hold, "hold.png", "h"),
		binding(3, Hold, "combo.png", "ctrl", "h"),
	}, "def.png", nil)
	m := newMachine(t, snap)

	expectEvents(t, "press t", m.press("t"), "key_pressed t", "image_change toggle.png")
	m.release("t")
	expectEvents(t, "press h", m.press("h"), "key_pressed h", "image_change hold.png")
	expectEvents(t, "press ctrl", m.press("ctrl"), "key_pressed ctrl", "image_change combo.png")
	expectEvents(t, "release ctrl", m.release("ctrl"), "key_released ctrl", "image_change hold.png")
	expectEvents(t, "release h", m.release("h"), "key_released h", "image_change toggle.png")
	expectEvents(t, "press t", m.press("t"), "key_pressed t", "image_change def.png")
}

func TestTransitions(t *testing.T) {
	b := binding(1, Toggle, "t.png", "t")
	b.TransitionIn = &Transition{Image: "in.gif", Duration: 500}
	b.TransitionOut = &Transition{Image: "out.gif"}
	h := binding(2, Hold, "h.png", "h")
	h.TransitionIn = &Transition{Image: "never.gif", Duration: 100}

	snap := NewSnapshot([]Binding{b, h}, "def.png", nil)
	m := newMachine(t, snap)

	expectEvents(t, "activate", m.press("t"), "key_pressed t", "transition in.gif 500 t.png")
	m.release("t")
	expectEvents(t, "deactivate", m.press("t"), "key_pressed t", "transition out.gif 0 def.png")
	expectEvents(t, "hold", m.press("h"), "key_pressed h", "image_change h.png")
}

func TestSwitchingToggles(t *testing.T) {
	snap := NewSnapshot([]Binding{
		binding(1, Toggle, "one.png", "1"),
		binding(2, Toggle, "two.png", "2"),
	}, "def.png", nil)
	m := newMachine(t, snap)

	m.press("1")
	m.release("1")
	expectEvents(t, "press 2", m.press("2"), "key_pressed 2", "image_change two.png")
	if !m.st.Active.Equal(NewKeySet("2")) {
		t.Errorf("Active = %v, want 2", m.st.Active)
	}
	if m.st.Pressed.Has("1") {
		t.Errorf("stale latch of previous toggle kept: %v", m.st.Pressed)
	}
}

func TestShutdownCombo(t *testing.T) {
	snap := NewSnapshot([]Binding{binding(1, Toggle, "q.png", "q")}, "", []input.Key{"ctrl", "shift", "q"})
	st := NewState()

	var res PressResult
	for _, k := range []input.Key{"ctrl", "shift"} {
		st, res = ApplyPress(st, snap, k)
		if res.Shutdown {
			t.Fatalf("shutdown after %s", k)
		}
	}
	st, res = ApplyPress(st, snap, "q")
	if !res.Shutdown {
		t.Fatal("expected shutdown")
	}
	if res.Fired != nil {
		t.Errorf("binding %d fired alongside shutdown", res.Fired.ID)
	}
	expectEvents(t, "press q", testutil.FormatEvents(res.Events), "key_pressed q")
	if !st.Pressed.Equal(NewKeySet("ctrl", "shift", "q")) {
		t.Errorf("Pressed = %v", st.Pressed)
	}
}

func TestReleaseKeepsToggleOnlyKeysLatched(t *testing.T) {
	snap := NewSnapshot([]Binding{
		binding(1, Toggle, "a.png", "a", "b"),
		binding(2, Hold, "b.png", "b"),
	}, "", nil)
	m := newMachine(t, snap)

	m.press("x")
	m.release("x")
	if m.st.Pressed.Has("x") {
		t.Errorf("unbound key latched")
	}

	m.press("a")
	m.release("a")
	if !m.st.Pressed.Has("a") {
		t.Errorf("toggle-only key a was not latched")
	}

	m.press("b")
	// b fires the a+b combo through the latched a.
	if !m.st.Active.Equal(NewKeySet("a", "b")) {
		t.Fatalf("Active = %v, want a+b", m.st.Active)
	}
	expectEvents(t, "release b", m.release("b"), "key_released b", "image_change a.png")
	if m.st.Pressed.Has("b") {
		t.Errorf("hold key b still in Pressed")
	}
}

func TestReleaseUnclassified(t *testing.T) {
	snap := NewSnapshot(nil, "", nil)
	m := newMachine(t, snap)
	m.press("?")
	m.press("unknown")
	m.press("a")

	next, events := ApplyReleaseUnclassified(m.st)
	expectEvents(t, "purge", testutil.FormatEvents(events), "key_released ?", "key_released unknown")
	if !next.Pressed.Equal(NewKeySet("a")) || !next.Physical.Equal(NewKeySet("a")) {
		t.Errorf("after purge Pressed=%v Physical=%v", next.Pressed, next.Physical)
	}

	again, events := ApplyReleaseUnclassified(next)
	if len(events) != 0 || !reflect.DeepEqual(again, next) {
		t.Errorf("second purge changed something: %v", events)
	}
}

func TestDisplayedImagePlaceholder(t *testing.T) {
	snap := NewSnapshot(nil, "", nil)
	if got := DisplayedImage(NewState(), snap); got != Placeholder {
		t.Errorf("DisplayedImage = %q, want %q", got, Placeholder)
	}
}

func TestApplyPressDoesNotMutateInput(t *testing.T) {
	snap := NewSnapshot([]Binding{binding(1, Toggle, "a.png", "a")}, "", nil)
	st := NewState()
	ApplyPress(st, snap, "a")
	if len(st.Physical) != 0 || len(st.Pressed) != 0 || st.Active != nil {
		t.Errorf("input state mutated: %+v", st)
	}
}
