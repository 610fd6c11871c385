package input

import (
	"strings"
	"sync"
	"testing"
)

type recordingSink struct {
	mu    sync.Mutex
	edges []string
}

func (s *recordingSink) Press(k Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = append(s.edges, "+"+string(k))
}

func (s *recordingSink) Release(k Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = append(s.edges, "-"+string(k))
}

func (s *recordingSink) ReleaseUnclassified() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = append(s.edges, "-?")
}

func (s *recordingSink) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.edges...)
}

func TestNormalizeKeyboard(t *testing.T) {
	tests := []struct {
		name string
		ev   RawEvent
		want Key
		ok   bool
	}{
		{"left ctrl", RawEvent{Type: TypeKey, Name: "ctrl_l"}, KeyCtrl, true},
		{"right ctrl", RawEvent{Type: TypeKey, Name: "ctrl_r"}, KeyCtrl, true},
		{"alt gr", RawEvent{Type: TypeKey, Name: "alt_gr"}, KeyAlt, true},
		{"right shift", RawEvent{Type: TypeKey, Name: "Shift_R"}, KeyShift, true},
		{"cmd", RawEvent{Type: TypeKey, Name: "cmd_l"}, KeyCmd, true},
		{"named key", RawEvent{Type: TypeKey, Name: "F5"}, "f5", true},
		{"escape alias", RawEvent{Type: TypeKey, Name: "escape"}, "esc", true},
		{"upper char", RawEvent{Type: TypeKey, Char: "A"}, "a", true},
		{"digit", RawEvent{Type: TypeKey, Char: "7"}, "7", true},
		{"control code a", RawEvent{Type: TypeKey, Char: "\x01"}, "a", true},
		{"control code z", RawEvent{Type: TypeKey, Char: "\x1a"}, "z", true},
		{"other control code", RawEvent{Type: TypeKey, Char: "\x1b"}, "", false},
		{"unknown name", RawEvent{Type: TypeKey, Name: "<unknown>"}, "", false},
		{"none name", RawEvent{Type: TypeKey, Name: "None"}, "", false},
		{"empty", RawEvent{Type: TypeKey}, "", false},
		{"multi rune char", RawEvent{Type: TypeKey, Char: "ab"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.ev)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Normalize(%+v) = (%q, %v), want (%q, %v)", tt.ev, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestNormalizeMouse(t *testing.T) {
	tests := []struct {
		ev   RawEvent
		want Key
		ok   bool
	}{
		{RawEvent{Type: TypeMouseButton, Button: ButtonLeft}, MouseLeft, true},
		{RawEvent{Type: TypeMouseButton, Button: ButtonRight}, MouseRight, true},
		{RawEvent{Type: TypeMouseButton, Button: ButtonMiddle}, MouseMiddle, true},
		{RawEvent{Type: TypeMouseButton, Button: 8}, "", false},
		{RawEvent{Type: TypeMouseWheel, DeltaY: 1}, ScrollUp, true},
		{RawEvent{Type: TypeMouseWheel, DeltaY: -3}, ScrollDown, true},
		{RawEvent{Type: TypeMouseWheel}, "", false},
	}
	for _, tt := range tests {
		got, ok := Normalize(tt.ev)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Normalize(%+v) = (%q, %v), want (%q, %v)", tt.ev, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDispatch(t *testing.T) {
	sink := &recordingSink{}

	Dispatch(RawEvent{Type: TypeKey, Name: "ctrl_l", Pressed: true}, sink)
	Dispatch(RawEvent{Type: TypeKey, Name: "ctrl_l"}, sink)
	Dispatch(RawEvent{Type: TypeMouseWheel, DeltaY: 1}, sink)
	Dispatch(RawEvent{Type: TypeMouseButton, Button: ButtonLeft, Pressed: true}, sink)
	Dispatch(RawEvent{Type: TypeKey, Name: "<unknown>", Pressed: true}, sink)
	Dispatch(RawEvent{Type: TypeKey, Name: "<unknown>"}, sink)

	want := []string{"+ctrl", "-ctrl", "+scroll_up", "-scroll_up", "+mouse_left", "-?"}
	got := sink.snapshot()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("edges = %v, want %v", got, want)
	}
}

func TestParseKeys(t *testing.T) {
	keys, err := ParseKeys([]string{"Ctrl", "shift", "ctrl", " Q "})
	if err != nil {
		t.Fatalf("ParseKeys: %v", err)
	}
	if len(keys) != 3 || keys[0] != KeyCtrl || keys[1] != KeyShift || keys[2] != "q" {
		t.Errorf("ParseKeys = %v", keys)
	}

	if _, err := ParseKeys(nil); err == nil {
		t.Error("expected error for empty keys")
	}
	if _, err := ParseKeys([]string{"hyper"}); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestVocabulary(t *testing.T) {
	for _, k := range []Key{"a", "z", "0", "9", "f1", "f12", "num_0", "num_divide", "esc", MouseMiddle, ScrollDown} {
		if !Valid(k) {
			t.Errorf("Valid(%q) = false", k)
		}
	}
	for _, k := range []Key{"f13", "ctrl_l", "A", ""} {
		if Valid(k) {
			t.Errorf("Valid(%q) = true", k)
		}
	}
	if got := len(Vocabulary()); got != 26+10+10+12+22 {
		t.Errorf("len(Vocabulary()) = %d", got)
	}
}

func TestReplay(t *testing.T) {
	script := strings.Join([]string{
		`# comment`,
		`{"type":"key","name":"ctrl_l","pressed":true}`,
		``,
		`{"type":"mouse_wheel","dy":-1}`,
		`{"type":"key","name":"ctrl_r"}`,
	}, "\n")

	sink := &recordingSink{}
	r := NewReplay(strings.NewReader(script))
	if err := r.Start(func(ev RawEvent) { Dispatch(ev, sink) }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	want := "+ctrl,+scroll_down,-scroll_down,-ctrl"
	if got := strings.Join(sink.snapshot(), ","); got != want {
		t.Errorf("edges = %s, want %s", got, want)
	}
}

func TestReplayBadLine(t *testing.T) {
	r := NewReplay(strings.NewReader("{not json}\n"))
	if err := r.Start(func(RawEvent) {}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Wait(); err == nil {
		t.Error("expected decode error")
	}
}

func TestReplayStopSuppressesDelivery(t *testing.T) {
	r := NewReplay(strings.NewReader(`{"type":"key","char":"a","pressed":true,"delay_ms":60000}`))
	calls := 0
	if err := r.Start(func(RawEvent) { calls++ }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := r.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if calls != 0 {
		t.Errorf("handler called %d times after Stop", calls)
	}
}
