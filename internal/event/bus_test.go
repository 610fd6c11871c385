package event

import (
	"encoding/json"
	"testing"
)

func TestBusWithoutSubscribers(t *testing.T) {
	b := NewBus()
	b.Emit(NewImageChange("a.png"))
	if b.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, want 0", b.Subscribers())
	}
}

func TestBusDelivers(t *testing.T) {
	b := NewBus()
	ch1, cancel1 := b.Subscribe(4)
	ch2, cancel2 := b.Subscribe(4)
	defer cancel1()
	defer cancel2()

	b.Emit(NewKeyPressed("a"))

	for i, ch := range []<-chan Event{ch1, ch2} {
		ev := <-ch
		if ev.Kind != KeyPressed {
			t.Errorf("subscriber %d got kind %q", i, ev.Kind)
		}
		if p, ok := ev.Payload.(KeyPayload); !ok || p.Key != "a" {
			t.Errorf("subscriber %d got payload %#v", i, ev.Payload)
		}
	}
}

func TestBusDropsWhenFull(t *testing.T) {
	b := NewBus()
	ch, cancel := b.Subscribe(1)
	defer cancel()

	b.Emit(NewImageChange("1"))
	b.Emit(NewImageChange("2"))
	b.Emit(NewImageChange("3"))

	if got := b.Dropped(); got != 2 {
		t.Errorf("Dropped() = %d, want 2", got)
	}
	ev := <-ch
	if p := ev.Payload.(ImagePayload); p.Image != "1" {
		t.Errorf("first event image = %q, want 1", p.Image)
	}
}

func TestBusCancel(t *testing.T) {
	b := NewBus()
	ch, cancel := b.Subscribe(1)
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}
	b.Emit(NewImageChange("x"))
	if b.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, want 0", b.Subscribers())
	}
}

func TestEventJSON(t *testing.T) {
	data, err := json.Marshal(NewTransition("in.gif", 1200, "final.png"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"type":"transition","payload":{"transition_image":"in.gif","duration":1200,"final_image":"final.png"}}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}
