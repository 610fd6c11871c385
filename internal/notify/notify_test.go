package notify

import (
	"errors"
	"strings"
	"testing"
)

type sent struct{ title, message string }

func recorder(n *Notifier) *[]sent {
	var got []sent
	n.send = func(title, message string) error {
		got = append(got, sent{title, message})
		return nil
	}
	return &got
}

func TestDisabledSendsNothing(t *testing.T) {
	n := New(false)
	got := recorder(n)
	n.Started("http://127.0.0.1:5000/")
	n.ReloadFailed(errors.New("boom"))
	if len(*got) != 0 {
		t.Errorf("disabled notifier sent %d notifications", len(*got))
	}

	n.SetEnabled(true)
	n.Info("hello")
	if len(*got) != 1 || (*got)[0].title != "keybrame" || (*got)[0].message != "hello" {
		t.Errorf("got %+v", *got)
	}
}

func TestMessages(t *testing.T) {
	n := New(true)
	got := recorder(n)

	n.Reloaded(1)
	n.Reloaded(3)
	n.ReloadFailed(errors.New("database is locked"))
	n.Error(strings.Repeat("x", 500))

	want := []sent{
		{"keybrame: Bindings reloaded", "1 binding active"},
		{"keybrame: Bindings reloaded", "3 bindings active"},
		{"keybrame: Reload failed", "database is locked"},
	}
	if len(*got) != 4 {
		t.Fatalf("sent %d notifications", len(*got))
	}
	for i, w := range want {
		if (*got)[i] != w {
			t.Errorf("notification %d = %+v, want %+v", i, (*got)[i], w)
		}
	}
	if last := (*got)[3].message; len(last) != maxMessage+3 || !strings.HasSuffix(last, "...") {
		t.Errorf("long message not truncated: %d bytes", len(last))
	}
}

func TestSendErrorIgnored(t *testing.T) {
	n := New(true)
	n.send = func(string, string) error { return errors.New("no dbus") }
	n.Info("still fine")
}
