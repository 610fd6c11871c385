package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"keybrame/internal/config"
	"keybrame/internal/event"
	"keybrame/internal/input"
	"keybrame/internal/store"
)

func TestServerAddr(t *testing.T) {
	tests := []struct {
		name     string
		bind     string
		port     int
		stored   int
		wantAddr string
		wantURL  string
	}{
		{"options port wins", "127.0.0.1", 8080, 5000, "127.0.0.1:8080", "http://127.0.0.1:8080/"},
		{"stored port", "127.0.0.1", 0, 5123, "127.0.0.1:5123", "http://127.0.0.1:5123/"},
		{"default port", "127.0.0.1", 0, 0, "127.0.0.1:5000", "http://127.0.0.1:5000/"},
		{"all interfaces", "0.0.0.0", 0, 5000, "0.0.0.0:5000", "http://127.0.0.1:5000/"},
		{"empty bind", "", 7000, 0, ":7000", "http://127.0.0.1:7000/"},
		{"ipv6", "::1", 7000, 0, "[::1]:7000", "http://[::1]:7000/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := config.DefaultOptions()
			opts.BindAddress = tt.bind
			opts.Port = tt.port
			addr := serverAddr(opts, store.Settings{Port: tt.stored})
			if addr != tt.wantAddr {
				t.Errorf("serverAddr = %q, want %q", addr, tt.wantAddr)
			}
			if url := overlayURL(addr); url != tt.wantURL {
				t.Errorf("overlayURL(%q) = %q, want %q", addr, url, tt.wantURL)
			}
		})
	}
}

func TestStatusText(t *testing.T) {
	tests := []struct {
		ev     event.Event
		want   string
		wantOK bool
	}{
		{event.NewImageChange("assets/idle.png"), "Showing assets/idle.png", true},
		{event.NewTransition("assets/in.gif", 200, "assets/on.png"), "Showing assets/on.png", true},
		{event.NewKeyPressed("a"), "", false},
	}
	for _, tt := range tests {
		got, ok := statusText(tt.ev)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("statusText(%v) = %q, %v", tt.ev.Kind, got, ok)
		}
	}
}

func TestHelpers(t *testing.T) {
	if got := joinKeys([]input.Key{"ctrl", "shift", "q"}); got != "ctrl+shift+q" {
		t.Errorf("joinKeys = %q", got)
	}
	if got := durationText(0); got != "(auto)" {
		t.Errorf("durationText(0) = %q", got)
	}
	if got := durationText(250); got != "(250ms)" {
		t.Errorf("durationText(250) = %q", got)
	}
	if got := orNone(""); got != "(placeholder)" {
		t.Errorf("orNone = %q", got)
	}
}

func TestShutdownBudget(t *testing.T) {
	if got := shutdownBudget(true); got != comboShutdownTimeout || got >= time.Second {
		t.Errorf("combo budget = %v", got)
	}
	if got := shutdownBudget(false); got != shutdownTimeout {
		t.Errorf("normal budget = %v", got)
	}
}

type closeRecorder struct {
	io.Reader
	closed chan struct{}
}

func (c *closeRecorder) Close() error {
	close(c.closed)
	return nil
}

func TestStartReplayClosesInput(t *testing.T) {
	rc := &closeRecorder{Reader: strings.NewReader(""), closed: make(chan struct{})}
	open := func(string) (io.ReadCloser, error) { return rc, nil }

	rp, err := startReplay("script.jsonl", open, func(input.RawEvent) {})
	if err != nil {
		t.Fatal(err)
	}
	if err := rp.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	select {
	case <-rc.closed:
	case <-time.After(5 * time.Second):
		t.Fatal("replay input not closed")
	}

	if _, err := startReplay("x", func(string) (io.ReadCloser, error) {
		return nil, errors.New("gone")
	}, func(input.RawEvent) {}); err == nil {
		t.Error("open error not returned")
	}
}

func TestOpenReplay(t *testing.T) {
	if _, err := openReplay(filepath.Join(t.TempDir(), "missing.jsonl")); err == nil {
		t.Error("missing file opened")
	}

	path := filepath.Join(t.TempDir(), "script.jsonl")
	os.WriteFile(path, []byte("\n"), 0644)
	rc, err := openReplay(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := rc.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}

	stdin, err := openReplay("-")
	if err != nil {
		t.Fatal(err)
	}
	stdin.Close()
	if _, err := os.Stdin.Stat(); err != nil {
		t.Errorf("stdin closed: %v", err)
	}
}
