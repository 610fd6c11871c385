package network

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"keybrame/internal/event"
)

func TestWSURL(t *testing.T) {
	tests := []struct {
		in, want string
		wantErr  bool
	}{
		{in: "127.0.0.1:5000", want: "ws://127.0.0.1:5000/ws"},
		{in: "http://localhost:5000", want: "ws://localhost:5000/ws"},
		{in: "https://stream.local/", want: "wss://stream.local/ws"},
		{in: "ws://h:1/custom", want: "ws://h:1/custom"},
		{in: "ftp://h", wantErr: true},
		{in: "http://", wantErr: true},
	}
	for _, tt := range tests {
		got, err := wsURL(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("wsURL(%q) = %q, want error", tt.in, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("wsURL(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		ev   event.Event
		want string
	}{
		{event.NewKeyPressed("ctrl"), "key_pressed   ctrl"},
		{event.NewImageChange("assets/idle.png"), "image_change  assets/idle.png"},
		{event.NewTransition("assets/in.gif", 300, "assets/on.png"), "transition    assets/in.gif -> assets/on.png (300ms)"},
	}
	for _, tt := range tests {
		data, _ := json.Marshal(tt.ev)
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatal(err)
		}
		if got := Format(msg); got != tt.want {
			t.Errorf("Format(%s) = %q, want %q", data, got, tt.want)
		}
	}
}

func TestRunReceivesEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteJSON(event.NewImageChange("assets/idle.png"))
		conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		conn.WriteJSON(event.NewKeyPressed("a"))
		// hold the connection until the client goes away
		conn.ReadMessage()
	}))
	defer srv.Close()

	c, err := NewWSClient(strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatal(err)
	}
	got := make(chan Message, 4)
	c.OnEvent = func(m Message) { got <- m }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	for _, want := range []event.Kind{event.ImageChange, event.KeyPressed} {
		select {
		case m := <-got:
			if m.Kind != want {
				t.Errorf("got %s, want %s", m.Kind, want)
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
	if !c.IsConnected() {
		t.Error("IsConnected = false while reading")
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
