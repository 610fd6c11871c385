// Package network contains the client side of the overlay push channel.
package network

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"keybrame/internal/event"
)

const (
	readWait     = 90 * time.Second
	defaultRetry = 2 * time.Second
	maxRetry     = 30 * time.Second
)

// Message is an overlay event as received from the wire
type Message struct {
	Kind    event.Kind      `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WSClient follows the /ws channel of a running overlay and reconnects
// when the connection drops
type WSClient struct {
	url     string
	retry   time.Duration
	dialer  *websocket.Dialer
	OnEvent func(Message)

	mu          sync.Mutex
	isConnected bool
}

// NewWSClient creates a client for addr, which is host:port or a full
// http(s) or ws(s) URL
func NewWSClient(addr string) (*WSClient, error) {
	u, err := wsURL(addr)
	if err != nil {
		return nil, err
	}
	return &WSClient{
		url:    u,
		retry:  defaultRetry,
		dialer: websocket.DefaultDialer,
	}, nil
}

// URL returns the websocket URL the client dials
func (c *WSClient) URL() string {
	return c.url
}

func wsURL(addr string) (string, error) {
	if !strings.Contains(addr, "://") {
		addr = "ws://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("invalid address %q: %w", addr, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid address %q: unsupported scheme %q", addr, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid address %q: missing host", addr)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	return u.String(), nil
}

// Run connects and delivers events until ctx is cancelled. Dropped
// connections are retried with backoff.
func (c *WSClient) Run(ctx context.Context) error {
	delay := c.retry
	for {
		connected, err := c.connect(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			delay = c.retry
		}
		slog.Warn("[tail] connection lost", "url", c.url, "error", err, "retry", delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, maxRetry)
	}
}

// connect reads from one connection until it fails. connected reports
// whether the dial succeeded.
func (c *WSClient) connect(ctx context.Context) (connected bool, err error) {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	c.setConnected(true)
	defer c.setConnected(false)
	slog.Info("[tail] connected", "url", c.url)

	// unblock ReadMessage on cancel
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(readWait))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(10*time.Second))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		conn.SetReadDeadline(time.Now().Add(readWait))

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("[tail] invalid message", "error", err)
			continue
		}
		if c.OnEvent != nil {
			c.OnEvent(msg)
		}
	}
}

func (c *WSClient) setConnected(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isConnected = v
}

// IsConnected returns true while a connection is open
func (c *WSClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isConnected
}

// Format renders a message as one human readable line
func Format(msg Message) string {
	switch msg.Kind {
	case event.KeyPressed, event.KeyReleased:
		var p event.KeyPayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			return fmt.Sprintf("%-13s %s", msg.Kind, p.Key)
		}
	case event.ImageChange:
		var p event.ImagePayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			return fmt.Sprintf("%-13s %s", msg.Kind, p.Image)
		}
	case event.Transition:
		var p event.TransitionPayload
		if json.Unmarshal(msg.Payload, &p) == nil {
			return fmt.Sprintf("%-13s %s -> %s (%dms)", msg.Kind, p.TransitionImage, p.FinalImage, p.Duration)
		}
	}
	return fmt.Sprintf("%-13s %s", msg.Kind, msg.Payload)
}
