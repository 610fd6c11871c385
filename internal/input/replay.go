package input

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ReplayEvent is one line of a replay script: a raw event plus an optional
// pause before it is delivered.
type ReplayEvent struct {
	RawEvent
	DelayMS int `json:"delay_ms,omitempty"`
}

// Replay is a Capture that reads JSON-lines raw events from a reader. It
// stands in for platform listeners when scripting or debugging bindings.
type Replay struct {
	r    io.Reader
	done chan struct{}
	wg   sync.WaitGroup

	stopOnce sync.Once

	// deliverMu serializes handler calls against Stop.
	deliverMu sync.Mutex
	stopped   bool

	errMu sync.Mutex
	err   error
}

var _ Capture = (*Replay)(nil)

// NewReplay creates a replay source over r
func NewReplay(r io.Reader) *Replay {
	return &Replay{
		r:    r,
		done: make(chan struct{}),
	}
}

// Start begins delivering events to handler on a background goroutine
func (p *Replay) Start(handler func(RawEvent)) error {
	if handler == nil {
		return fmt.Errorf("replay: handler is required")
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.run(handler); err != nil {
			p.errMu.Lock()
			p.err = err
			p.errMu.Unlock()
			slog.Warn("[input] replay stopped", "error", err)
		}
	}()
	return nil
}

func (p *Replay) run(handler func(RawEvent)) error {
	sc := bufio.NewScanner(p.r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var ev ReplayEvent
		if err := json.Unmarshal([]byte(text), &ev); err != nil {
			return fmt.Errorf("replay: line %d: %w", line, err)
		}

		if ev.DelayMS > 0 {
			select {
			case <-time.After(time.Duration(ev.DelayMS) * time.Millisecond):
			case <-p.done:
				return nil
			}
		}

		if !p.deliver(handler, ev.RawEvent) {
			return nil
		}
	}
	return sc.Err()
}

func (p *Replay) deliver(handler func(RawEvent), ev RawEvent) bool {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()
	if p.stopped {
		return false
	}
	handler(ev)
	return true
}

// Wait blocks until the script is exhausted or stopped, and returns the
// first read or decode error.
func (p *Replay) Wait() error {
	p.wg.Wait()
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.err
}

// Stop ends delivery. No handler call happens after Stop returns, even if
// the reader is still blocked.
func (p *Replay) Stop() error {
	p.stopOnce.Do(func() {
		close(p.done)
		p.deliverMu.Lock()
		p.stopped = true
		p.deliverMu.Unlock()
	})
	return nil
}
