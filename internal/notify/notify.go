// Package notify shows desktop notifications.
package notify

import (
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/gen2brain/beeep"
)

const appName = "keybrame"

// maxMessage bounds notification bodies
const maxMessage = 160

// Notifier sends desktop notifications when enabled.
type Notifier struct {
	enabled atomic.Bool
	send    func(title, message string) error
}

// New creates a Notifier.
func New(enabled bool) *Notifier {
	n := &Notifier{send: func(title, message string) error {
		return beeep.Notify(title, message, "")
	}}
	n.enabled.Store(enabled)
	return n
}

// SetEnabled turns notifications on or off.
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled.Store(enabled)
}

// Enabled reports whether notifications are shown.
func (n *Notifier) Enabled() bool {
	return n.enabled.Load()
}

// Started announces the overlay address.
func (n *Notifier) Started(url string) {
	n.notify("Overlay running", url)
}

// Reloaded reports a successful binding reload.
func (n *Notifier) Reloaded(bindings int) {
	n.notify("Bindings reloaded", plural(bindings, "binding")+" active")
}

// ReloadFailed reports a reload that kept the previous bindings.
func (n *Notifier) ReloadFailed(err error) {
	n.notify("Reload failed", err.Error())
}

// Info shows a plain message.
func (n *Notifier) Info(msg string) {
	n.notify("", msg)
}

// Error shows an error message.
func (n *Notifier) Error(msg string) {
	n.notify("Error", msg)
}

func (n *Notifier) notify(title, message string) {
	if !n.enabled.Load() {
		return
	}
	if len(message) > maxMessage {
		message = message[:maxMessage] + "..."
	}
	if title != "" {
		title = appName + ": " + title
	} else {
		title = appName
	}
	if err := n.send(title, message); err != nil {
		slog.Debug("[notify] notification failed", "error", err)
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}
