package hotkey

import (
	"fmt"
	"strings"

	"keybrame/internal/input"
)

// Kind selects how a binding reacts to its key combination.
type Kind int

const (
	// Toggle activates on first match and stays active until the same
	// combination is pressed again.
	Toggle Kind = iota

	// Hold is active only while its keys are held down.
	Hold
)

func (k Kind) String() string {
	switch k {
	case Toggle:
		return "toggle"
	case Hold:
		return "hold"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind parses "toggle" or "hold"
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "toggle":
		return Toggle, nil
	case "hold":
		return Hold, nil
	}
	return 0, fmt.Errorf("unknown binding type %q (want toggle or hold)", s)
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	if k != Toggle && k != Hold {
		return nil, fmt.Errorf("invalid binding kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Transition is an intermediate image shown while a toggle changes state.
type Transition struct {
	Image string `json:"image"`

	// Duration in milliseconds. Zero means unknown.
	Duration int `json:"duration,omitempty"`
}

// Binding maps a key combination to an image.
type Binding struct {
	ID            int64       `json:"id"`
	Keys          []input.Key `json:"keys"`
	Kind          Kind        `json:"type"`
	Image         string      `json:"image"`
	Description   string      `json:"description,omitempty"`
	Priority      int         `json:"priority"`
	Enabled       bool        `json:"enabled"`
	TransitionIn  *Transition `json:"transition_in,omitempty"`
	TransitionOut *Transition `json:"transition_out,omitempty"`

	set KeySet
}

// KeySet returns the binding's keys as a set
func (b *Binding) KeySet() KeySet {
	if b.set == nil {
		b.set = NewKeySet(b.Keys...)
	}
	return b.set
}

// IsCombo reports whether the binding needs more than one key held together
func (b *Binding) IsCombo() bool {
	return len(b.KeySet()) > 1
}

// Combo renders the keys as "ctrl+shift+q" in configured order
func (b *Binding) Combo() string {
	parts := make([]string, len(b.Keys))
	for i, k := range b.Keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, "+")
}
