// Package input normalizes raw keyboard, mouse button and scroll events into
// canonical key identifiers.
package input

// EventType identifies which listener produced a raw event.
type EventType string

const (
	// TypeKey is a keyboard press or release
	TypeKey EventType = "key"

	// TypeMouseButton is a mouse button press or release
	TypeMouseButton EventType = "mouse_btn"

	// TypeMouseWheel is a vertical scroll step
	TypeMouseWheel EventType = "mouse_wheel"
)

// Mouse buttons as delivered by the click listener.
const (
	ButtonLeft   = 1
	ButtonRight  = 2
	ButtonMiddle = 3
)

// RawEvent represents one callback from a keyboard, click or scroll listener
type RawEvent struct {
	Type EventType `json:"type"`

	// Name is the symbolic key name for non-character keys ("ctrl_l", "f5", "space")
	Name string `json:"name,omitempty"`

	// Char is the character produced by the key, possibly a control code
	Char string `json:"char,omitempty"`

	Button  int   `json:"btn,omitempty"` // 1=left, 2=right, 3=middle
	DeltaY  int   `json:"dy,omitempty"`  // scroll direction, >0 up
	Pressed bool  `json:"pressed,omitempty"`
	Time    int64 `json:"ts,omitempty"` // Unix ms timestamp
}

// Sink receives normalized key edges. hotkey.Engine implements it.
type Sink interface {
	Press(key Key)
	Release(key Key)

	// ReleaseUnclassified reports the release of a key the normalizer
	// could not name.
	ReleaseUnclassified()
}

// Capture defines the interface for an event source feeding raw events
type Capture interface {
	Start(handler func(RawEvent)) error
	Stop() error
}
