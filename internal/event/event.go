// Package event defines the notifications pushed to overlay clients and a
// non-blocking publisher for them.
package event

// Kind defines the type of an overlay event
type Kind string

const (
	// KeyPressed is sent for every accepted key press
	KeyPressed Kind = "key_pressed"

	// KeyReleased is sent for every key release
	KeyReleased Kind = "key_released"

	// ImageChange replaces the displayed image immediately
	ImageChange Kind = "image_change"

	// Transition shows an intermediate image before settling on a final one
	Transition Kind = "transition"
)

// Event is the generic container for all overlay messages
type Event struct {
	Kind    Kind `json:"type"`
	Payload any  `json:"payload,omitempty"`
}

// KeyPayload is the payload for KeyPressed and KeyReleased
type KeyPayload struct {
	Key string `json:"key"`
}

// ImagePayload is the payload for ImageChange
type ImagePayload struct {
	Image string `json:"image"`
}

// TransitionPayload is the payload for Transition. Duration is in
// milliseconds; 0 lets the overlay fall back to its own timing.
type TransitionPayload struct {
	TransitionImage string `json:"transition_image"`
	Duration        int    `json:"duration"`
	FinalImage      string `json:"final_image"`
}

// Emitter accepts events without blocking and without reporting failure.
type Emitter interface {
	Emit(ev Event)
}

// EmitterFunc adapts a function to Emitter
type EmitterFunc func(Event)

// Emit calls f(ev)
func (f EmitterFunc) Emit(ev Event) { f(ev) }

// Discard drops every event
var Discard Emitter = EmitterFunc(func(Event) {})

// NewKeyPressed builds a KeyPressed event
func NewKeyPressed(key string) Event {
	return Event{Kind: KeyPressed, Payload: KeyPayload{Key: key}}
}

// NewKeyReleased builds a KeyReleased event
func NewKeyReleased(key string) Event {
	return Event{Kind: KeyReleased, Payload: KeyPayload{Key: key}}
}

// NewImageChange builds an ImageChange event
func NewImageChange(image string) Event {
	return Event{Kind: ImageChange, Payload: ImagePayload{Image: image}}
}

// NewTransition builds a Transition event
func NewTransition(transitionImage string, durationMS int, finalImage string) Event {
	return Event{Kind: Transition, Payload: TransitionPayload{
		TransitionImage: transitionImage,
		Duration:        durationMS,
		FinalImage:      finalImage,
	}}
}
