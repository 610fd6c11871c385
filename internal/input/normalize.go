package input

import (
	"strings"
	"unicode/utf8"
)

// modifierAliases collapses left/right variants to one identifier.
var modifierAliases = map[string]Key{
	"ctrl_l":  KeyCtrl,
	"ctrl_r":  KeyCtrl,
	"control": KeyCtrl,
	"shift_l": KeyShift,
	"shift_r": KeyShift,
	"alt_l":   KeyAlt,
	"alt_r":   KeyAlt,
	"alt_gr":  KeyAlt,
	"cmd_l":   KeyCmd,
	"cmd_r":   KeyCmd,
	"super_l": KeyCmd,
	"super_r": KeyCmd,
	"win":     KeyCmd,
	"escape":  "esc",
	"return":  "enter",
}

// Normalize maps one raw event to its key identifier. ok is false when the
// event must be dropped without any state change.
func Normalize(ev RawEvent) (Key, bool) {
	switch ev.Type {
	case TypeKey:
		return normalizeKey(ev)
	case TypeMouseButton:
		return ButtonKey(ev.Button)
	case TypeMouseWheel:
		return ScrollKey(ev.DeltaY)
	}
	return "", false
}

func normalizeKey(ev RawEvent) (Key, bool) {
	if ev.Name != "" {
		name := strings.ToLower(strings.TrimSpace(ev.Name))
		if k, ok := modifierAliases[name]; ok {
			return k, true
		}
		if name == "" || name == "none" || IsPlaceholder(Key(name)) {
			return "", false
		}
		return Key(name), true
	}

	if ev.Char == "" {
		return "", false
	}
	r, size := utf8.DecodeRuneInString(ev.Char)
	if r == utf8.RuneError || size != len(ev.Char) {
		return "", false
	}
	switch {
	case r >= 1 && r <= 26:
		// Ctrl+letter arrives as its control code.
		return Key(rune('a' + r - 1)), true
	case r < 32 || r == 127:
		return "", false
	}
	return Key(strings.ToLower(ev.Char)), true
}

// ButtonKey maps a mouse button number to its identifier.
func ButtonKey(button int) (Key, bool) {
	switch button {
	case ButtonLeft:
		return MouseLeft, true
	case ButtonRight:
		return MouseRight, true
	case ButtonMiddle:
		return MouseMiddle, true
	}
	return "", false
}

// ScrollKey maps a vertical scroll delta to its identifier.
func ScrollKey(dy int) (Key, bool) {
	switch {
	case dy > 0:
		return ScrollUp, true
	case dy < 0:
		return ScrollDown, true
	}
	return "", false
}

// Dispatch normalizes ev and drives s. Scroll steps have no hold state and
// become an immediate press/release pair.
func Dispatch(ev RawEvent, s Sink) {
	key, ok := Normalize(ev)
	if !ok {
		if ev.Type == TypeKey && !ev.Pressed {
			s.ReleaseUnclassified()
		}
		return
	}

	if ev.Type == TypeMouseWheel {
		s.Press(key)
		s.Release(key)
		return
	}

	if ev.Pressed {
		s.Press(key)
	} else {
		s.Release(key)
	}
}
