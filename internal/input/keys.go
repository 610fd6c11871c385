package input

import (
	"fmt"
	"sort"
	"strings"
)

// Key is a canonical lowercase key identifier such as "ctrl", "a",
// "mouse_left" or "scroll_up".
type Key string

const (
	KeyCtrl  Key = "ctrl"
	KeyShift Key = "shift"
	KeyAlt   Key = "alt"
	KeyCmd   Key = "cmd"

	MouseLeft   Key = "mouse_left"
	MouseRight  Key = "mouse_right"
	MouseMiddle Key = "mouse_middle"

	ScrollUp   Key = "scroll_up"
	ScrollDown Key = "scroll_down"
)

// placeholders are the tokens some hooks report for keys they cannot name.
var placeholders = map[Key]bool{
	"?":         true,
	"<unknown>": true,
	"unknown":   true,
}

// IsPlaceholder reports whether k is an "unknown key" token.
func IsPlaceholder(k Key) bool {
	return placeholders[k]
}

var vocabulary = buildVocabulary()

func buildVocabulary() map[Key]bool {
	v := make(map[Key]bool)
	for c := 'a'; c <= 'z'; c++ {
		v[Key(string(c))] = true
	}
	for d := 0; d <= 9; d++ {
		v[Key(fmt.Sprint(d))] = true
		v[Key(fmt.Sprintf("num_%d", d))] = true
	}
	for i := 1; i <= 12; i++ {
		v[Key(fmt.Sprintf("f%d", i))] = true
	}
	for _, k := range []Key{
		"space", "enter", "tab", "esc", "backspace",
		KeyCtrl, KeyShift, KeyAlt, KeyCmd,
		"up", "down", "left", "right",
		"num_add", "num_subtract", "num_multiply", "num_divide",
		MouseLeft, MouseRight, MouseMiddle,
		ScrollUp, ScrollDown,
	} {
		v[k] = true
	}
	return v
}

// Valid reports whether k belongs to the bindable key vocabulary.
func Valid(k Key) bool {
	return vocabulary[k]
}

// Vocabulary returns every bindable key, sorted.
func Vocabulary() []Key {
	out := make([]Key, 0, len(vocabulary))
	for k := range vocabulary {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseKeys lowercases and validates a list of key names as stored in a
// binding. Duplicates are dropped, order is preserved.
func ParseKeys(names []string) ([]Key, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("keys must be a non-empty list")
	}
	seen := make(map[Key]bool, len(names))
	keys := make([]Key, 0, len(names))
	for _, name := range names {
		k := Key(strings.ToLower(strings.TrimSpace(name)))
		if !Valid(k) {
			return nil, fmt.Errorf("invalid key: %q", name)
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys, nil
}
