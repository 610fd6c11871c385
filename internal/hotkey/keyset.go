package hotkey

import (
	"sort"
	"strings"

	"keybrame/internal/input"
)

// KeySet is an unordered set of key identifiers. A nil KeySet is empty and
// safe to read.
type KeySet map[input.Key]struct{}

// NewKeySet builds a set from keys
func NewKeySet(keys ...input.Key) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports whether k is in the set
func (s KeySet) Has(k input.Key) bool {
	_, ok := s[k]
	return ok
}

// Add inserts k
func (s KeySet) Add(k input.Key) { s[k] = struct{}{} }

// Remove deletes k
func (s KeySet) Remove(k input.Key) { delete(s, k) }

// SubsetOf reports whether every member of s is in other
func (s KeySet) SubsetOf(other KeySet) bool {
	if len(s) > len(other) {
		return false
	}
	for k := range s {
		if !other.Has(k) {
			return false
		}
	}
	return true
}

// Equal reports whether both sets hold the same keys
func (s KeySet) Equal(other KeySet) bool {
	return len(s) == len(other) && s.SubsetOf(other)
}

// Clone returns an independent copy; the copy of a nil set is empty, not nil
func (s KeySet) Clone() KeySet {
	c := make(KeySet, len(s))
	for k := range s {
		c[k] = struct{}{}
	}
	return c
}

// Sorted returns the members in lexical order
func (s KeySet) Sorted() []input.Key {
	out := make([]input.Key, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// String renders the set as "a+b+c" in lexical order
func (s KeySet) String() string {
	keys := s.Sorted()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, "+")
}
