package hotkey

import (
	"sort"

	"keybrame/internal/input"
)

// Placeholder is the image shown when no default image is configured.
const Placeholder = "assets/placeholder.svg"

// Snapshot is an immutable view of the enabled bindings and global
// settings. A reload replaces it wholesale.
type Snapshot struct {
	bindings     []Binding
	defaultImage string
	shutdown     KeySet

	toggleKeys KeySet
	holdKeys   KeySet
}

// NewSnapshot keeps the enabled bindings with at least one key and orders
// them by priority descending, then id ascending.
func NewSnapshot(bindings []Binding, defaultImage string, shutdown []input.Key) *Snapshot {
	s := &Snapshot{
		defaultImage: defaultImage,
		shutdown:     NewKeySet(shutdown...),
		toggleKeys:   make(KeySet),
		holdKeys:     make(KeySet),
	}

	for _, b := range bindings {
		if !b.Enabled || len(b.Keys) == 0 {
			continue
		}
		b.Keys = append([]input.Key(nil), b.Keys...)
		b.set = NewKeySet(b.Keys...)
		s.bindings = append(s.bindings, b)

		members := s.toggleKeys
		if b.Kind == Hold {
			members = s.holdKeys
		}
		for k := range b.set {
			members.Add(k)
		}
	}

	sort.SliceStable(s.bindings, func(i, j int) bool {
		if s.bindings[i].Priority != s.bindings[j].Priority {
			return s.bindings[i].Priority > s.bindings[j].Priority
		}
		return s.bindings[i].ID < s.bindings[j].ID
	})
	return s
}

// Bindings returns a copy of the ordered bindings
func (s *Snapshot) Bindings() []Binding {
	out := make([]Binding, len(s.bindings))
	copy(out, s.bindings)
	return out
}

// DefaultImage returns the configured default image, possibly empty
func (s *Snapshot) DefaultImage() string {
	return s.defaultImage
}

// BaseImage returns the default image or the placeholder when unset
func (s *Snapshot) BaseImage() string {
	if s.defaultImage == "" {
		return Placeholder
	}
	return s.defaultImage
}

// ShutdownCombo returns a copy of the shutdown key set
func (s *Snapshot) ShutdownCombo() KeySet {
	return s.shutdown.Clone()
}

// toggleFor returns the first Toggle binding whose key set equals keys.
func (s *Snapshot) toggleFor(keys KeySet) *Binding {
	for i := range s.bindings {
		b := &s.bindings[i]
		if b.Kind == Toggle && b.set.Equal(keys) {
			return b
		}
	}
	return nil
}

func (s *Snapshot) isHoldKey(k input.Key) bool   { return s.holdKeys.Has(k) }
func (s *Snapshot) isToggleKey(k input.Key) bool { return s.toggleKeys.Has(k) }
