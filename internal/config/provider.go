package config

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"keybrame/internal/hotkey"
	"keybrame/internal/store"
)

// Source is the persistent side of the binding configuration.
type Source interface {
	Settings(ctx context.Context) (store.Settings, error)
	EnabledBindings(ctx context.Context) ([]hotkey.Binding, error)
}

// DurationFunc returns the animation length of an image reference in ms.
type DurationFunc func(ref string) (int, error)

// Provider loads binding snapshots from a Source. Missing transition
// durations are derived from the image during load so the key path never
// touches image files.
type Provider struct {
	src      Source
	duration DurationFunc

	// reloadMu serializes whole reloads so a slower, older read can never
	// replace a newer snapshot
	reloadMu sync.Mutex

	mu       sync.RWMutex
	snap     *hotkey.Snapshot
	settings store.Settings
	onReload []func(*hotkey.Snapshot)
}

// NewProvider creates a provider. duration may be nil.
func NewProvider(src Source, duration DurationFunc) *Provider {
	if duration == nil {
		duration = func(string) (int, error) { return 0, nil }
	}
	return &Provider{
		src:      src,
		duration: duration,
		snap:     hotkey.NewSnapshot(nil, "", nil),
	}
}

// Snapshot returns the last loaded snapshot
func (p *Provider) Snapshot() *hotkey.Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}

// Settings returns the settings read by the last load
func (p *Provider) Settings() store.Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settings
}

// Document returns the loaded configuration in its portable form
func (p *Provider) Document() store.Document {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return store.Document{Settings: p.settings, Keybindings: p.snap.Bindings()}
}

// OnReload registers fn to receive every newly loaded snapshot
func (p *Provider) OnReload(fn func(*hotkey.Snapshot)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onReload = append(p.onReload, fn)
}

// Reload reads the source, builds a new snapshot and hands it to every
// OnReload callback. On error the previous snapshot stays in place.
func (p *Provider) Reload(ctx context.Context) (*hotkey.Snapshot, error) {
	p.reloadMu.Lock()
	defer p.reloadMu.Unlock()

	settings, err := p.src.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	bindings, err := p.src.EnabledBindings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load keybindings: %w", err)
	}

	for i := range bindings {
		p.fillDuration(bindings[i].TransitionIn)
		p.fillDuration(bindings[i].TransitionOut)
	}

	snap := hotkey.NewSnapshot(bindings, settings.DefaultImage, settings.ShutdownCombo)

	p.mu.Lock()
	p.snap = snap
	p.settings = settings
	callbacks := slices.Clone(p.onReload)
	p.mu.Unlock()

	slog.Info("[config] snapshot loaded", "bindings", len(snap.Bindings()), "default", settings.DefaultImage)
	for _, fn := range callbacks {
		fn(snap)
	}
	return snap, nil
}

func (p *Provider) fillDuration(t *hotkey.Transition) {
	if t == nil || t.Duration > 0 || !strings.HasSuffix(strings.ToLower(t.Image), ".gif") {
		return
	}
	d, err := p.duration(t.Image)
	if err != nil {
		slog.Warn("[config] could not read transition duration", "image", t.Image, "error", err)
		return
	}
	t.Duration = d
	if d > 0 {
		slog.Debug("[config] transition duration detected", "image", t.Image, "duration_ms", d)
	}
}
