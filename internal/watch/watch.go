// Package watch reloads bindings when files in the assets directory change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"keybrame/internal/media"
)

// DefaultDebounce coalesces bursts such as an editor saving through a temp file.
const DefaultDebounce = 300 * time.Millisecond

// Watcher reports changed image files in one directory after a quiet period.
type Watcher struct {
	fsw      *fsnotify.Watcher
	dir      string
	debounce time.Duration
	onChange func(files []string)

	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer
}

// New watches dir. onChange receives the base names of the image files that
// changed since the last call.
func New(dir string, debounce time.Duration, onChange func(files []string)) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{
		fsw:      fsw,
		dir:      dir,
		debounce: debounce,
		onChange: onChange,
		pending:  make(map[string]bool),
	}, nil
}

// Run processes events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	defer w.stopTimer()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !relevant(ev) {
				continue
			}
			slog.Debug("[watch] asset changed", "file", ev.Name, "op", ev.Op.String())
			w.schedule(filepath.Base(ev.Name))
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("[watch] watcher error", "dir", w.dir, "error", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) schedule(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[name] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	files := make([]string, 0, len(w.pending))
	for name := range w.pending {
		files = append(files, name)
	}
	w.pending = make(map[string]bool)
	w.timer = nil
	w.mu.Unlock()

	if len(files) == 0 {
		return
	}
	sort.Strings(files)
	w.onChange(files)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// relevant drops chmod-only events, hidden files and non-images.
func relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	return media.IsImage(base)
}
