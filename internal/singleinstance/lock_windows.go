//go:build windows

package singleinstance

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sys/windows"
)

// Lock holds a named mutex handle. The kernel releases the mutex when the
// owning process terminates.
type Lock struct {
	handle windows.Handle
}

// TryLock acquires a session-wide mutex derived from dir and name.
// Returns ErrAlreadyRunning if another process holds it.
func TryLock(dir, name string) (*Lock, error) {
	if name == "" {
		return nil, errors.New("lock name is required")
	}
	mutex := mutexName(dir, name)
	ptr, err := windows.UTF16PtrFromString(mutex)
	if err != nil {
		return nil, fmt.Errorf("invalid mutex name %q: %w", mutex, err)
	}
	h, err := windows.CreateMutex(nil, true, ptr)
	if err == windows.ERROR_ALREADY_EXISTS {
		if h != 0 {
			windows.CloseHandle(h)
		}
		return nil, ErrAlreadyRunning
	}
	if err != nil {
		if h != 0 {
			windows.CloseHandle(h)
		}
		return nil, fmt.Errorf("CreateMutex %q: %w", mutex, err)
	}
	return &Lock{handle: h}, nil
}

// Release closes the mutex handle. Safe on a nil receiver and idempotent.
func (l *Lock) Release() error {
	if l == nil || l.handle == 0 {
		return nil
	}
	err := windows.CloseHandle(l.handle)
	l.handle = 0
	return err
}

// mutexName maps the data directory into the Local namespace. Backslashes
// are not allowed after the namespace prefix.
func mutexName(dir, name string) string {
	clean := strings.ToLower(filepath.Clean(dir))
	clean = strings.NewReplacer(`\`, "_", "/", "_", ":", "_").Replace(clean)
	return `Local\` + name + "-" + clean
}
