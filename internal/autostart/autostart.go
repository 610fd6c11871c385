// Package autostart registers keybrame to start on login.
package autostart

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	appName = "keybrame"
	label   = "com.keybrame.overlay"
)

// Enable starts the current executable with args on login
func Enable(args ...string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return enable(exe, args)
}

// Disable removes the login entry. Missing entries are not an error.
func Disable() error {
	return disable()
}

// IsEnabled reports whether a login entry exists
func IsEnabled() bool {
	return isEnabled()
}

// Set enables or disables the login entry
func Set(on bool, args ...string) error {
	if on {
		return Enable(args...)
	}
	return Disable()
}
