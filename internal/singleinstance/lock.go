// Package singleinstance keeps a second keybrame from binding the same
// data directory.
package singleinstance

import "errors"

// ErrAlreadyRunning is returned by TryLock when another instance holds the lock.
var ErrAlreadyRunning = errors.New("another instance is already running")
