//go:build !windows

package osutils

import "log/slog"

// IsAdmin is a stub for non-Windows platforms
func IsAdmin() bool {
	return false
}

// EnsureFirewallRule is a stub for non-Windows platforms
func EnsureFirewallRule(port int) error {
	slog.Debug("[osutils] firewall rules are only managed on Windows", "port", port)
	return nil
}
