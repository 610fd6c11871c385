// Package osutils holds platform glue for exposing the overlay on the LAN.
package osutils

import (
	"fmt"
	"net"
	"strings"
)

// RuleName is the Windows firewall rule created for the overlay port
const RuleName = "keybrame overlay"

// IsLoopback reports whether bind only accepts local connections. Empty and
// wildcard addresses listen on every interface.
func IsLoopback(bind string) bool {
	bind = strings.Trim(strings.TrimSpace(bind), "[]")
	if strings.EqualFold(bind, "localhost") {
		return true
	}
	ip := net.ParseIP(bind)
	return ip != nil && ip.IsLoopback()
}

// firewallCommand is the PowerShell script that (re)creates the inbound
// rule for port
func firewallCommand(port int) string {
	return fmt.Sprintf(
		"Remove-NetFirewallRule -DisplayName '%s' -ErrorAction SilentlyContinue; "+
			"New-NetFirewallRule -DisplayName '%s' -Direction Inbound -LocalPort %d -Protocol TCP -Action Allow -Profile Private",
		RuleName, RuleName, port,
	)
}
