//go:build windows

package osutils

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/windows"
)

// IsAdmin checks if the current process has administrative privileges
func IsAdmin() bool {
	var token windows.Token
	h, _ := windows.GetCurrentProcess()
	err := windows.OpenProcessToken(h, windows.TOKEN_QUERY, &token)
	if err != nil {
		return false
	}
	defer token.Close()

	var sid *windows.SID
	err = windows.AllocateAndInitializeSid(
		&windows.SECURITY_NT_AUTHORITY,
		2,
		windows.SECURITY_BUILTIN_DOMAIN_RID,
		windows.DOMAIN_ALIAS_RID_ADMINS,
		0, 0, 0, 0, 0, 0,
		&sid,
	)
	if err != nil {
		return false
	}
	defer windows.FreeSid(sid)

	member, err := token.IsMember(sid)
	if err != nil {
		return false
	}
	return member
}

// EnsureFirewallRule makes sure an inbound rule allows port, so a browser
// source on another machine can load the overlay. Without elevation it asks
// for it through UAC.
func EnsureFirewallRule(port int) error {
	out, err := exec.Command("netsh", "advfirewall", "firewall", "show", "rule", "name="+RuleName).CombinedOutput()
	if err == nil && strings.Contains(string(out), RuleName) &&
		strings.Contains(string(out), strconv.Itoa(port)) && strings.Contains(string(out), "Allow") {
		slog.Debug("[osutils] firewall rule present", "rule", RuleName, "port", port)
		return nil
	}

	script := firewallCommand(port)
	if IsAdmin() {
		cmd := exec.Command("powershell", "-NoProfile", "-Command", script)
		if output, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("failed to create firewall rule: %w (output: %s)", err, output)
		}
		slog.Info("[osutils] firewall rule created", "rule", RuleName, "port", port)
		return nil
	}

	verb, _ := syscall.UTF16PtrFromString("runas")
	exe, _ := syscall.UTF16PtrFromString("powershell.exe")
	args, _ := syscall.UTF16PtrFromString(fmt.Sprintf("-NoProfile -WindowStyle Hidden -Command \"%s\"", script))
	if err := windows.ShellExecute(0, verb, exe, args, nil, windows.SW_HIDE); err != nil {
		return fmt.Errorf("failed to launch elevated powershell: %w", err)
	}
	slog.Info("[osutils] requested elevation to create firewall rule", "rule", RuleName, "port", port)
	return nil
}
