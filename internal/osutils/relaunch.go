package osutils

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Relaunch starts a detached copy of the running executable with args.
// The caller must have released the instance lock and the listener first.
func Relaunch(args []string) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to get executable path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	cmd := relaunchCommand(exe, args)
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("relaunch %s: %w", exe, err)
	}
	pid := cmd.Process.Pid
	cmd.Process.Release()
	return pid, nil
}

func relaunchCommand(exe string, args []string) *exec.Cmd {
	cmd := exec.Command(exe, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}
