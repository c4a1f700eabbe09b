//go:build windows

package bridge

import "os/exec"

// setProcessGroup is a no-op on Windows; this binary is expected to run
// on the WSL side, but the package still builds everywhere.
func setProcessGroup(cmd *exec.Cmd) {}

// killProcessGroup kills the process directly on Windows.
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
