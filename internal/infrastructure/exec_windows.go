//go:build windows

package infrastructure

import "os/exec"

// killProcessGroup kills only the direct child on Windows; WaitDelay still
// bounds how long Run waits on pipes held by grandchildren
func killProcessGroup(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		return cmd.Process.Kill()
	}
}
