//go:build windows

package main

import (
	"os/exec"
	"syscall"
)

// DETACHED_PROCESS, not exported by package syscall
const detachedProcess = 0x00000008

// detach starts the server without a console so it outlives the terminal
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | detachedProcess,
	}
}
