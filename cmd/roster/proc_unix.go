//go:build !windows

package main

import (
	"os/exec"
	"syscall"
)

func configureBackendProc(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
