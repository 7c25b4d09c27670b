//go:build windows

package main

import "os/exec"

func configureBackendProc(cmd *exec.Cmd) {
	// Windows doesn't use Setsid.
}
