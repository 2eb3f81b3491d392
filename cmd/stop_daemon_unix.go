//go:build !windows

package cmd

import (
	"os"
	"syscall"
)

func requestStop(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}
