//go:build windows

package cmd

import "os"

// requestStop interrupts p. Windows cannot deliver os.Interrupt to another
// process; p is then killed right away and its cache is not flushed.
func requestStop(p *os.Process) error {
	if err := p.Signal(os.Interrupt); err != nil {
		return p.Kill()
	}
	return nil
}
