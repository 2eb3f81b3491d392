package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli"
)

const (
	stopTimeout  = 5 * time.Second
	pollInterval = 100 * time.Millisecond
)

func stopDaemon(ctx *cli.Context) error {
	pid, err := ReadPidFile()
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("Daemon is not running (PID file not found)")
			return nil
		}
		fmt.Fprintf(os.Stderr, "Error reading PID file: %v\n", err)
		return nil
	}
	if !isProcessRunning(pid) {
		fmt.Printf("Daemon is not running (stale PID %d)\n", pid)
		_ = RemovePidFile()
		return nil
	}

	fmt.Printf("Stopping daemon (PID %d)...\n", pid)
	if err := killDaemon(pid); err != nil {
		fmt.Fprintf(os.Stderr, "Error stopping daemon: %v\n", err)
		return nil
	}
	fmt.Println("Daemon stopped successfully")
	return nil
}

// killDaemon asks the daemon to exit so it can write its dependency cache,
// and kills it if it is still alive after stopTimeout.
func killDaemon(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process %d: %w", pid, err)
	}
	if err := requestStop(p); err != nil {
		return fmt.Errorf("stop process %d: %w", pid, err)
	}
	if waitForExit(pid, stopTimeout) {
		return nil
	}
	fmt.Println("Daemon did not exit in time, killing it")
	if err := p.Kill(); err != nil {
		return fmt.Errorf("kill process %d: %w", pid, err)
	}
	return nil
}

// waitForExit polls until pid is gone or timeout passes.
func waitForExit(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for isProcessRunning(pid) {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(pollInterval)
	}
	return true
}
