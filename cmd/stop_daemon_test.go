//go:build !windows

package cmd

import (
	"os"
	"os/exec"
	"testing"
	"time"
)

func TestWaitForExitTimesOutOnLiveProcess(t *testing.T) {
	start := time.Now()
	if waitForExit(os.Getpid(), 150*time.Millisecond) {
		t.Fatal("expected the test process to still be running")
	}
	if time.Since(start) < 150*time.Millisecond {
		t.Error("returned before the timeout")
	}
}

func TestWaitForExitReturnsOnceGone(t *testing.T) {
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Skipf("cannot run true: %v", err)
	}
	if !waitForExit(cmd.Process.Pid, time.Second) {
		t.Error("expected an exited process to be reported gone")
	}
}

func TestKillDaemonStopsProcess(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start sleep: %v", err)
	}
	done := make(chan struct{})
	go func() {
		cmd.Wait()
		close(done)
	}()
	if err := killDaemon(cmd.Process.Pid); err != nil {
		t.Fatalf("killDaemon: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("process still running after killDaemon")
	}
}
