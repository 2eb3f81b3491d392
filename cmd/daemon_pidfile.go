package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/warpdl/idleload/internal/config"
)

const pidFileName = "daemon.pid"

// pidFilePath is replaced in tests.
var pidFilePath = func() string {
	return filepath.Join(config.Dir(), pidFileName)
}

// WritePidFile records the current process ID.
func WritePidFile() error {
	path := pidFilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func ReadPidFile() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %w", err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("invalid PID: %d", pid)
	}
	return pid, nil
}

// RemovePidFile deletes the PID file. A missing file is not an error.
func RemovePidFile() error {
	err := os.Remove(pidFilePath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
