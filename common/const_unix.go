//go:build !windows

package common

import (
	"os"
	"path/filepath"
)

// DefaultSocketPath is the control socket location when IDLELOAD_SOCKET_PATH
// is unset.
func DefaultSocketPath() string {
	return filepath.Join(os.TempDir(), "idleload.sock")
}

// SocketPath returns the control socket path, honouring IDLELOAD_SOCKET_PATH.
func SocketPath() string {
	if path := os.Getenv(SocketPathEnv); path != "" {
		return path
	}
	return DefaultSocketPath()
}
