package common

import (
	"os"
	"strconv"
	"time"
)

const (
	// TCPHost is the loopback host used for the TCP fallback transport.
	TCPHost = "localhost"

	// DefaultTCPPort is used when IDLELOAD_TCP_PORT is unset or invalid.
	DefaultTCPPort = 3851

	// DefaultDialTimeout bounds connection attempts to the daemon.
	DefaultDialTimeout = 2 * time.Second
)

// TCPPort returns the TCP port from the environment, or DefaultTCPPort.
func TCPPort() int {
	if port := os.Getenv(TCPPortEnv); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p >= 1 && p <= 65535 {
			return p
		}
	}
	return DefaultTCPPort
}

// ForceTCP reports whether IDLELOAD_FORCE_TCP=1.
func ForceTCP() bool {
	return os.Getenv(ForceTCPEnv) == "1"
}

// DebugMode reports whether IDLELOAD_DEBUG=1.
func DebugMode() bool {
	return os.Getenv(DebugEnv) == "1"
}
