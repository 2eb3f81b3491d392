//go:build !windows

package idlecli

import (
	"fmt"
	"net"
)

// dial connects over the Unix socket, falling back to TCP.
func dial(e Endpoint) (net.Conn, error) {
	if e.forceTCP() {
		return dialFunc("tcp", e.tcpAddress())
	}
	path := e.socketPath()
	debugLog("Attempting connection via Unix socket at %s", path)
	conn, unixErr := dialFunc("unix", path)
	if unixErr == nil {
		return conn, nil
	}
	debugLog("Unix socket connection failed: %v, falling back to TCP", unixErr)
	conn, err := dialFunc("tcp", e.tcpAddress())
	if err != nil {
		return nil, fmt.Errorf("failed to connect: unix socket error: %v; tcp error: %w", unixErr, err)
	}
	return conn, nil
}
