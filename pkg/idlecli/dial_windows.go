//go:build windows

package idlecli

import (
	"context"
	"fmt"
	"net"

	"github.com/Microsoft/go-winio"
	"github.com/warpdl/idleload/common"
)

var dialPipeFunc = func(path string) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), common.DefaultDialTimeout)
	defer cancel()
	return winio.DialPipeContext(ctx, path)
}

// dial connects over the named pipe, falling back to TCP.
func dial(e Endpoint) (net.Conn, error) {
	if e.forceTCP() {
		return dialFunc("tcp", e.tcpAddress())
	}
	path := e.socketPath()
	debugLog("Attempting connection via named pipe at %s", path)
	conn, pipeErr := dialPipeFunc(path)
	if pipeErr == nil {
		return conn, nil
	}
	debugLog("Named pipe connection failed: %v, falling back to TCP", pipeErr)
	conn, err := dialFunc("tcp", e.tcpAddress())
	if err != nil {
		return nil, fmt.Errorf("failed to connect: named pipe error: %v; tcp error: %w", pipeErr, err)
	}
	return conn, nil
}
