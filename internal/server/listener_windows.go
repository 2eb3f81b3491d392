//go:build windows

package server

import (
	"fmt"
	"net"

	"github.com/Microsoft/go-winio"
	"github.com/warpdl/idleload/common"
)

// pipeSecurityDescriptor restricts pipe access to SYSTEM, Administrators
// and the creator owner.
const pipeSecurityDescriptor = "D:(A;;GA;;;SY)(A;;GA;;;BA)(A;;GA;;;CO)"

// createListener creates a named pipe listener with TCP fallback.
// Transport priority: Named pipe > TCP
func (s *Server) createListener() (net.Listener, error) {
	if s.opts.ForceTCP {
		s.log.Info("Force TCP mode enabled, using TCP listener")
		return s.listenTCP()
	}
	l, err := winio.ListenPipe(s.socketPath(), &winio.PipeConfig{
		SecurityDescriptor: pipeSecurityDescriptor,
		InputBufferSize:    64 * 1024,
		OutputBufferSize:   64 * 1024,
	})
	if err != nil {
		s.log.Warning("Named pipe creation failed: %v; falling back to TCP", err)
		return s.listenTCP()
	}
	return l, nil
}

func (s *Server) listenTCP() (net.Listener, error) {
	l, err := net.Listen("tcp", fmt.Sprintf("%s:%d", common.TCPHost, s.opts.TCPPort))
	if err != nil {
		return nil, fmt.Errorf("error listening: %w", err)
	}
	return l, nil
}

func (s *Server) socketPath() string {
	if s.opts.SocketPath != "" {
		return s.opts.SocketPath
	}
	return common.PipePath()
}

// cleanupSocket is a no-op: the OS removes a pipe with its last handle.
func (s *Server) cleanupSocket() error {
	return nil
}
