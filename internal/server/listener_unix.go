//go:build !windows

package server

import (
	"fmt"
	"net"
	"os"

	"github.com/warpdl/idleload/common"
)

// createListener creates a Unix socket listener with TCP fallback.
// Transport priority: Unix socket > TCP
func (s *Server) createListener() (net.Listener, error) {
	if s.opts.ForceTCP {
		s.log.Info("Force TCP mode enabled, using TCP listener")
		return s.listenTCP()
	}
	path := s.socketPath()
	_ = os.Remove(path)
	l, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		s.log.Warning("Unix socket %s unavailable: %v; trying TCP", path, err)
		return s.listenTCP()
	}
	_ = os.Chmod(path, 0o700)
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
	return common.SocketPath()
}

// cleanupSocket removes the Unix socket file, ignoring a missing file.
func (s *Server) cleanupSocket() error {
	if s.opts.ForceTCP {
		return nil
	}
	if err := os.Remove(s.socketPath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
