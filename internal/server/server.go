// Package server exposes the idle scheduler over JSON-RPC 2.0: line-framed
// on a Unix socket (named pipe on Windows) with TCP fallback, and optionally
// over HTTP and WebSocket behind a Bearer token.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/creachadair/jrpc2/handler"
	"github.com/warpdl/idleload/common"
	"github.com/warpdl/idleload/pkg/logger"
)

// Options configure a Server.
type Options struct {
	// SocketPath is the Unix socket path or Windows pipe path.
	SocketPath string
	// TCPPort is the loopback port used when the socket cannot be created
	// or ForceTCP is set.
	TCPPort  int
	ForceTCP bool
	// HTTPListen enables the HTTP endpoints when non-empty.
	HTTPListen string
	// Secret is the Bearer token required by the HTTP endpoints.
	Secret string
}

// Server accepts control connections and serves the RPC methods on each.
type Server struct {
	log      logger.Logger
	opts     Options
	methods  handler.Map
	rpc      *RPCServer
	notifier *Notifier

	mu       sync.Mutex
	listener net.Listener
	http     *http.Server
	conns    map[*jrpc2.Server]struct{}
}

// New creates a Server for the given engine. Call Start to begin serving.
func New(l logger.Logger, e *Engine, opts Options, version common.VersionResult) *Server {
	if l == nil {
		l = logger.NewNopLogger()
	}
	rpc := NewRPCServer(e, version)
	return &Server{
		log:      l,
		opts:     opts,
		methods:  rpc.Methods(),
		rpc:      rpc,
		notifier: NewNotifier(l),
		conns:    make(map[*jrpc2.Server]struct{}),
	}
}

// Notifier returns the broadcaster for push notifications.
func (s *Server) Notifier() *Notifier {
	return s.notifier
}

func (s *Server) newJRPCServer() *jrpc2.Server {
	return jrpc2.NewServer(s.methods, &jrpc2.ServerOptions{
		AllowPush: true,
		Logger: func(text string) {
			s.log.Debug("jrpc2: %s", text)
		},
	})
}

// Start listens on the control socket (and HTTP when configured) and
// serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	l, err := s.createListener()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
	s.log.Info("Listening on %s", l.Addr())

	go s.notifier.Run(ctx)

	if s.opts.HTTPListen != "" {
		if err := s.startHTTP(); err != nil {
			l.Close()
			return err
		}
	}

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Error("Error accepting: %v", err)
			continue
		}
		s.serveConn(conn)
	}
}

// serveConn runs a jrpc2 server over a line-framed connection. The server
// is registered for push notifications until the client disconnects.
func (s *Server) serveConn(conn net.Conn) {
	srv := s.newJRPCServer().Start(channel.Line(conn, conn))
	s.mu.Lock()
	s.conns[srv] = struct{}{}
	s.mu.Unlock()
	s.notifier.Register(srv)
	go func() {
		if err := srv.Wait(); err != nil && !isDisconnect(err) {
			s.log.Debug("connection closed: %v", err)
		}
		s.notifier.Unregister(srv)
		s.mu.Lock()
		delete(s.conns, srv)
		s.mu.Unlock()
	}()
}

// Shutdown closes the listener, every open connection and the HTTP server,
// and removes the socket file.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			s.log.Error("Error closing listener: %v", err)
		}
		s.listener = nil
		if err := s.cleanupSocket(); err != nil {
			s.log.Error("Error removing socket file: %v", err)
		}
	}
	for srv := range s.conns {
		srv.Stop()
	}
	if s.http != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			s.log.Error("Error shutting down HTTP server: %v", err)
		}
		s.http = nil
	}
	s.rpc.Close()
	return nil
}

// Addr returns the control listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func isDisconnect(err error) bool {
	return errors.Is(err, jrpc2.ErrConnClosed) || errors.Is(err, net.ErrClosed) || channel.IsErrClosing(err)
}
