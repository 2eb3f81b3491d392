package server

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	cws "github.com/coder/websocket"
	"github.com/warpdl/idleload/pkg/logger"
)

// handler returns the HTTP routes: /jsonrpc (request/response bridge) and
// /jsonrpc/ws (bidirectional, with push notifications). Both require the
// Bearer token.
func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/jsonrpc", requireToken(s.opts.Secret, s.rpc.bridge))
	mux.Handle("/jsonrpc/ws", requireToken(s.opts.Secret, http.HandlerFunc(s.serveWS)))
	return mux
}

func (s *Server) startHTTP() error {
	ln, err := net.Listen("tcp", s.opts.HTTPListen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.HTTPListen, err)
	}
	srv := &http.Server{
		Handler:           s.handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logger.ToStdLogger(s.log),
	}
	s.mu.Lock()
	s.http = srv
	s.mu.Unlock()
	s.log.Info("HTTP JSON-RPC listening on %s", ln.Addr())
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("HTTP server: %v", err)
		}
	}()
	return nil
}

// serveWS upgrades the request and runs a jrpc2 server over the socket
// until the client goes away.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := cws.Accept(w, r, nil)
	if err != nil {
		s.log.Warning("websocket accept: %v", err)
		return
	}
	ch := newWSChannel(r.Context(), conn)
	srv := s.newJRPCServer().Start(ch)
	s.notifier.Register(srv)
	defer s.notifier.Unregister(srv)
	if err := srv.Wait(); err != nil && !isDisconnect(err) {
		s.log.Debug("websocket closed: %v", err)
	}
}

// requireToken wraps next with Bearer token authentication. Failures get a
// JSON-RPC error body. An empty secret rejects everything.
func requireToken(secret string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !validToken(secret, r.Header.Get("Authorization")) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0",
				"error":   map[string]any{"code": -32600, "message": "Unauthorized"},
				"id":      nil,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func validToken(secret, authHeader string) bool {
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if secret == "" || !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}
