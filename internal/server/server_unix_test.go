//go:build !windows

package server

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/warpdl/idleload/common"
)

func startTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	e, _, _ := newTestEngine(t, nil)
	s := New(nil, e, opts, testVersion)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-errCh:
		case <-time.After(2 * time.Second):
			t.Error("Start did not return after cancel")
		}
	})
	deadline := time.Now().Add(2 * time.Second)
	for s.Addr() == nil {
		if time.Now().After(deadline) {
			t.Fatal("server did not start listening")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return s
}

func dialClient(t *testing.T, network, addr string) *jrpc2.Client {
	t.Helper()
	conn, err := net.Dial(network, addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	cli := jrpc2.NewClient(channel.Line(conn, conn), nil)
	t.Cleanup(func() { cli.Close() })
	return cli
}

func TestServerUnixSocket(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "idleload.sock")
	startTestServer(t, Options{SocketPath: sock})

	info, err := os.Stat(sock)
	if err != nil {
		t.Fatalf("socket not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o700 {
		t.Errorf("expected socket mode 0700, got %o", perm)
	}

	cli := dialClient(t, "unix", sock)
	var v common.VersionResult
	if err := cli.CallResult(context.Background(), common.MethodGetVersion, nil, &v); err != nil {
		t.Fatalf("CallResult: %v", err)
	}
	if v.Version != "1.0.0" {
		t.Errorf("unexpected version %+v", v)
	}
}

func TestServerForceTCP(t *testing.T) {
	s := startTestServer(t, Options{ForceTCP: true, TCPPort: 0})
	if s.Addr().Network() != "tcp" {
		t.Fatalf("expected tcp listener, got %s", s.Addr().Network())
	}
	cli := dialClient(t, "tcp", s.Addr().String())
	var st common.StatusResult
	if err := cli.CallResult(context.Background(), common.MethodIdleStatus, nil, &st); err != nil {
		t.Fatalf("CallResult: %v", err)
	}
	if len(st.Pending) != 0 || st.Armed {
		t.Errorf("expected idle scheduler, got %+v", st)
	}
}

func TestServerShutdownRemovesSocket(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "idleload.sock")
	s := startTestServer(t, Options{SocketPath: sock})
	if err := s.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if _, err := os.Stat(sock); !os.IsNotExist(err) {
		t.Errorf("expected socket removed, got %v", err)
	}
	if s.Addr() != nil {
		t.Error("expected nil address after shutdown")
	}
}
