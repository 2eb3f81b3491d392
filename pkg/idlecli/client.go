// Package idlecli is the Go client for the idleload daemon's JSON-RPC
// control socket.
package idlecli

import (
	"context"
	"fmt"
	"log"
	"net"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/warpdl/idleload/common"
)

// Endpoint says where the daemon listens. Zero values fall back to the
// environment and platform defaults.
type Endpoint struct {
	SocketPath string
	TCPPort    int
	ForceTCP   bool
}

func (e Endpoint) socketPath() string {
	if e.SocketPath != "" {
		return e.SocketPath
	}
	return common.SocketPath()
}

func (e Endpoint) tcpAddress() string {
	port := e.TCPPort
	if port == 0 {
		port = common.TCPPort()
	}
	return fmt.Sprintf("%s:%d", common.TCPHost, port)
}

func (e Endpoint) forceTCP() bool {
	return e.ForceTCP || common.ForceTCP()
}

// Options configure a Client.
type Options struct {
	Endpoint Endpoint
	// OnNotify receives daemon push notifications. It runs on the client's
	// reader goroutine and must not block.
	OnNotify func(*jrpc2.Request)
}

// Client is a connection to the daemon.
type Client struct {
	conn net.Conn
	rpc  *jrpc2.Client
}

// dialFunc is replaced in tests.
var dialFunc = func(network, addr string) (net.Conn, error) {
	return net.DialTimeout(network, addr, common.DefaultDialTimeout)
}

// NewClient connects to the daemon.
func NewClient(opts Options) (*Client, error) {
	conn, err := dial(opts.Endpoint)
	if err != nil {
		return nil, err
	}
	return NewClientConn(conn, opts), nil
}

// NewClientConn wraps an established connection.
func NewClientConn(conn net.Conn, opts Options) *Client {
	var copts *jrpc2.ClientOptions
	if opts.OnNotify != nil {
		copts = &jrpc2.ClientOptions{OnNotify: opts.OnNotify}
	}
	return &Client{
		conn: conn,
		rpc:  jrpc2.NewClient(channel.Line(conn, conn), copts),
	}
}

// Close disconnects from the daemon.
func (c *Client) Close() error {
	return c.rpc.Close()
}

func (c *Client) call(ctx context.Context, method string, params, result any) error {
	if err := c.rpc.CallResult(ctx, method, params, result); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func debugLog(format string, args ...any) {
	if common.DebugMode() {
		log.Printf(format, args...)
	}
}
