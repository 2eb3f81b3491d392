package server

import (
	"context"
	"sync"

	"github.com/creachadair/jrpc2"
	"github.com/warpdl/idleload/pkg/logger"
)

const notifyQueueSize = 256

type notification struct {
	method string
	params any
}

// Notifier keeps the set of connected jrpc2 servers and pushes
// notifications to all of them. Publish never blocks, so it is safe to
// call from the event loop; a Run goroutine performs the sends.
type Notifier struct {
	mu      sync.RWMutex
	servers map[*jrpc2.Server]struct{}
	log     logger.Logger
	queue   chan notification
}

// NewNotifier creates a Notifier.
func NewNotifier(l logger.Logger) *Notifier {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Notifier{
		servers: make(map[*jrpc2.Server]struct{}),
		log:     l,
		queue:   make(chan notification, notifyQueueSize),
	}
}

// Register adds a server to the broadcast set.
func (n *Notifier) Register(srv *jrpc2.Server) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.servers[srv] = struct{}{}
}

// Unregister removes a server from the broadcast set.
func (n *Notifier) Unregister(srv *jrpc2.Server) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.servers, srv)
}

// Publish queues a notification for Run. It is dropped when the queue is
// full.
func (n *Notifier) Publish(method string, params any) {
	select {
	case n.queue <- notification{method, params}:
	default:
		n.log.Warning("notification queue full, dropping %s", method)
	}
}

// Run broadcasts queued notifications until ctx is done.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-n.queue:
			n.Broadcast(ctx, m.method, m.params)
		}
	}
}

// Broadcast sends a notification to all registered servers. Servers that
// fail to receive it are unregistered.
func (n *Notifier) Broadcast(ctx context.Context, method string, params any) {
	n.mu.RLock()
	servers := make([]*jrpc2.Server, 0, len(n.servers))
	for srv := range n.servers {
		servers = append(servers, srv)
	}
	n.mu.RUnlock()

	var failed []*jrpc2.Server
	for _, srv := range servers {
		if err := srv.Notify(ctx, method, params); err != nil {
			n.log.Debug("push %s failed: %v", method, err)
			failed = append(failed, srv)
		}
	}
	if len(failed) > 0 {
		n.mu.Lock()
		for _, srv := range failed {
			delete(n.servers, srv)
		}
		n.mu.Unlock()
	}
}

// Count returns the number of registered servers.
func (n *Notifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.servers)
}
