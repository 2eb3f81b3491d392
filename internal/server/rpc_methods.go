package server

import (
	"context"
	"sort"

	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/warpdl/idleload/common"
	"github.com/warpdl/idleload/internal/depcache"
	"github.com/warpdl/idleload/internal/extl"
	"github.com/warpdl/idleload/internal/host"
	"github.com/warpdl/idleload/internal/scheduler"
)

// Engine is the daemon state the RPC methods act on. Scheduler, Cache and
// Host belong to Loop and are only touched through Loop.Do.
type Engine struct {
	Loop      *host.Loop
	Scheduler *scheduler.Scheduler
	Cache     *depcache.Cache
	// Host is optional; without it feature names are not pre-validated
	// and status omits resident features.
	Host      *extl.Host
	CachePath string
}

// RPCServer holds the method table and the HTTP bridge over it.
type RPCServer struct {
	engine  *Engine
	version common.VersionResult
	methods handler.Map
	bridge  jhttp.Bridge
}

// NewRPCServer creates the method handlers and HTTP bridge.
func NewRPCServer(e *Engine, version common.VersionResult) *RPCServer {
	rs := &RPCServer{engine: e, version: version}
	rs.methods = handler.Map{
		common.MethodGetVersion:  handler.New(rs.systemGetVersion),
		common.MethodIdleRequire: handler.New(rs.idleRequire),
		common.MethodIdleStatus:  handler.New(rs.idleStatus),
		common.MethodCacheList:   handler.New(rs.cacheList),
		common.MethodCacheForget: handler.New(rs.cacheForget),
		common.MethodCacheClear:  handler.New(rs.cacheClear),
		common.MethodCacheFlush:  handler.New(rs.cacheFlush),
	}
	rs.bridge = jhttp.NewBridge(rs.methods, nil)
	return rs
}

// Methods returns the method table.
func (rs *RPCServer) Methods() handler.Map {
	return rs.methods
}

// do runs fn on the engine's loop and maps the error for the wire.
func (rs *RPCServer) do(ctx context.Context, fn func() error) error {
	return rpcError(rs.engine.Loop.Do(ctx, fn))
}

func (rs *RPCServer) systemGetVersion(_ context.Context) (*common.VersionResult, error) {
	v := rs.version
	return &v, nil
}

// idleRequire queues a feature for loading during a later idle period.
func (rs *RPCServer) idleRequire(ctx context.Context, p *common.RequireParams) (*common.EmptyResult, error) {
	if rs.engine.Host != nil && p.Feature != "" {
		if err := extl.ValidateName(p.Feature); err != nil {
			return nil, rpcError(err)
		}
	}
	err := rs.do(ctx, func() error {
		return rs.engine.Scheduler.IdleRequire(scheduler.Feature(p.Feature), p.Order)
	})
	if err != nil {
		return nil, err
	}
	return &common.EmptyResult{}, nil
}

func (rs *RPCServer) idleStatus(ctx context.Context) (*common.StatusResult, error) {
	var res common.StatusResult
	err := rs.do(ctx, func() error {
		st := rs.engine.Scheduler.Status()
		res.Armed = st.Armed
		res.Draining = st.Draining
		res.Stats = common.SchedulerStats{
			Drains:      st.Stats.Drains,
			Actions:     st.Stats.Actions,
			Expansions:  st.Stats.Expansions,
			Fallbacks:   st.Stats.Fallbacks,
			Flushes:     st.Stats.Flushes,
			LastDrainUS: st.Stats.LastDrain.Microseconds(),
		}
		pending := rs.engine.Scheduler.Pending()
		res.Pending = make([]common.PendingAction, len(pending))
		for i, e := range pending {
			res.Pending[i] = common.PendingAction{
				Order:   e.Order,
				Kind:    e.Action.Kind.String(),
				Feature: string(e.Action.Feature),
			}
		}
		c := rs.engine.Cache
		res.Cache = common.CacheStatus{
			Path:    rs.engine.CachePath,
			Loaded:  c.Loaded(),
			Dirty:   c.Dirty(),
			Entries: c.Len(),
		}
		if h := rs.engine.Host; h != nil {
			res.Resident = h.ResidentFeatures()
			avail, err := h.Available()
			if err != nil {
				return err
			}
			res.Available = avail
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (rs *RPCServer) cacheList(ctx context.Context) (*common.CacheListResult, error) {
	res := &common.CacheListResult{Entries: []common.CacheEntry{}}
	err := rs.do(ctx, func() error {
		c := rs.engine.Cache
		c.EnsureLoaded()
		for f, deps := range c.Entries() {
			res.Entries = append(res.Entries, common.CacheEntry{Feature: f, Dependencies: deps})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(res.Entries, func(i, j int) bool { return res.Entries[i].Feature < res.Entries[j].Feature })
	return res, nil
}

// cacheForget drops one learned order. The change is written at the next
// idle flush.
func (rs *RPCServer) cacheForget(ctx context.Context, p *common.FeatureParams) (*common.ForgetResult, error) {
	var removed bool
	err := rs.do(ctx, func() error {
		removed = rs.engine.Cache.Forget(p.Feature)
		rs.engine.Scheduler.Wake()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &common.ForgetResult{Removed: removed}, nil
}

func (rs *RPCServer) cacheClear(ctx context.Context) (*common.EmptyResult, error) {
	err := rs.do(ctx, func() error {
		rs.engine.Cache.Reset()
		rs.engine.Scheduler.Wake()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &common.EmptyResult{}, nil
}

// cacheFlush writes the dependency cache immediately if it is dirty.
func (rs *RPCServer) cacheFlush(ctx context.Context) (*common.EmptyResult, error) {
	err := rs.do(ctx, func() error {
		if err := rs.engine.Scheduler.FlushCache(); err != nil {
			return errCacheWrite{err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &common.EmptyResult{}, nil
}

// Close shuts down the jrpc2 bridge, releasing internal goroutines.
func (rs *RPCServer) Close() {
	rs.bridge.Close()
}
