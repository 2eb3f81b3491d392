package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/spf13/afero"
	"github.com/warpdl/idleload/common"
	"github.com/warpdl/idleload/internal/config"
	"github.com/warpdl/idleload/internal/depcache"
	"github.com/warpdl/idleload/internal/extl"
	"github.com/warpdl/idleload/internal/host"
	"github.com/warpdl/idleload/internal/prewarm"
	"github.com/warpdl/idleload/internal/scheduler"
	"github.com/warpdl/idleload/internal/server"
	"github.com/warpdl/idleload/pkg/logger"
)

// DaemonComponents holds the initialized daemon components.
type DaemonComponents struct {
	Config    config.Config
	Cache     *depcache.Cache
	Host      *extl.Host
	Loop      *host.Loop
	Scheduler *scheduler.Scheduler
	Server    *server.Server

	clock    clock.Clock
	log      logger.Logger
	stopLoop context.CancelFunc
}

// initDaemonComponents builds every component from cfg. Nothing runs until
// Start. On error, partially initialized components are released.
var initDaemonComponents = func(cfg config.Config, log logger.Logger, fsys afero.Fs, clk clock.Clock) (*DaemonComponents, error) {
	store, err := depcache.OpenStore(cfg.Idle.CacheFile, log)
	if err != nil {
		log.Error("Dependency cache initialization failed: %v", err)
		return nil, err
	}
	cache := depcache.New(store, log)

	h, err := extl.NewHost(log, fsys, cfg.Features.Dir)
	if err != nil {
		log.Error("Feature host initialization failed: %v", err)
		_ = cache.Close()
		return nil, err
	}

	c := &DaemonComponents{
		Config: cfg,
		Cache:  cache,
		Host:   h,
		Loop:   host.New(clk),
		clock:  clk,
		log:    log,
	}
	c.Scheduler = scheduler.New(cache, h, host.Idle{Loop: c.Loop}, scheduler.Options{
		Delay:       cfg.Idle.QueueDelay.D(),
		MaxDuration: cfg.Idle.ActionMaxDuration.D(),
		Clock:       clk,
		Logger:      log,
		Hooks: scheduler.Hooks{
			FeatureLoaded: c.publishFeatureLoaded,
			CacheFlushed:  c.publishCacheFlushed,
		},
	})
	// Feature code runs on the loop, so it can call the scheduler directly.
	if err := h.BindIdleRequire(c.Scheduler.IdleRequire); err != nil {
		log.Error("Binding idle.require failed: %v", err)
		_ = cache.Close()
		return nil, err
	}

	c.Server = server.New(log, &server.Engine{
		Loop:      c.Loop,
		Scheduler: c.Scheduler,
		Cache:     cache,
		Host:      h,
		CachePath: cfg.Idle.CacheFile,
	}, server.Options{
		SocketPath: cfg.RPC.Socket,
		TCPPort:    cfg.RPC.TCPPort,
		ForceTCP:   cfg.RPC.ForceTCP,
		HTTPListen: cfg.RPC.HTTPListen,
		Secret:     cfg.RPC.Secret,
	}, common.VersionResult{
		Version:   currentBuildArgs.Version,
		Commit:    currentBuildArgs.Commit,
		BuildType: currentBuildArgs.BuildType,
	})
	return c, nil
}

func (c *DaemonComponents) publishFeatureLoaded(a scheduler.Action, res scheduler.LoadResult) {
	loaded := make([]string, len(res.Loaded))
	for i, f := range res.Loaded {
		loaded[i] = string(f)
	}
	c.Server.Notifier().Publish(common.NotifyFeatureLoaded, common.FeatureLoadedNotification{
		Feature: string(a.Feature),
		Kind:    a.Kind.String(),
		Loaded:  loaded,
	})
}

func (c *DaemonComponents) publishCacheFlushed() {
	c.Server.Notifier().Publish(common.NotifyCacheFlushed, common.CacheFlushedNotification{
		Entries: c.Cache.Len(),
	})
}

// Start runs the loop, queues prewarm entries and serves the control
// socket until ctx is cancelled. The loop keeps running until Close so the
// cache can still be flushed on it.
func (c *DaemonComponents) Start(ctx context.Context) error {
	loopCtx, stop := context.WithCancel(context.Background())
	c.stopLoop = stop
	go func() {
		if err := c.Loop.Run(loopCtx); err != nil && !errors.Is(err, context.Canceled) {
			c.log.Error("Event loop stopped: %v", err)
		}
	}()

	if len(c.Config.Prewarm) > 0 {
		if _, err := prewarm.New(ctx, c.clock, c.Config.Prewarm, c.requirePrewarm); err != nil {
			return err
		}
	}
	return c.Server.Start(ctx)
}

// requirePrewarm queues e on the loop. It returns false, ending later
// occurrences of e, when the feature is not in the feature directory.
func (c *DaemonComponents) requirePrewarm(e prewarm.Entry) bool {
	keep := true
	err := c.Loop.Do(context.Background(), func() error {
		f := scheduler.Feature(e.Feature)
		ok, err := c.Host.Has(f)
		if err != nil && !errors.Is(err, extl.ErrInvalidFeatureName) {
			return err
		}
		if !ok {
			keep = false
			return fmt.Errorf("%w: %s", extl.ErrFeatureNotFound, e.Feature)
		}
		return c.Scheduler.IdleRequire(f, e.Order)
	})
	switch {
	case err == nil:
		c.log.Debug("Prewarm queued %s at order %v", e.Feature, e.Order)
	case errors.Is(err, host.ErrLoopClosed), errors.Is(err, scheduler.ErrClosed):
		c.log.Debug("Prewarm %s dropped: %v", e.Feature, err)
	case !keep:
		c.log.Warning("Prewarm %s disabled: %v", e.Feature, err)
	default:
		c.log.Warning("Prewarm %s: %v", e.Feature, err)
	}
	return keep
}

// Close stops the components in reverse order of initialization. A dirty
// dependency cache is written before the store is released.
func (c *DaemonComponents) Close() {
	c.log.Info("Shutting down daemon...")
	if err := c.Server.Shutdown(); err != nil {
		c.log.Error("Server shutdown: %v", err)
	}
	if c.stopLoop != nil {
		if err := c.Loop.Do(context.Background(), c.Scheduler.Close); err != nil {
			c.log.Error("Flushing dependency cache: %v", err)
		}
		c.stopLoop()
		<-c.Loop.Done()
	} else if err := c.Scheduler.Close(); err != nil {
		c.log.Error("Flushing dependency cache: %v", err)
	}
	if err := c.Cache.Close(); err != nil {
		c.log.Error("Closing dependency cache: %v", err)
	}
	c.log.Info("Daemon stopped")
}
