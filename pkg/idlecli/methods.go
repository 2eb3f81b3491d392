package idlecli

import (
	"context"

	"github.com/warpdl/idleload/common"
)

// GetDaemonVersion returns the daemon's build information.
func (c *Client) GetDaemonVersion(ctx context.Context) (*common.VersionResult, error) {
	var res common.VersionResult
	if err := c.call(ctx, common.MethodGetVersion, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Require asks the daemon to load feature during a later idle period.
// Lower orders run first.
func (c *Client) Require(ctx context.Context, feature string, order float64) error {
	return c.call(ctx, common.MethodIdleRequire, &common.RequireParams{Feature: feature, Order: order}, &common.EmptyResult{})
}

// Status returns the scheduler queue, counters and cache state.
func (c *Client) Status(ctx context.Context) (*common.StatusResult, error) {
	var res common.StatusResult
	if err := c.call(ctx, common.MethodIdleStatus, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) CacheList(ctx context.Context) ([]common.CacheEntry, error) {
	var res common.CacheListResult
	if err := c.call(ctx, common.MethodCacheList, nil, &res); err != nil {
		return nil, err
	}
	return res.Entries, nil
}

// CacheForget drops the learned load order of feature. It reports whether
// an entry existed.
func (c *Client) CacheForget(ctx context.Context, feature string) (bool, error) {
	var res common.ForgetResult
	if err := c.call(ctx, common.MethodCacheForget, &common.FeatureParams{Feature: feature}, &res); err != nil {
		return false, err
	}
	return res.Removed, nil
}

func (c *Client) CacheClear(ctx context.Context) error {
	return c.call(ctx, common.MethodCacheClear, nil, &common.EmptyResult{})
}

// CacheFlush writes the daemon's dependency cache now instead of at the
// next idle period.
func (c *Client) CacheFlush(ctx context.Context) error {
	return c.call(ctx, common.MethodCacheFlush, nil, &common.EmptyResult{})
}
