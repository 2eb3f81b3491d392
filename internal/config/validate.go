package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/warpdl/idleload/internal/prewarm"
	"github.com/warpdl/idleload/internal/scheduler"
)

// Validate checks cfg for values the daemon cannot run with.
func (c Config) Validate() error {
	if c.Idle.QueueDelay <= 0 {
		return fmt.Errorf("idle.idle_queue_delay must be positive, got %s", c.Idle.QueueDelay)
	}
	if c.Idle.ActionMaxDuration <= 0 {
		return fmt.Errorf("idle.idle_action_max_duration must be positive, got %s", c.Idle.ActionMaxDuration)
	}
	if c.Idle.CacheFile == "" {
		return fmt.Errorf("idle.cache_file must be set")
	}
	if c.Features.Dir == "" {
		return fmt.Errorf("features.dir must be set")
	}
	if c.RPC.TCPPort < 1 || c.RPC.TCPPort > 65535 {
		return fmt.Errorf("rpc.tcp_port must be in 1-65535, got %d", c.RPC.TCPPort)
	}
	if c.RPC.HTTPListen != "" {
		if _, _, err := net.SplitHostPort(c.RPC.HTTPListen); err != nil {
			return fmt.Errorf("rpc.http_listen %q: %w", c.RPC.HTTPListen, err)
		}
	}
	if err := prewarm.Validate(c.Prewarm); err != nil {
		return err
	}
	for i, e := range c.Prewarm {
		if err := scheduler.ValidateOrder(e.Order); err != nil {
			return fmt.Errorf("prewarm[%d] (%s): %w", i, e.Feature, err)
		}
	}
	return nil
}

// ValidatePath checks that the path is absolute or starts with ~.
// Empty is allowed.
func ValidatePath(path, fieldName string) error {
	if path == "" {
		return nil
	}
	if path[0] == '~' {
		return nil
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%s must be absolute or start with ~, got: %q", fieldName, path)
	}
	return nil
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) (string, error) {
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	if path == "~" {
		return os.UserHomeDir()
	}
	return path, nil
}
