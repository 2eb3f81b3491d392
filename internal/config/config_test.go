package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/warpdl/idleload/common"
	"github.com/warpdl/idleload/internal/prewarm"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		common.CacheFileEnv, common.FeaturesDirEnv, common.SocketPathEnv,
		common.RPCSecretEnv, common.ForceTCPEnv, common.DebugEnv, common.TCPPortEnv,
	} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Idle.QueueDelay.D() != 100*time.Millisecond {
		t.Errorf("expected default delay 100ms, got %v", cfg.Idle.QueueDelay)
	}
	if cfg.Idle.ActionMaxDuration.D() != 10*time.Millisecond {
		t.Errorf("expected default budget 10ms, got %v", cfg.Idle.ActionMaxDuration)
	}
	if filepath.Base(cfg.Idle.CacheFile) != "dependency-cache.json" {
		t.Errorf("unexpected default cache file %q", cfg.Idle.CacheFile)
	}
}

func TestLoadFullFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[idle]
idle_queue_delay = "250ms"
idle_action_max_duration = 0.02
cache_file = "/var/lib/idleload/cache.db"

[features]
dir = "/opt/features"

[rpc]
socket = "/run/idleload.sock"
tcp_port = 4000
http_listen = "127.0.0.1:4001"
secret = "s3cret"

[log]
verbose = true

[[prewarm]]
feature = "editor"
order = 5

[[prewarm]]
feature = "terminal"
order = -3
cron = "*/10 * * * *"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Idle.QueueDelay.D() != 250*time.Millisecond {
		t.Errorf("delay = %v", cfg.Idle.QueueDelay)
	}
	if cfg.Idle.ActionMaxDuration.D() != 20*time.Millisecond {
		t.Errorf("budget = %v", cfg.Idle.ActionMaxDuration)
	}
	if cfg.Idle.CacheFile != "/var/lib/idleload/cache.db" || cfg.Features.Dir != "/opt/features" {
		t.Errorf("paths = %q, %q", cfg.Idle.CacheFile, cfg.Features.Dir)
	}
	if cfg.RPC.TCPPort != 4000 || cfg.RPC.HTTPListen != "127.0.0.1:4001" || !cfg.Log.Verbose {
		t.Errorf("unexpected rpc/log config %+v %+v", cfg.RPC, cfg.Log)
	}
	want := []prewarm.Entry{
		{Feature: "editor", Order: 5},
		{Feature: "terminal", Order: -3, Cron: "*/10 * * * *"},
	}
	if len(cfg.Prewarm) != 2 || cfg.Prewarm[0] != want[0] || cfg.Prewarm[1] != want[1] {
		t.Errorf("prewarm = %+v, want %+v", cfg.Prewarm, want)
	}
}

func TestLoadIntegerSecondsDuration(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeConfig(t, "[idle]\nidle_queue_delay = 2\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Idle.QueueDelay.D() != 2*time.Second {
		t.Errorf("delay = %v, want 2s", cfg.Idle.QueueDelay)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"syntax", "[idle\n", "failed to parse"},
		{"unknown key", "[idle]\nbogus = 1\n", "unknown config key"},
		{"bad duration", "[idle]\nidle_queue_delay = \"soon\"\n", "failed to parse"},
		{"zero delay", "[idle]\nidle_queue_delay = \"0s\"\n", "idle_queue_delay must be positive"},
		{"relative cache", "[idle]\ncache_file = \"cache.json\"\n", "must be absolute"},
		{"bad http listen", "[rpc]\nhttp_listen = \"8080\"\n", "rpc.http_listen"},
		{"bad port", "[rpc]\ntcp_port = 70000\n", "tcp_port"},
		{"fractional order", "[[prewarm]]\nfeature = \"a\"\norder = 1.5\n", "invalid order"},
		{"order out of range", "[[prewarm]]\nfeature = \"a\"\norder = 2000000\n", "invalid order"},
		{"bad cron", "[[prewarm]]\nfeature = \"a\"\ncron = \"nope\"\n", "invalid cron"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		common.CacheFileEnv:   "/tmp/c.json",
		common.FeaturesDirEnv: "/tmp/features",
		common.SocketPathEnv:  "/tmp/s.sock",
		common.RPCSecretEnv:   "tok",
		common.ForceTCPEnv:    "1",
		common.DebugEnv:       "1",
	}
	cfg := Default()
	ApplyEnv(&cfg, func(k string) string { return env[k] })
	if cfg.Idle.CacheFile != "/tmp/c.json" || cfg.Features.Dir != "/tmp/features" ||
		cfg.RPC.Socket != "/tmp/s.sock" || cfg.RPC.Secret != "tok" ||
		!cfg.RPC.ForceTCP || !cfg.Log.Verbose {
		t.Errorf("env not applied: %+v", cfg)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(common.CacheFileEnv, "/from/env.json")
	cfg, err := Load(writeConfig(t, "[idle]\ncache_file = \"/from/file.json\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Idle.CacheFile != "/from/env.json" {
		t.Errorf("expected env to win, got %q", cfg.Idle.CacheFile)
	}
}

func TestTildeExpansion(t *testing.T) {
	clearEnv(t)
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg, err := Load(writeConfig(t, "[features]\ndir = \"~/features\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Features.Dir != filepath.Join(home, "features") {
		t.Errorf("dir = %q", cfg.Features.Dir)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	cfg := Default()
	cfg.Idle.QueueDelay = Duration(300 * time.Millisecond)
	cfg.Prewarm = []prewarm.Entry{{Feature: "editor", Order: 2, Cron: "0 * * * *"}}
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Idle.QueueDelay != cfg.Idle.QueueDelay || len(got.Prewarm) != 1 || got.Prewarm[0] != cfg.Prewarm[0] {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestDefaultPathHonoursEnv(t *testing.T) {
	t.Setenv(common.ConfigEnv, "/etc/idleload.toml")
	if got := DefaultPath(); got != "/etc/idleload.toml" {
		t.Errorf("DefaultPath() = %q", got)
	}
}
