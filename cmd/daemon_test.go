package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/warpdl/idleload/internal/config"
	"github.com/warpdl/idleload/internal/secret"
	"github.com/zalando/go-keyring"
)

func TestApplyDaemonFlags(t *testing.T) {
	defer func() {
		daemonVerbose, daemonHTTPListen, daemonFeaturesDir, daemonCacheFile = false, "", "", ""
	}()
	cfg := config.Default()
	daemonVerbose = true
	daemonFeaturesDir = "/srv/features"
	daemonCacheFile = "/srv/cache.db"
	if err := applyDaemonFlags(&cfg); err != nil {
		t.Fatalf("applyDaemonFlags: %v", err)
	}
	if !cfg.Log.Verbose || cfg.Features.Dir != "/srv/features" || cfg.Idle.CacheFile != "/srv/cache.db" {
		t.Fatalf("flags not applied: %+v", cfg)
	}
}

func TestApplyDaemonFlagsBadHTTPListen(t *testing.T) {
	defer func() { daemonHTTPListen = "" }()
	cfg := config.Default()
	daemonHTTPListen = "8080"
	if err := applyDaemonFlags(&cfg); err == nil {
		t.Fatal("expected error for an address without a port")
	}
}

func TestResolveSecret(t *testing.T) {
	keyring.MockInit()
	orig := secretStore
	secretStore = func() *secret.Store { return secret.NewStore(afero.NewMemMapFs(), "/cfg") }
	defer func() { secretStore = orig }()

	cfg := config.Default()
	if err := resolveSecret(&cfg); err != nil || cfg.RPC.Secret != "" {
		t.Fatalf("no HTTP endpoint should leave the secret empty, got %q, %v", cfg.RPC.Secret, err)
	}
	cfg.RPC.HTTPListen = "127.0.0.1:8080"
	if err := resolveSecret(&cfg); err != nil {
		t.Fatalf("resolveSecret: %v", err)
	}
	if len(cfg.RPC.Secret) != 64 {
		t.Fatalf("expected generated token, got %q", cfg.RPC.Secret)
	}
	cfg.RPC.Secret = "configured"
	if err := resolveSecret(&cfg); err != nil || cfg.RPC.Secret != "configured" {
		t.Fatalf("configured secret must win, got %q, %v", cfg.RPC.Secret, err)
	}
}

func TestNewDaemonLoggerWritesFile(t *testing.T) {
	cfg := config.Default()
	cfg.Log.File = filepath.Join(t.TempDir(), "logs", "daemon.log")
	l, closeLog, err := newDaemonLogger(cfg)
	if err != nil {
		t.Fatalf("newDaemonLogger: %v", err)
	}
	l.Info("hello %s", "file")
	l.Debug("hidden")
	closeLog()

	data, err := os.ReadFile(cfg.Log.File)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[INFO] hello file") {
		t.Errorf("expected info line, got %q", data)
	}
	if strings.Contains(string(data), "hidden") {
		t.Errorf("debug output should be dropped when not verbose, got %q", data)
	}
}

func usePidFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), pidFileName)
	orig := pidFilePath
	pidFilePath = func() string { return path }
	t.Cleanup(func() { pidFilePath = orig })
	return path
}

func TestPidFileRoundTrip(t *testing.T) {
	usePidFile(t)
	if err := WritePidFile(); err != nil {
		t.Fatalf("WritePidFile: %v", err)
	}
	pid, err := ReadPidFile()
	if err != nil {
		t.Fatalf("ReadPidFile: %v", err)
	}
	if pid != os.Getpid() {
		t.Fatalf("expected pid %d, got %d", os.Getpid(), pid)
	}
	if !isProcessRunning(pid) {
		t.Fatal("current process should be running")
	}
	if err := RemovePidFile(); err != nil {
		t.Fatalf("RemovePidFile: %v", err)
	}
	if err := RemovePidFile(); err != nil {
		t.Fatalf("second RemovePidFile: %v", err)
	}
	if _, err := ReadPidFile(); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestReadPidFileInvalid(t *testing.T) {
	path := usePidFile(t)
	for _, content := range []string{"abc", "-4", "0"} {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := ReadPidFile(); err == nil {
			t.Errorf("expected error for %q", content)
		}
	}
}

func TestStopDaemonWithoutPidFile(t *testing.T) {
	usePidFile(t)
	if err := stopDaemon(nil); err != nil {
		t.Fatalf("stopDaemon: %v", err)
	}
}

func TestShutdownHandlerCancel(t *testing.T) {
	ctx, cancel := setupShutdownHandler()
	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled")
	}
}
