package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/benbjohnson/clock"
	"github.com/spf13/afero"
	"github.com/urfave/cli"
	"github.com/warpdl/idleload/cmd/common"
	"github.com/warpdl/idleload/internal/config"
	"github.com/warpdl/idleload/pkg/logger"
)

var (
	daemonVerbose     bool
	daemonHTTPListen  string
	daemonFeaturesDir string
	daemonCacheFile   string

	daemonFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "verbose, V",
			Usage:       "log every scheduler action",
			Destination: &daemonVerbose,
		},
		cli.StringFlag{
			Name:        "http-listen",
			Usage:       "serve JSON-RPC over HTTP on this address",
			Destination: &daemonHTTPListen,
		},
		cli.StringFlag{
			Name:        "features-dir, f",
			Usage:       "directory holding the feature modules",
			Destination: &daemonFeaturesDir,
		},
		cli.StringFlag{
			Name:        "cache-file",
			Usage:       "dependency cache location (.json, or .db for SQLite)",
			Destination: &daemonCacheFile,
		},
	}
)

// applyDaemonFlags overrides cfg with the flags that were set.
func applyDaemonFlags(cfg *config.Config) error {
	if daemonVerbose {
		cfg.Log.Verbose = true
	}
	if daemonHTTPListen != "" {
		cfg.RPC.HTTPListen = daemonHTTPListen
	}
	if daemonFeaturesDir != "" {
		cfg.Features.Dir = daemonFeaturesDir
	}
	if daemonCacheFile != "" {
		cfg.Idle.CacheFile = daemonCacheFile
	}
	return cfg.Validate()
}

// resolveSecret fills in the HTTP Bearer token from the keyring when the
// HTTP endpoint is enabled without one.
func resolveSecret(cfg *config.Config) error {
	if cfg.RPC.HTTPListen == "" || cfg.RPC.Secret != "" {
		return nil
	}
	tok, err := secretStore().Resolve()
	if err != nil {
		return err
	}
	cfg.RPC.Secret = tok
	return nil
}

// newDaemonLogger logs to stderr and, when configured, to a file as well.
func newDaemonLogger(cfg config.Config) (logger.Logger, func(), error) {
	console := logger.NewStandardLogger(log.New(os.Stderr, "idleload: ", log.LstdFlags))
	console.SetVerbose(cfg.Log.Verbose)
	if cfg.Log.File == "" {
		return console, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	file := logger.NewStandardLogger(log.New(f, "", log.LstdFlags))
	file.SetVerbose(cfg.Log.Verbose)
	return logger.NewMultiLogger(console, file), func() { f.Close() }, nil
}

func daemon(ctx *cli.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "load_config", err)
		return nil
	}
	if err := applyDaemonFlags(&cfg); err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "config", err)
		return nil
	}
	if err := resolveSecret(&cfg); err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "rpc_secret", err)
		return nil
	}
	if pid, err := ReadPidFile(); err == nil && pid != os.Getpid() && isProcessRunning(pid) {
		common.PrintRuntimeErr(ctx, "daemon", "pid_file", fmt.Errorf("daemon already running (PID %d)", pid))
		return nil
	}

	l, closeLog, err := newDaemonLogger(cfg)
	if err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "open_log", err)
		return nil
	}
	defer closeLog()

	comps, err := initDaemonComponents(cfg, l, afero.NewOsFs(), clock.New())
	if err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "init", err)
		return nil
	}
	defer comps.Close()

	if err := WritePidFile(); err != nil {
		l.Warning("Writing PID file: %v", err)
	}
	defer func() {
		if err := RemovePidFile(); err != nil {
			l.Warning("Removing PID file: %v", err)
		}
	}()

	runCtx, cancel := setupShutdownHandler()
	defer cancel()
	l.Info("Daemon started (features %s, cache %s)", cfg.Features.Dir, cfg.Idle.CacheFile)
	return comps.Start(runCtx)
}
