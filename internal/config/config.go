// Package config loads the idleload daemon configuration from a TOML file,
// the environment and command line flags, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/warpdl/idleload/common"
	"github.com/warpdl/idleload/internal/prewarm"
	"github.com/warpdl/idleload/internal/scheduler"
)

// Config is the full daemon configuration.
type Config struct {
	Idle     IdleConfig      `toml:"idle"`
	Features FeaturesConfig  `toml:"features"`
	RPC      RPCConfig       `toml:"rpc"`
	Log      LogConfig       `toml:"log"`
	Prewarm  []prewarm.Entry `toml:"prewarm"`
}

// IdleConfig tunes the idle scheduler.
type IdleConfig struct {
	// QueueDelay is how long the host must be idle before a drain runs.
	QueueDelay Duration `toml:"idle_queue_delay"`
	// ActionMaxDuration bounds a single drain pass.
	ActionMaxDuration Duration `toml:"idle_action_max_duration"`
	// CacheFile stores learned dependency orders. A .db or .sqlite
	// extension selects the SQLite backend.
	CacheFile string `toml:"cache_file"`
}

// FeaturesConfig locates the feature modules.
type FeaturesConfig struct {
	Dir string `toml:"dir"`
}

// RPCConfig configures the control endpoints.
type RPCConfig struct {
	// Socket is the Unix socket path or Windows pipe path.
	Socket   string `toml:"socket"`
	TCPPort  int    `toml:"tcp_port"`
	ForceTCP bool   `toml:"force_tcp"`
	// HTTPListen enables the HTTP JSON-RPC endpoint when non-empty.
	HTTPListen string `toml:"http_listen"`
	// Secret is the Bearer token the HTTP endpoint requires.
	Secret string `toml:"secret"`
}

// LogConfig controls daemon logging.
type LogConfig struct {
	Verbose bool   `toml:"verbose"`
	File    string `toml:"file"`
}

// Dir returns the idleload directory under the user's config directory.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "idleload")
}

// DefaultPath returns the config file location, honouring IDLELOAD_CONFIG.
func DefaultPath() string {
	if p := os.Getenv(common.ConfigEnv); p != "" {
		return p
	}
	return filepath.Join(Dir(), "config.toml")
}

// Default returns the built-in configuration.
func Default() Config {
	dir := Dir()
	return Config{
		Idle: IdleConfig{
			QueueDelay:        Duration(scheduler.DefaultDelay),
			ActionMaxDuration: Duration(scheduler.DefaultMaxDuration),
			CacheFile:         filepath.Join(dir, "dependency-cache.json"),
		},
		Features: FeaturesConfig{
			Dir: filepath.Join(dir, "features"),
		},
		RPC: RPCConfig{
			Socket:  common.SocketPath(),
			TCPPort: common.TCPPort(),
		},
	}
}

// Load reads the config file at path, or DefaultPath() when path is empty.
// A missing file yields Default(). Environment overrides are applied and
// the result is validated.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	default:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Default(), fmt.Errorf("failed to parse config file: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Default(), fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
		}
	}

	ApplyEnv(&cfg, os.Getenv)
	if err := cfg.expand(); err != nil {
		return Default(), err
	}
	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg from IDLELOAD_* variables looked up with getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv(common.CacheFileEnv); v != "" {
		cfg.Idle.CacheFile = v
	}
	if v := getenv(common.FeaturesDirEnv); v != "" {
		cfg.Features.Dir = v
	}
	if v := getenv(common.SocketPathEnv); v != "" {
		cfg.RPC.Socket = v
	}
	if v := getenv(common.RPCSecretEnv); v != "" {
		cfg.RPC.Secret = v
	}
	if getenv(common.ForceTCPEnv) == "1" {
		cfg.RPC.ForceTCP = true
	}
	if getenv(common.DebugEnv) == "1" {
		cfg.Log.Verbose = true
	}
}

func (c *Config) expand() error {
	for _, f := range []struct {
		name string
		p    *string
	}{
		{"idle.cache_file", &c.Idle.CacheFile},
		{"features.dir", &c.Features.Dir},
		{"log.file", &c.Log.File},
	} {
		if err := ValidatePath(*f.p, f.name); err != nil {
			return err
		}
		expanded, err := expandPath(*f.p)
		if err != nil {
			return fmt.Errorf("expand %s: %w", f.name, err)
		}
		*f.p = expanded
	}
	return nil
}

// Save writes cfg to path as TOML, creating the parent directory.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
