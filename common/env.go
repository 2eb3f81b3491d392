// Package common provides shared types and constants used across the
// idleload client-server communication layer.
package common

// Environment variable names for configuration.
const (
	// ConfigEnv overrides the config file location.
	ConfigEnv = "IDLELOAD_CONFIG"

	// SocketPathEnv is the environment variable for custom socket path.
	SocketPathEnv = "IDLELOAD_SOCKET_PATH"

	// PipeNameEnv is the environment variable for a custom Windows pipe name.
	PipeNameEnv = "IDLELOAD_PIPE_NAME"

	// TCPPortEnv is the environment variable for custom TCP port.
	TCPPortEnv = "IDLELOAD_TCP_PORT"

	// ForceTCPEnv is the environment variable to force TCP connections.
	ForceTCPEnv = "IDLELOAD_FORCE_TCP"

	// DebugEnv is the environment variable to enable debug logging.
	DebugEnv = "IDLELOAD_DEBUG"

	// CacheFileEnv overrides the dependency cache location.
	CacheFileEnv = "IDLELOAD_CACHE_FILE"

	// FeaturesDirEnv overrides the feature module directory.
	FeaturesDirEnv = "IDLELOAD_FEATURES_DIR"

	// RPCSecretEnv is the Bearer token for the HTTP JSON-RPC endpoint.
	RPCSecretEnv = "IDLELOAD_RPC_SECRET"
)
