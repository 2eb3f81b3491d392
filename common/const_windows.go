//go:build windows

package common

import (
	"os"
	"strings"
)

// DefaultPipeName is the default name for the Windows named pipe.
const DefaultPipeName = "idleload"

const pipePrefix = `\\.\pipe\`

// DefaultPipePath returns the full Windows named pipe path.
func DefaultPipePath() string {
	return pipePrefix + DefaultPipeName
}

// PipePath returns the named pipe path for the daemon, honouring
// IDLELOAD_PIPE_NAME. A value that already carries the \\.\pipe\ prefix is
// used as-is.
func PipePath() string {
	if name := os.Getenv(PipeNameEnv); name != "" {
		if strings.HasPrefix(name, pipePrefix) {
			return name
		}
		return pipePrefix + name
	}
	return DefaultPipePath()
}

// SocketPath is the control endpoint path on this platform.
func SocketPath() string {
	return PipePath()
}
