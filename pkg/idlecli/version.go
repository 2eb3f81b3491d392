package idlecli

import (
	"context"
	"fmt"
	"io"
	"os"
)

// VersionCheckEnv suppresses version mismatch warnings when set.
const VersionCheckEnv = "IDLELOAD_SUPPRESS_VERSION_CHECK"

// CheckVersionMismatch warns on w when the daemon runs a different version
// than expected. It never fails the caller.
func (c *Client) CheckVersionMismatch(ctx context.Context, w io.Writer, expected string) {
	if expected == "" || os.Getenv(VersionCheckEnv) != "" {
		return
	}
	v, err := c.GetDaemonVersion(ctx)
	if err != nil {
		fmt.Fprintf(w, "Warning: could not verify daemon version: %v\n", err)
		return
	}
	if v.Version != expected {
		fmt.Fprintf(w, "Warning: CLI version (%s) differs from daemon version (%s)\n", expected, v.Version)
	}
}
