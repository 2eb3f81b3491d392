package server

import (
	"encoding/json"
	"errors"

	"github.com/creachadair/jrpc2"
	"github.com/warpdl/idleload/internal/extl"
	"github.com/warpdl/idleload/internal/host"
	"github.com/warpdl/idleload/internal/scheduler"
)

// Custom JSON-RPC error codes.
const (
	codeInvalidParams = jrpc2.Code(-32602)
	codeUnavailable   = jrpc2.Code(-32001)
	codeCacheWrite    = jrpc2.Code(-32002)
)

type errCacheWrite struct{ err error }

func (e errCacheWrite) Error() string { return e.err.Error() }
func (e errCacheWrite) Unwrap() error { return e.err }

// rpcError maps domain errors to JSON-RPC errors. Unknown errors pass
// through and are reported as internal errors by jrpc2.
func rpcError(err error) error {
	if err == nil {
		return nil
	}
	var (
		ioe *scheduler.InvalidOrderError
		cwe errCacheWrite
	)
	switch {
	case errors.As(err, &ioe):
		e := &jrpc2.Error{Code: codeInvalidParams, Message: err.Error()}
		if data, merr := json.Marshal(map[string]float64{"order": ioe.Order}); merr == nil {
			e.Data = data
		}
		return e
	case errors.Is(err, scheduler.ErrEmptyFeature), errors.Is(err, scheduler.ErrInvalidFeature),
		errors.Is(err, extl.ErrInvalidFeatureName):
		return &jrpc2.Error{Code: codeInvalidParams, Message: err.Error()}
	case errors.Is(err, scheduler.ErrClosed), errors.Is(err, host.ErrLoopClosed):
		return &jrpc2.Error{Code: codeUnavailable, Message: "daemon is shutting down"}
	case errors.As(err, &cwe):
		return &jrpc2.Error{Code: codeCacheWrite, Message: "cache write failed: " + cwe.Error()}
	}
	return err
}
