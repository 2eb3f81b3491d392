// Package extl hosts features written as JavaScript modules. Each feature
// is a file <dir>/<name>.js evaluated once in a shared goja runtime; a
// feature pulls in others with require("name").
package extl

import (
	"errors"
	"path"
	"sort"
	"strings"

	"github.com/dop251/goja"
	"github.com/spf13/afero"
	"github.com/warpdl/idleload/internal/scheduler"
	"github.com/warpdl/idleload/pkg/logger"
)

// IdleRequireFunc queues a feature for loading in a later idle period.
type IdleRequireFunc func(f scheduler.Feature, order float64) error

// Host loads features into one runtime. It is not safe for concurrent use.
type Host struct {
	rt  *Runtime
	l   logger.Logger
	dir string
}

// NewHost creates a host for the feature modules in dir. A nil fsys means
// the host filesystem.
func NewHost(l logger.Logger, fsys afero.Fs, dir string) (*Host, error) {
	if l == nil {
		l = logger.NewNopLogger()
	}
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	rt, err := NewRuntime(l, fsys, dir)
	if err != nil {
		return nil, err
	}
	return &Host{rt: rt, l: l, dir: dir}, nil
}

// Load evaluates f and any feature it requires that is not resident yet.
// The result lists the freshly evaluated features, leaves first and f last.
func (h *Host) Load(f scheduler.Feature) (scheduler.LoadResult, error) {
	h.rt.imported = h.rt.imported[:0]
	h.rt.frames = h.rt.frames[:0]
	_, fresh, err := h.rt.load(string(f))
	if err != nil {
		return scheduler.LoadResult{}, err
	}
	if !fresh {
		return scheduler.LoadResult{}, nil
	}
	loaded := make([]scheduler.Feature, len(h.rt.imported))
	for i, name := range h.rt.imported {
		loaded[i] = scheduler.Feature(name)
	}
	closure := h.rt.closure[string(f)]
	order := make([]scheduler.Feature, len(closure))
	for i, name := range closure {
		order[i] = scheduler.Feature(name)
	}
	h.l.Debug("loaded %s (%d modules)", f, len(loaded))
	return scheduler.LoadResult{Fresh: true, Loaded: loaded, Order: order}, nil
}

// Resident reports whether f has been evaluated.
func (h *Host) Resident(f scheduler.Feature) bool {
	return h.rt.resident[string(f)]
}

// ResidentFeatures lists every evaluated feature, sorted.
func (h *Host) ResidentFeatures() []string {
	out := make([]string, 0, len(h.rt.resident))
	for name := range h.rt.resident {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Has reports whether f names a module in the feature directory.
func (h *Host) Has(f scheduler.Feature) (bool, error) {
	if err := ValidateName(string(f)); err != nil {
		return false, err
	}
	return h.rt.exists(string(f))
}

// Available lists the feature names found directly in the feature
// directory, sorted.
func (h *Host) Available() ([]string, error) {
	matches, err := afero.Glob(h.rt.fs, path.Join(h.rt.dir, "*"+FeatureExt))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(path.Base(toSlash(m)), FeatureExt))
	}
	sort.Strings(names)
	return names, nil
}

// BindIdleRequire exposes fn to modules as idle.require(name, order).
func (h *Host) BindIdleRequire(fn IdleRequireFunc) error {
	rt := h.rt.Runtime
	idle := rt.NewObject()
	err := idle.Set("require", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0)
		if goja.IsUndefined(name) || goja.IsNull(name) {
			panic(rt.NewTypeError("idle.require: feature name required"))
		}
		order := 0.0
		if arg := call.Argument(1); !goja.IsUndefined(arg) {
			order = arg.ToFloat()
		}
		if err := fn(scheduler.Feature(featureName(name.String())), order); err != nil {
			if errors.Is(err, scheduler.ErrInvalidOrder) {
				panic(rt.NewTypeError(err.Error()))
			}
			panic(rt.NewGoError(err))
		}
		return goja.Undefined()
	})
	if err != nil {
		return err
	}
	return rt.Set("idle", idle)
}
