package extl

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/dop251/goja"
	requirePkg "github.com/dop251/goja_nodejs/require"
	"github.com/spf13/afero"
	"github.com/warpdl/idleload/pkg/logger"
)

// Runtime is a goja runtime whose require() resolves feature names against
// one directory and records the modules it evaluates.
type Runtime struct {
	*requirePkg.RequireModule
	*goja.Runtime
	l   logger.Logger
	fs  afero.Fs
	dir string
	// resident holds every feature evaluated so far.
	resident map[string]bool
	// imported lists features whose evaluation finished since the last
	// reset, in completion order.
	imported []string
	// closure maps an evaluated feature to everything it required,
	// transitively and leaves first, followed by itself.
	closure map[string][]string
	// frames collects the requires seen by each evaluation in progress.
	frames []*requireFrame
}

type requireFrame struct {
	order []string
	seen  map[string]bool
}

func (f *requireFrame) add(names []string) {
	for _, n := range names {
		if !f.seen[n] {
			f.seen[n] = true
			f.order = append(f.order, n)
		}
	}
}

// NewRuntime creates a runtime loading features from dir on fsys.
func NewRuntime(l logger.Logger, fsys afero.Fs, dir string) (*Runtime, error) {
	r := &Runtime{
		l:        l,
		fs:       fsys,
		dir:      path.Clean(toSlash(dir)),
		resident: make(map[string]bool),
		closure:  make(map[string][]string),
	}
	registry := requirePkg.NewRegistry(requirePkg.WithLoader(r.loadSource))
	r.Runtime = goja.New()
	r.RequireModule = registry.Enable(r.Runtime)
	if err := r.Set("print", r.print); err != nil {
		return nil, err
	}
	// Modules receive the global require, so nested loads go through
	// r.require as well.
	if err := r.Set("require", r.require); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Runtime) modulePath(name string) string {
	return path.Join(r.dir, name+FeatureExt)
}

func (r *Runtime) loadSource(p string) ([]byte, error) {
	fi, err := r.fs.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, requirePkg.ModuleFileDoesNotExistError
		}
		return nil, err
	}
	if fi.IsDir() {
		return nil, requirePkg.ModuleFileDoesNotExistError
	}
	return afero.ReadFile(r.fs, p)
}

func (r *Runtime) exists(name string) (bool, error) {
	fi, err := r.fs.Stat(r.modulePath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !fi.IsDir(), nil
}

// load evaluates the named feature unless it is already resident. It
// reports whether the feature was evaluated by this call.
func (r *Runtime) load(name string) (goja.Value, bool, error) {
	if err := ValidateName(name); err != nil {
		return nil, false, err
	}
	if r.resident[name] {
		v, err := r.Require(r.modulePath(name))
		if err == nil {
			r.observe(r.closure[name])
		}
		return v, false, err
	}
	ok, err := r.exists(name)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", ErrFeatureNotFound, name)
	}
	fr := &requireFrame{seen: make(map[string]bool)}
	r.frames = append(r.frames, fr)
	v, err := r.Require(r.modulePath(name))
	r.frames = r.frames[:len(r.frames)-1]
	if err != nil {
		return nil, false, fmt.Errorf("evaluate %s: %w", name, err)
	}
	fr.add([]string{name})
	r.resident[name] = true
	r.closure[name] = fr.order
	r.imported = append(r.imported, name)
	r.observe(fr.order)
	return v, true, nil
}

// observe adds names to the requires of the innermost evaluation.
func (r *Runtime) observe(names []string) {
	if n := len(r.frames); n > 0 {
		r.frames[n-1].add(names)
	}
}

func (r *Runtime) require(call goja.FunctionCall) goja.Value {
	name := featureName(call.Argument(0).String())
	v, _, err := r.load(name)
	if err != nil {
		r.l.Debug("require: failed to import %s: %v", name, err)
		panic(r.NewGoError(err))
	}
	return v
}

func (r *Runtime) print(call goja.FunctionCall) goja.Value {
	parts := make([]string, len(call.Arguments))
	for i, v := range call.Arguments {
		parts[i] = fmt.Sprint(v.Export())
	}
	r.l.Info("%s", strings.Join(parts, " "))
	return goja.Undefined()
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}
