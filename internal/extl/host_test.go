package extl

import (
	"errors"
	"reflect"
	"testing"

	"github.com/spf13/afero"
	"github.com/warpdl/idleload/internal/scheduler"
	"github.com/warpdl/idleload/pkg/logger"
)

func newTestHost(t *testing.T, files map[string]string) (*Host, *logger.MockLogger) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for name, src := range files {
		if err := afero.WriteFile(fsys, "/features/"+name, []byte(src), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	l := logger.NewMockLogger()
	h, err := NewHost(l, fsys, "/features")
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	return h, l
}

func TestLoadReportsCompletionOrder(t *testing.T) {
	h, _ := newTestHost(t, map[string]string{
		"editor.js": `require("syntax"); require("./theme.js"); module.exports = {name: "editor"};`,
		"syntax.js": `require("tokens"); module.exports = {};`,
		"tokens.js": `module.exports = {};`,
		"theme.js":  `require("tokens"); module.exports = {};`,
	})

	res, err := h.Load("editor")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []scheduler.Feature{"tokens", "syntax", "theme", "editor"}
	if !res.Fresh || !reflect.DeepEqual(res.Loaded, want) {
		t.Errorf("Load(editor) = %+v, want fresh %v", res, want)
	}
	for _, f := range want {
		if !h.Resident(f) {
			t.Errorf("expected %s resident", f)
		}
	}
}

func TestLoadResidentIsNotFresh(t *testing.T) {
	h, _ := newTestHost(t, map[string]string{
		"a.js": `require("b");`,
		"b.js": `module.exports = 1;`,
	})
	if _, err := h.Load("b"); err != nil {
		t.Fatal(err)
	}
	res, err := h.Load("a")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.Loaded, []scheduler.Feature{"a"}) {
		t.Errorf("expected only a to be fresh, got %v", res.Loaded)
	}
	if !reflect.DeepEqual(res.Order, []scheduler.Feature{"b", "a"}) {
		t.Errorf("expected full order [b a], got %v", res.Order)
	}
	res, err = h.Load("a")
	if err != nil {
		t.Fatal(err)
	}
	if res.Fresh || len(res.Loaded) != 0 {
		t.Errorf("expected no-op reload, got %+v", res)
	}
}

func TestLoadMissingFeature(t *testing.T) {
	h, _ := newTestHost(t, nil)
	_, err := h.Load("ghost")
	if !errors.Is(err, ErrFeatureNotFound) {
		t.Errorf("expected ErrFeatureNotFound, got %v", err)
	}
}

func TestLoadNestedMissingFails(t *testing.T) {
	h, _ := newTestHost(t, map[string]string{
		"a.js": `require("ghost");`,
	})
	if _, err := h.Load("a"); err == nil {
		t.Fatal("expected error")
	}
	if h.Resident("a") {
		t.Error("failed feature must not be resident")
	}
}

func TestLoadScriptError(t *testing.T) {
	h, _ := newTestHost(t, map[string]string{
		"bad.js": `throw new Error("broken");`,
	})
	if _, err := h.Load("bad"); err == nil {
		t.Fatal("expected evaluation error")
	}
}

func TestInvalidNames(t *testing.T) {
	h, _ := newTestHost(t, nil)
	for _, name := range []scheduler.Feature{"", "../etc/passwd", "/abs", `a\b`, "a//b", "c:x", "caf\xe9"} {
		if _, err := h.Load(name); !errors.Is(err, ErrInvalidFeatureName) {
			t.Errorf("Load(%q): expected ErrInvalidFeatureName, got %v", name, err)
		}
	}
}

func TestNestedDirectoryFeature(t *testing.T) {
	h, _ := newTestHost(t, map[string]string{
		"lang/go.js": `require("lsp");`,
		"lsp.js":     ``,
	})
	res, err := h.Load("lang/go")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.Loaded, []scheduler.Feature{"lsp", "lang/go"}) {
		t.Errorf("got %v", res.Loaded)
	}
}

func TestHas(t *testing.T) {
	h, _ := newTestHost(t, map[string]string{
		"a.js":     ``,
		"sub/c.js": ``,
	})
	tests := []struct {
		name    string
		want    bool
		wantErr bool
	}{
		{"a", true, false},
		{"sub/c", true, false},
		{"missing", false, false},
		{"sub", false, false},
		{"../a", false, true},
	}
	for _, tt := range tests {
		got, err := h.Has(scheduler.Feature(tt.name))
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("Has(%q) = %v, %v; want %v, err %v", tt.name, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestLoadOrderIncludesResidentDependencies(t *testing.T) {
	h, _ := newTestHost(t, map[string]string{
		"editor.js": `require("syntax"); require("theme");`,
		"syntax.js": `require("tokens");`,
		"tokens.js": ``,
		"theme.js":  `require("tokens");`,
	})
	if _, err := h.Load("syntax"); err != nil {
		t.Fatal(err)
	}
	res, err := h.Load("editor")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.Loaded, []scheduler.Feature{"theme", "editor"}) {
		t.Errorf("Loaded = %v, want [theme editor]", res.Loaded)
	}
	want := []scheduler.Feature{"tokens", "syntax", "theme", "editor"}
	if !reflect.DeepEqual(res.Order, want) {
		t.Errorf("Order = %v, want %v", res.Order, want)
	}
}

func TestAvailable(t *testing.T) {
	h, _ := newTestHost(t, map[string]string{
		"b.js":      ``,
		"a.js":      ``,
		"notes.txt": ``,
		"sub/c.js":  ``,
	})
	got, err := h.Available()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Available() = %v, want [a b]", got)
	}
}

func TestPrintLogs(t *testing.T) {
	h, l := newTestHost(t, map[string]string{
		"hello.js": `print("hello", 1);`,
	})
	if _, err := h.Load("hello"); err != nil {
		t.Fatal(err)
	}
	if len(l.InfoCalls) != 1 || l.InfoCalls[0] != "hello 1" {
		t.Errorf("expected one info line, got %v", l.InfoCalls)
	}
}

func TestBindIdleRequire(t *testing.T) {
	h, _ := newTestHost(t, map[string]string{
		"boot.js": `idle.require("editor", 5); idle.require("./terminal.js");`,
		"bad.js":  `idle.require("x", 1.5);`,
	})
	type call struct {
		f     scheduler.Feature
		order float64
	}
	var calls []call
	err := h.BindIdleRequire(func(f scheduler.Feature, order float64) error {
		if err := scheduler.ValidateOrder(order); err != nil {
			return err
		}
		calls = append(calls, call{f, order})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.Load("boot"); err != nil {
		t.Fatalf("Load(boot): %v", err)
	}
	want := []call{{"editor", 5}, {"terminal", 0}}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("calls %v, want %v", calls, want)
	}
	if _, err := h.Load("bad"); err == nil {
		t.Error("expected invalid order to throw")
	}
}
