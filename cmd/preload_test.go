package cmd

import (
	"errors"
	"reflect"
	"testing"

	"github.com/spf13/afero"
	"github.com/warpdl/idleload/internal/extl"
	"github.com/warpdl/idleload/pkg/logger"
)

func TestRunPreload(t *testing.T) {
	fsys := afero.NewMemMapFs()
	files := map[string]string{
		"editor.js": `require("tokens"); module.exports = {};`,
		"tokens.js": `module.exports = {};`,
	}
	for name, src := range files {
		if err := afero.WriteFile(fsys, "/features/"+name, []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	h, err := extl.NewHost(logger.NewNopLogger(), fsys, "/features")
	if err != nil {
		t.Fatal(err)
	}

	var done int
	results := runPreload(h, []string{"editor", "tokens", "ghost", "../x"}, func(preloadResult) { done++ })
	if done != 4 || len(results) != 4 {
		t.Fatalf("expected 4 results, got %d (callbacks %d)", len(results), done)
	}
	if results[0].Err != nil || !reflect.DeepEqual(results[0].Loaded, []string{"tokens", "editor"}) {
		t.Errorf("unexpected editor result %+v", results[0])
	}
	if results[1].Err != nil || len(results[1].Loaded) != 0 {
		t.Errorf("tokens should already be resident, got %+v", results[1])
	}
	if !errors.Is(results[2].Err, extl.ErrFeatureNotFound) {
		t.Errorf("expected ErrFeatureNotFound, got %v", results[2].Err)
	}
	if !errors.Is(results[3].Err, extl.ErrInvalidFeatureName) {
		t.Errorf("expected ErrInvalidFeatureName, got %v", results[3].Err)
	}
}
