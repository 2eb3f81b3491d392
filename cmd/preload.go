package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
	"github.com/warpdl/idleload/cmd/common"
	"github.com/warpdl/idleload/internal/config"
	"github.com/warpdl/idleload/internal/extl"
	"github.com/warpdl/idleload/internal/scheduler"
	"github.com/warpdl/idleload/pkg/logger"
)

var (
	preloadFeaturesDir string
	preloadVerbose     bool

	preloadFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "features-dir, f",
			Usage:       "directory holding the feature modules",
			Destination: &preloadFeaturesDir,
		},
		cli.BoolFlag{
			Name:        "verbose, V",
			Usage:       "print module output",
			Destination: &preloadVerbose,
		},
	}
)

type preloadResult struct {
	Feature string
	Loaded  []string
	Err     error
}

// runPreload loads each feature in h in argument order and reports the
// features each load pulled in. A failing feature does not stop the rest.
func runPreload(h *extl.Host, features []string, onDone func(preloadResult)) []preloadResult {
	results := make([]preloadResult, 0, len(features))
	for _, f := range features {
		r := preloadResult{Feature: f}
		if err := extl.ValidateName(f); err != nil {
			r.Err = err
		} else {
			res, err := h.Load(scheduler.Feature(f))
			r.Err = err
			for _, l := range res.Loaded {
				r.Loaded = append(r.Loaded, string(l))
			}
		}
		results = append(results, r)
		if onDone != nil {
			onDone(r)
		}
	}
	return results
}

func preload(ctx *cli.Context) error {
	features := []string(ctx.Args())
	if len(features) == 0 {
		return common.PrintErrWithCmdHelp(ctx, errors.New("no features provided"))
	}
	dir := preloadFeaturesDir
	if dir == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			common.PrintRuntimeErr(ctx, "preload", "load_config", err)
			return nil
		}
		dir = cfg.Features.Dir
	}

	var l logger.Logger = logger.NewNopLogger()
	if preloadVerbose {
		sl := logger.NewStandardLogger(log.New(os.Stderr, "", 0))
		sl.SetVerbose(true)
		l = sl
	}
	h, err := extl.NewHost(l, afero.NewOsFs(), dir)
	if err != nil {
		common.PrintRuntimeErr(ctx, "preload", "new_host", err)
		return nil
	}

	p := mpb.New(mpb.WithOutput(os.Stderr))
	bar := common.InitBar(p, "Loading", int64(len(features)))
	results := runPreload(h, features, func(preloadResult) { bar.Increment() })
	p.Wait()

	for _, r := range results {
		if r.Err != nil {
			fmt.Printf("%s: %v\n", r.Feature, r.Err)
			continue
		}
		if len(r.Loaded) == 0 {
			fmt.Printf("%s: already resident\n", r.Feature)
			continue
		}
		fmt.Printf("%s: %s\n", r.Feature, strings.Join(r.Loaded, " -> "))
	}
	return nil
}
