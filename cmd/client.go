package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/urfave/cli"
	"github.com/warpdl/idleload/cmd/common"
	"github.com/warpdl/idleload/internal/config"
	"github.com/warpdl/idleload/pkg/idlecli"
)

const requestTimeout = 10 * time.Second

var (
	requireOrder float64

	requireFlags = []cli.Flag{
		cli.Float64Flag{
			Name:        "order, o",
			Usage:       "load priority, lower runs first (integer in [-1000000, 1000000])",
			Destination: &requireOrder,
		},
	}
)

// newClientFunc is replaced in tests.
var newClientFunc = func(opts idlecli.Options) (*idlecli.Client, error) {
	return idlecli.NewClient(opts)
}

// endpoint reads the control socket location from the config file. A
// broken config falls back to the environment defaults.
func endpoint() idlecli.Endpoint {
	cfg, err := config.Load(configPath)
	if err != nil {
		return idlecli.Endpoint{}
	}
	return idlecli.Endpoint{
		SocketPath: cfg.RPC.Socket,
		TCPPort:    cfg.RPC.TCPPort,
		ForceTCP:   cfg.RPC.ForceTCP,
	}
}

func newClient(ctx *cli.Context, cmd string, onNotify func(*jrpc2.Request)) *idlecli.Client {
	client, err := newClientFunc(idlecli.Options{Endpoint: endpoint(), OnNotify: onNotify})
	if err != nil {
		common.PrintRuntimeErr(ctx, cmd, "new_client", err)
		return nil
	}
	vctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	client.CheckVersionMismatch(vctx, os.Stderr, currentBuildArgs.Version)
	return client
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

func require(ctx *cli.Context) error {
	feature := ctx.Args().First()
	if feature == "" {
		return common.PrintErrWithCmdHelp(ctx, errors.New("no feature provided"))
	}
	if feature == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client := newClient(ctx, "require", nil)
	if client == nil {
		return nil
	}
	defer client.Close()

	rctx, cancel := requestContext()
	defer cancel()
	if err := client.Require(rctx, feature, requireOrder); err != nil {
		common.PrintRuntimeErr(ctx, "require", "idle_require", err)
		return nil
	}
	fmt.Printf("Queued %s at order %v\n", feature, requireOrder)
	return nil
}

func status(ctx *cli.Context) error {
	client := newClient(ctx, "status", nil)
	if client == nil {
		return nil
	}
	defer client.Close()

	rctx, cancel := requestContext()
	defer cancel()
	st, err := client.Status(rctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "status", "idle_status", err)
		return nil
	}

	state := "idle"
	switch {
	case st.Draining:
		state = "draining"
	case st.Armed:
		state = "armed"
	}
	fmt.Printf("Scheduler: %s, %d pending\n", state, len(st.Pending))
	fmt.Printf("Cache:     %s (%d entries, loaded=%v, dirty=%v)\n",
		st.Cache.Path, st.Cache.Entries, st.Cache.Loaded, st.Cache.Dirty)
	fmt.Printf("Counters:  %d drains, %d actions, %d expansions, %d fallbacks, %d flushes (last drain %s)\n",
		st.Stats.Drains, st.Stats.Actions, st.Stats.Expansions, st.Stats.Fallbacks, st.Stats.Flushes,
		time.Duration(st.Stats.LastDrainUS)*time.Microsecond)
	if len(st.Pending) > 0 {
		txt := "\n|      Order      |        Kind       |       Feature        |"
		txt += "\n|-----------------|-------------------|----------------------|"
		for _, p := range st.Pending {
			txt += fmt.Sprintf("\n| %s | %s | %s |",
				common.Pad(fmt.Sprintf("%v", p.Order), 15),
				common.Pad(p.Kind, 17),
				common.Pad(p.Feature, 20))
		}
		fmt.Println(txt)
	}
	if len(st.Resident) > 0 {
		fmt.Printf("\nResident:  %s\n", strings.Join(st.Resident, ", "))
	}
	if len(st.Available) > 0 {
		fmt.Printf("Available: %s\n", strings.Join(st.Available, ", "))
	}
	return nil
}

func cacheList(ctx *cli.Context) error {
	client := newClient(ctx, "cache list", nil)
	if client == nil {
		return nil
	}
	defer client.Close()

	rctx, cancel := requestContext()
	defer cancel()
	entries, err := client.CacheList(rctx)
	if err != nil {
		common.PrintRuntimeErr(ctx, "cache list", "cache_list", err)
		return nil
	}
	if len(entries) == 0 {
		fmt.Println("idleload: no learned load orders")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s: %s\n", e.Feature, strings.Join(e.Dependencies, " -> "))
	}
	return nil
}

func cacheForget(ctx *cli.Context) error {
	feature := ctx.Args().First()
	if feature == "" {
		return common.PrintErrWithCmdHelp(ctx, errors.New("no feature provided"))
	}
	client := newClient(ctx, "cache forget", nil)
	if client == nil {
		return nil
	}
	defer client.Close()

	rctx, cancel := requestContext()
	defer cancel()
	removed, err := client.CacheForget(rctx, feature)
	if err != nil {
		common.PrintRuntimeErr(ctx, "cache forget", "cache_forget", err)
		return nil
	}
	if !removed {
		fmt.Printf("No learned order for %s\n", feature)
		return nil
	}
	fmt.Printf("Forgot %s\n", feature)
	return nil
}

func cacheClear(ctx *cli.Context) error {
	client := newClient(ctx, "cache clear", nil)
	if client == nil {
		return nil
	}
	defer client.Close()

	rctx, cancel := requestContext()
	defer cancel()
	if err := client.CacheClear(rctx); err != nil {
		common.PrintRuntimeErr(ctx, "cache clear", "cache_clear", err)
		return nil
	}
	fmt.Println("Cleared the dependency cache")
	return nil
}

func cacheFlush(ctx *cli.Context) error {
	client := newClient(ctx, "cache flush", nil)
	if client == nil {
		return nil
	}
	defer client.Close()

	rctx, cancel := requestContext()
	defer cancel()
	if err := client.CacheFlush(rctx); err != nil {
		common.PrintRuntimeErr(ctx, "cache flush", "cache_flush", err)
		return nil
	}
	fmt.Println("Dependency cache written")
	return nil
}
