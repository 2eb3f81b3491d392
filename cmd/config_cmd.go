package cmd

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli"
	"github.com/warpdl/idleload/cmd/common"
	"github.com/warpdl/idleload/internal/config"
)

func printConfig(ctx *cli.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		common.PrintRuntimeErr(ctx, "config", "load_config", err)
		return nil
	}
	if cfg.RPC.Secret != "" {
		cfg.RPC.Secret = "********"
	}
	if err := toml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
		common.PrintRuntimeErr(ctx, "config", "encode", err)
	}
	return nil
}
