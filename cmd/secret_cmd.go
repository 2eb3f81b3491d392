package cmd

import (
	"fmt"

	"github.com/urfave/cli"
	"github.com/warpdl/idleload/cmd/common"
	"github.com/warpdl/idleload/internal/config"
	"github.com/warpdl/idleload/internal/secret"
)

// secretStore is replaced in tests.
var secretStore = func() *secret.Store {
	return secret.NewStore(nil, config.Dir())
}

var (
	regenerateSecret bool

	secretFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "regenerate",
			Usage:       "replace the stored token (restart the daemon afterwards)",
			Destination: &regenerateSecret,
		},
	}
)

// printSecret prints the Bearer token HTTP clients must send. A token set
// in the config file or environment wins over the stored one.
func printSecret(ctx *cli.Context) error {
	if !regenerateSecret {
		if cfg, err := config.Load(configPath); err == nil && cfg.RPC.Secret != "" {
			fmt.Println(cfg.RPC.Secret)
			return nil
		}
	}
	store := secretStore()
	var (
		tok string
		err error
	)
	if regenerateSecret {
		tok, err = store.Generate()
	} else {
		tok, err = store.Resolve()
	}
	if err != nil {
		common.PrintRuntimeErr(ctx, "secret", "resolve", err)
		return nil
	}
	fmt.Println(tok)
	return nil
}
