package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"
	"github.com/warpdl/idleload/cmd/common"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

var currentBuildArgs BuildArgs

var configPath string

var globalFlags = []cli.Flag{
	cli.StringFlag{
		Name:        "config, c",
		Usage:       "path to the config file",
		EnvVar:      "IDLELOAD_CONFIG",
		Destination: &configPath,
	},
}

func Execute(args []string, bArgs BuildArgs) error {
	currentBuildArgs = bArgs
	app := cli.App{
		Name:                  "idleload",
		HelpName:              "idleload",
		Usage:                 "Load feature modules while the host is idle.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "idleload <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Flags:                 globalFlags,
		Commands: []cli.Command{
			{
				Name:               "daemon",
				Usage:              "run the idle scheduler daemon",
				Action:             daemon,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        DaemonDescription,
				Flags:              daemonFlags,
			},
			{
				Name:   "stop-daemon",
				Usage:  "stop the running daemon",
				Action: stopDaemon,
			},
			{
				Name:                   "require",
				Aliases:                []string{"r"},
				Usage:                  "queue a feature for an idle load",
				UsageText:              "[--order N] <feature>",
				Action:                 require,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Description:            RequireDescription,
				Flags:                  requireFlags,
				UseShortOptionHandling: true,
			},
			{
				Name:               "status",
				Aliases:            []string{"s"},
				Usage:              "show pending actions and cache state",
				Action:             status,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        StatusDescription,
			},
			{
				Name:               "cache",
				Usage:              "inspect the learned dependency orders",
				Description:        CacheDescription,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Subcommands: []cli.Command{
					{
						Name:   "list",
						Usage:  "list learned load orders",
						Action: cacheList,
					},
					{
						Name:      "forget",
						Usage:     "drop the learned order of a feature",
						UsageText: "<feature>",
						Action:    cacheForget,
					},
					{
						Name:   "clear",
						Usage:  "drop every learned order",
						Action: cacheClear,
					},
					{
						Name:   "flush",
						Usage:  "write the cache to disk now",
						Action: cacheFlush,
					},
				},
			},
			{
				Name:               "watch",
				Aliases:            []string{"w"},
				Usage:              "print feature loads as they happen",
				Action:             watch,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        WatchDescription,
			},
			{
				Name:               "preload",
				Usage:              "load features now without a daemon",
				UsageText:          "<feature>...",
				Action:             preload,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        PreloadDescription,
				Flags:              preloadFlags,
			},
			{
				Name:               "config",
				Usage:              "print the effective configuration",
				Action:             printConfig,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        ConfigDescription,
			},
			{
				Name:               "secret",
				Usage:              "print the HTTP endpoint's Bearer token",
				Action:             printSecret,
				Flags:              secretFlags,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        SecretDescription,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of idleload",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		},
		HideHelp:    true,
		HideVersion: true,
	}
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app.Run(args)
}
