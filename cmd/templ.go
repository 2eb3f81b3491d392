package cmd

const HELP_TEMPL = `Usage: {{if .UsageText}}{{.UsageText}}{{else}}{{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}
{{.Description}}{{if .VisibleCommands}}
Commands:{{range .VisibleCategories}}{{if .Name}}

{{.Name}}:{{range .VisibleCommands}}
  {{join .Names ", "}}{{"\t"}}{{.Usage}}{{end}}{{else}}{{range .VisibleCommands}}
{{"\t"}}{{index .Names 0}}{{"\t:\t"}}{{.Usage}}{{end}}{{end}}{{end}}{{end}}{{if .VisibleFlags}}

Global Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

Use "{{.HelpName}} help <command>" for more information about any command.

`

const CMD_HELP_TEMPL = `{{if .Description}}{{.Description}}{{else}}{{.HelpName}} - {{.Usage}}

{{end}}Usage:
        {{.HelpName}} {{if .UsageText}}{{.UsageText}}{{else}}[arguments...]{{end}}{{if .VisibleFlags}}

Supported Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

`

const DESCRIPTION = `
idleload loads feature modules while the host is idle. Features are
queued with an order, expanded into their learned dependency chain and
loaded a few milliseconds at a time whenever the event loop has been
quiet for long enough.
`

const (
	DaemonDescription = `The daemon command runs the idle scheduler in the foreground
and serves the control socket used by every other command.

Example:
        idleload daemon --verbose

`
	RequireDescription = `The require command queues a feature for loading during a
later idle period. Lower orders are loaded first; the order
must be an integer between -1000000 and 1000000.

Example:
        idleload require --order 10 editor

`
	StatusDescription = `The status command shows the pending idle actions, the
scheduler counters and the dependency cache state.

Example:
        idleload status

`
	CacheDescription = `The cache command inspects and edits the learned
feature load orders.

Example:
        idleload cache list
        idleload cache forget editor

`
	WatchDescription = `The watch command prints feature loads and cache writes
as the daemon performs them, until interrupted.

Example:
        idleload watch

`
	PreloadDescription = `The preload command loads features immediately in a local
host without a daemon and prints the order each one pulled
its dependencies in.

Example:
        idleload preload editor search

`
	SecretDescription = `The secret command prints the Bearer token required by the
HTTP JSON-RPC endpoint, generating and storing one in the
system keyring on first use.

Example:
        idleload secret

`
	ConfigDescription = `The config command prints the effective configuration
after the config file and environment have been applied.

Example:
        idleload config

`
)
