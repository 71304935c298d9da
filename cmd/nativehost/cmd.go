// Package nativehost holds the `host` subcommands that manage the
// browser-side native messaging integration.
package nativehost

import "github.com/urfave/cli"

const browserList = "chrome, firefox, chromium, edge, brave, all"

// Commands is the `host` subcommand table mounted by the root CLI.
var Commands = []cli.Command{
	{
		Name:   "install",
		Action: install,
		Usage:  "write native messaging manifests so browsers can launch the host",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "browser",
				Usage: "target browser (" + browserList + ")",
				Value: "all",
			},
			cli.StringFlag{
				Name:  "chrome-extension-id",
				Usage: "extension ID for Chrome-family browsers",
			},
			cli.StringFlag{
				Name:  "firefox-extension-id",
				Usage: "extension ID for Firefox",
			},
			cli.BoolFlag{
				Name:  "auto",
				Usage: "use the official tagwatch extension IDs (for package manager hooks)",
			},
		},
	},
	{
		Name:   "uninstall",
		Action: uninstall,
		Usage:  "remove installed native messaging manifests",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "browser",
				Usage: "target browser (" + browserList + ")",
				Value: "all",
			},
		},
	},
	{
		Name:   "run",
		Action: run,
		Usage:  "serve the native messaging protocol on stdio",
		// Browsers invoke this through the manifest; users never do.
		Hidden: true,
	},
	{
		Name:   "status",
		Action: status,
		Usage:  "report which browsers have a manifest installed",
	},
}
