// Package ext implements the extractor management subcommands: installing,
// listing and toggling the JavaScript price extractor modules the daemon
// runs against retailer pages.
package ext

import (
	"github.com/urfave/cli"
	"github.com/tagwatch/tagwatch/pkg/trackcli"
)

// newClient is a seam for tests; production dials the running daemon.
var newClient = trackcli.NewClient

var Commands = []cli.Command{
	{
		Name:   "add",
		Action: add,
		Usage:  "install a price extractor module",
	},
	{
		Name:   "rm",
		Action: remove,
		Usage:  "uninstall a price extractor module",
	},
	{
		Name:   "info",
		Action: info,
		Usage:  "show info about a price extractor module",
	},
	{
		Name:   "ls",
		Action: list,
		Usage:  "list installed price extractor modules",
		Flags:  lsFlags,
	},
	{
		Name:   "activate",
		Action: activate,
		Usage:  "activate an inactive price extractor module",
	},
	{
		Name:   "deactivate",
		Action: deactivate,
		Usage:  "deactivate a price extractor module",
	},
}
