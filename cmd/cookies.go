package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli"
	cmdCommon "github.com/tagwatch/tagwatch/cmd/common"
	"github.com/tagwatch/tagwatch/pkg/trackcli"
)

var (
	cookieSource  string
	cookieDomains cli.StringSlice

	cookieFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "source, s",
			Usage:       "path to a browser cookie database, or \"auto\" to detect",
			Value:       "auto",
			Destination: &cookieSource,
		},
		cli.StringSliceFlag{
			Name:  "domain, d",
			Usage: "retailer domain to import cookies for (repeatable)",
			Value: &cookieDomains,
		},
	}
)

func importCookies(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	domains := []string(cookieDomains)
	if len(domains) == 0 {
		return cmdCommon.PrintErrWithCmdHelp(
			ctx,
			errors.New("at least one --domain is required"),
		)
	}
	client, err := trackcli.NewClient()
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "cookies", "new_client", err)
		return nil
	}
	resp, err := client.ImportCookies(cookieSource, domains...)
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "cookies", "import-cookies", err)
		return nil
	}
	fmt.Printf("Imported %d cookie(s).\n", resp.Imported)
	return nil
}
