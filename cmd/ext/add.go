package ext

import (
	"errors"
	"fmt"

	"github.com/urfave/cli"
	"github.com/tagwatch/tagwatch/cmd/common"
)

func add(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	path := ctx.Args().First()
	if path == "" {
		return common.PrintErrWithCmdHelp(
			ctx,
			errors.New("no path provided"),
		)
	}
	client, err := newClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "ext-add", "new_client", err)
		return nil
	}
	ext, err := client.LoadExtractor(path)
	if err != nil {
		common.PrintRuntimeErr(ctx, "ext-add", "load-extractor", err)
		return nil
	}
	fmt.Printf("Successfully installed extractor: %s (%s)\n", ext.Name, ext.Version)
	return nil
}
