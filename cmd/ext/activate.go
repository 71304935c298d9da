package ext

import (
	"errors"
	"fmt"

	"github.com/urfave/cli"
	"github.com/tagwatch/tagwatch/cmd/common"
)

func activate(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	id := ctx.Args().First()
	if id == "" {
		return common.PrintErrWithCmdHelp(
			ctx,
			errors.New("no extractor id provided"),
		)
	}
	client, err := newClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "ext-activate", "new_client", err)
		return nil
	}
	ext, err := client.ActivateExtractor(id)
	if err != nil {
		common.PrintRuntimeErr(ctx, "ext-activate", "activate-extractor", err)
		return nil
	}
	fmt.Printf("Successfully activated extractor: %s (%s)\n", ext.Name, ext.Version)
	return nil
}
