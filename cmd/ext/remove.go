package ext

import (
	"errors"
	"fmt"

	"github.com/urfave/cli"
	"github.com/tagwatch/tagwatch/cmd/common"
)

func remove(ctx *cli.Context) error {
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
		common.PrintRuntimeErr(ctx, "ext-rm", "new_client", err)
		return nil
	}
	ext, err := client.UnloadExtractor(id)
	if err != nil {
		common.PrintRuntimeErr(ctx, "ext-rm", "unload-extractor", err)
		return nil
	}
	fmt.Printf("Successfully uninstalled extractor: %s\n", ext.Name)
	return nil
}
