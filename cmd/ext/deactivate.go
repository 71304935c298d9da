package ext

import (
	"errors"
	"fmt"

	"github.com/urfave/cli"
	"github.com/tagwatch/tagwatch/cmd/common"
)

func deactivate(ctx *cli.Context) error {
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
		common.PrintRuntimeErr(ctx, "ext-deactivate", "new_client", err)
		return nil
	}
	ext, err := client.DeactivateExtractor(id)
	if err != nil {
		common.PrintRuntimeErr(ctx, "ext-deactivate", "deactivate-extractor", err)
		return nil
	}
	fmt.Printf("Successfully deactivated extractor: %s\n", ext.Name)
	return nil
}
