package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli"
	"github.com/tagwatch/tagwatch/cmd/common"
	"github.com/tagwatch/tagwatch/pkg/trackcli"
)

func untrack(ctx *cli.Context) (err error) {
	id := ctx.Args().First()
	if id == "" {
		if ctx.Command.Name == "" {
			return common.Help(ctx)
		}
		return common.PrintErrWithCmdHelp(
			ctx,
			errors.New("no product id provided"),
		)
	} else if id == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client, err := trackcli.NewClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "untrack", "new_client", err)
		return nil
	}
	if err = client.Untrack(id); err != nil {
		common.PrintRuntimeErr(ctx, "untrack", "client-untrack", err)
		return nil
	}
	fmt.Println("Product untracked.")
	return nil
}
