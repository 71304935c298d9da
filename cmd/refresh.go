package cmd

import (
	"fmt"

	"github.com/urfave/cli"
	"github.com/tagwatch/tagwatch/cmd/common"
	"github.com/tagwatch/tagwatch/pkg/trackcli"
)

var (
	forceRefresh bool

	refreshFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "force, f",
			Usage:       "re-check every active product, not just the due ones",
			Destination: &forceRefresh,
		},
	}
)

func refresh(ctx *cli.Context) (err error) {
	id := ctx.Args().First()
	if id == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client, err := trackcli.NewClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "refresh", "new_client", err)
		return nil
	}
	client.CheckVersionMismatch(currentBuildArgs.Version)

	r, err := client.Refresh(id, forceRefresh)
	if err != nil {
		common.PrintRuntimeErr(ctx, "refresh", "client-refresh", err)
		return nil
	}
	if r.Queued == 0 {
		fmt.Println("tagwatch: nothing due for a check")
		return nil
	}
	fmt.Printf(">> Checking %d product(s) <<\n", r.Queued)

	key := id
	if key == "" {
		key = trackcli.AllProducts
	}
	registerRefreshHandlers(client, key, int64(r.Queued))
	return client.Listen()
}
