package cmd

import (
	"fmt"

	"github.com/urfave/cli"
	cmdCommon "github.com/tagwatch/tagwatch/cmd/common"
	"github.com/tagwatch/tagwatch/pkg/trackcli"
)

// feedSync asks the daemon to pull the configured price feeds. With no
// argument every feed is synced, otherwise only the named one.
func feedSync(ctx *cli.Context) error {
	name := ctx.Args().First()
	if name == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client, err := trackcli.NewClient()
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "feed", "new_client", err)
		return nil
	}
	sum, err := client.SyncFeed(name)
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "feed", "sync-feed", err)
		return nil
	}
	fmt.Printf("Synced %d feed(s): %d matched, %d updated.\n",
		sum.Feeds, sum.Matched, sum.Updated)
	return nil
}
