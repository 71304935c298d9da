package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli"
	"github.com/tagwatch/tagwatch/cmd/common"
	"github.com/tagwatch/tagwatch/pkg/trackcli"
)

var (
	daemonURI string

	watchFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "daemon-uri",
			Usage:       "daemon URI to connect to (e.g., tcp://localhost:8249, unix:///tmp/tagwatch.sock, or /path/to/socket)",
			Destination: &daemonURI,
			EnvVar:      "TAGWATCH_DAEMON_URI",
		},
	}
)

func watch(ctx *cli.Context) (err error) {
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
	var client *trackcli.Client
	if daemonURI != "" {
		client, err = trackcli.NewClientWithURI(daemonURI)
	} else {
		client, err = trackcli.NewClient()
	}
	if err != nil {
		common.PrintRuntimeErr(ctx, "watch", "new_client", err)
		return nil
	}
	client.CheckVersionMismatch(currentBuildArgs.Version)

	t, err := client.Follow(id)
	if err != nil {
		common.PrintRuntimeErr(ctx, "watch", "client-follow", err)
		return nil
	}
	if id != trackcli.AllProducts {
		printTrackInfo(t)
	} else {
		fmt.Println(">> Following all refresh updates <<")
	}
	registerRefreshHandlers(client, id, 1)
	return client.Listen()
}
