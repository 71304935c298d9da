package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli"
	cmdCommon "github.com/tagwatch/tagwatch/cmd/common"
	"github.com/tagwatch/tagwatch/pkg/trackcli"
)

func status(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client, err := trackcli.NewClient()
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "status", "new_client", err)
		return nil
	}
	st, err := client.Status()
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "status", "get-status", err)
		return nil
	}
	fmt.Printf(`Daemon Status:
	Version: %s
	Uptime: %s
	Products: %d
	Alerts: %d
	Stage: %s
`,
		st.Version,
		(time.Duration(st.Uptime) * time.Second).String(),
		st.Products,
		st.Alerts,
		st.RetireStage,
	)
	if st.InitialNoticeDate > 0 {
		fmt.Printf("\tInitial Notice: %s\n",
			time.Unix(st.InitialNoticeDate, 0).Format(time.RFC1123))
	}
	if st.FinalNoticeDate > 0 {
		fmt.Printf("\tFinal Notice: %s\n",
			time.Unix(st.FinalNoticeDate, 0).Format(time.RFC1123))
	}
	return nil
}
