package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli"
	"github.com/tagwatch/tagwatch/cmd/common"
	"github.com/tagwatch/tagwatch/pkg/trackcli"
)

var (
	historySince string
	historyLimit int

	historyFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "since, s",
			Usage:       "only show prices observed within this window, e.g. 72h",
			Destination: &historySince,
		},
		cli.IntFlag{
			Name:        "limit, n",
			Usage:       "maximum number of price points to show",
			Value:       DEF_HISTORY_LIMIT,
			Destination: &historyLimit,
		},
	}
)

func history(ctx *cli.Context) error {
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

	opts := &trackcli.HistoryOpts{Limit: historyLimit}
	if historySince != "" {
		d, err := time.ParseDuration(historySince)
		if err != nil {
			return common.PrintErrWithCmdHelp(
				ctx,
				fmt.Errorf("invalid --since duration %q", historySince),
			)
		}
		opts.Since = time.Now().Add(-d)
	}

	client, err := trackcli.NewClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "history", "new_client", err)
		return nil
	}
	h, err := client.History(id, opts)
	if err != nil {
		common.PrintRuntimeErr(ctx, "history", "get_history", err)
		return nil
	}
	if len(h.Points) == 0 {
		fmt.Println("tagwatch: no recorded prices for", id)
		return nil
	}
	txt := fmt.Sprintf("Price history for %s:", h.ProductId)
	txt += "\n\n--------------------------------------------------"
	txt += "\n|       Observed At      |     Price     | Source |"
	txt += "\n|------------------------|---------------|--------|"
	for _, pt := range h.Points {
		source := pt.Source
		if source == "" {
			source = "fetch"
		}
		if len(source) > 6 {
			source = source[:6]
		}
		txt += fmt.Sprintf("\n| %s | %s | %s |",
			pt.At.Format("2006-01-02 15:04:05 MST"),
			common.Beaut(pt.Price.String(), 13),
			common.Beaut(source, 6),
		)
	}
	txt += "\n--------------------------------------------------"
	fmt.Println(txt)
	return nil
}
