package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli"
	"github.com/tagwatch/tagwatch/cmd/common"
	"github.com/tagwatch/tagwatch/pkg/trackcli"
	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

var (
	alertTarget float64
	alertDrop   float64
	alertClear  bool

	alertFlags = []cli.Flag{
		cli.Float64Flag{
			Name:        "target, t",
			Usage:       "alert when the price drops to or below this value",
			Destination: &alertTarget,
		},
		cli.Float64Flag{
			Name:        "drop, d",
			Usage:       "alert when the price drops by this percentage in one check",
			Destination: &alertDrop,
		},
		cli.BoolFlag{
			Name:        "clear, c",
			Usage:       "remove the product's alert rule",
			Destination: &alertClear,
		},
	}
)

func alert(ctx *cli.Context) (err error) {
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
	if !alertClear && alertTarget <= 0 && alertDrop <= 0 {
		return common.PrintErrWithCmdHelp(
			ctx,
			errors.New("set --target or --drop, or pass --clear"),
		)
	}

	client, err := trackcli.NewClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "alert", "new_client", err)
		return nil
	}

	if alertClear {
		if _, err = client.ClearAlert(id); err != nil {
			common.PrintRuntimeErr(ctx, "alert", "clear-alert", err)
			return nil
		}
		fmt.Println("Alert cleared.")
		return nil
	}

	var target tracklib.Price
	if alertTarget > 0 {
		target = tracklib.PriceFromFloat(alertTarget)
	}
	a, err := client.SetAlert(id, target, alertDrop)
	if err != nil {
		common.PrintRuntimeErr(ctx, "alert", "set-alert", err)
		return nil
	}
	txt := "Alert set."
	if a.Rule != nil {
		if !a.Rule.TargetPrice.IsZero() {
			txt += fmt.Sprintf(" Target price: %s.", a.Rule.TargetPrice.String())
		}
		if a.Rule.DropPercent > 0 {
			txt += fmt.Sprintf(" Drop: %.1f%%.", a.Rule.DropPercent)
		}
	}
	fmt.Println(txt)
	return nil
}
