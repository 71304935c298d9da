package cmd

import (
	"fmt"
	"sort"

	"github.com/urfave/cli"
	cmdCommon "github.com/tagwatch/tagwatch/cmd/common"
	"github.com/tagwatch/tagwatch/pkg/trackcli"
	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

var (
	showPaused bool
	showAll    bool

	lsFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "show-paused, p",
			Usage:       "use this flag to include paused products (default: false)",
			Destination: &showPaused,
		},
		cli.BoolFlag{
			Name:        "show-all, a",
			Usage:       "use this flag to list all products (default: false)",
			Destination: &showAll,
		},
	}
)

func list(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client, err := trackcli.NewClient()
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "list", "new_client", err)
		return nil
	}
	l, err := client.List(&trackcli.ListOpts{
		ShowPaused: showPaused || showAll,
		ShowAll:    showAll,
	})
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "list", "get_list", err)
		return nil
	}
	fback := func() error {
		fmt.Println("tagwatch: no tracked products found")
		return nil
	}
	if len(l.Products) == 0 {
		return fback()
	}
	txt := "Here are your tracked products:"
	txt += "\n\n----------------------------------------------------------------------"
	txt += "\n|Num|\t         Title         |  Product Id  |     Price     | Alert |"
	txt += "\n|---|--------------------------|--------------|---------------|-------|"
	var i int
	sort.Sort(tracklib.ProductSlice(l.Products))
	for _, p := range l.Products {
		if !showPaused && !showAll && p.Paused {
			continue
		}
		i++
		title := p.Title
		n := len(title)
		switch {
		case n > 24:
			title = title[:21] + "..."
		case n < 24:
			title = cmdCommon.Beaut(title, 24)
		}
		price := "-"
		if !p.CurrentPrice.IsZero() {
			price = p.CurrentPrice.Format(p.Currency)
		}
		alert := " "
		if p.Alert != nil {
			alert = "*"
		}
		txt += fmt.Sprintf("\n| %d | %s | %s | %s |   %s   |",
			i, title, p.Hash, cmdCommon.Beaut(price, 13), alert)
	}
	if i == 0 {
		return fback()
	}
	txt += "\n----------------------------------------------------------------------"
	fmt.Println(txt)
	return nil
}
