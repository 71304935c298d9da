package ext

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli"
	"github.com/tagwatch/tagwatch/cmd/common"
)

var (
	showAll bool

	lsFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "show-all, a",
			Usage:       "use this flag to list inactive extractors too (default: false)",
			Destination: &showAll,
		},
	}
)

func list(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client, err := newClient()
	if err != nil {
		common.PrintRuntimeErr(ctx, "ext-ls", "new_client", err)
		return nil
	}
	exts, err := client.ListExtractors(showAll)
	if err != nil {
		common.PrintRuntimeErr(ctx, "ext-ls", "list-extractors", err)
		return nil
	}
	if len(exts) == 0 {
		fmt.Println("No extractors installed.")
		return nil
	}
	txt := "-----------------------------------------------------------------"
	txt += "\n|Num|\t       Name           |     Unique Hash     |  Active   |"
	txt += "\n|---|-------------------------|---------------------|-----------|"
	var i int
	for _, ext := range exts {
		i++
		name := ext.Name
		n := len(name)
		switch {
		case n > 23:
			name = name[:20] + "..."
		case n < 23:
			name = common.Beaut(name, 23)
		}
		txt += fmt.Sprintf("\n| %d | %s |   %s  |   %s   |", i, name, ext.ExtractorId, common.Beaut(strconv.FormatBool(ext.Active), 5))
	}
	txt += "\n-----------------------------------------------------------------"
	fmt.Println(txt)
	return nil
}
