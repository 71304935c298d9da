package ext

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli"
	"github.com/tagwatch/tagwatch/cmd/common"
)

func info(ctx *cli.Context) error {
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
		common.PrintRuntimeErr(ctx, "ext-info", "new_client", err)
		return nil
	}
	extInfo, err := client.GetExtractor(id)
	if err != nil {
		common.PrintRuntimeErr(ctx, "ext-info", "get-extractor", err)
		return nil
	}
	fmt.Printf(`Extractor Info:
	Name: %s
	Version: %s
	Description: %s
	Matches: %s
	Active: %t
`,
		extInfo.Name,
		extInfo.Version,
		extInfo.Description,
		strings.Join(extInfo.Matches, ", "),
		extInfo.Active,
	)
	return nil
}
