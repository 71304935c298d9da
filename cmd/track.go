package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli"
	cmdCommon "github.com/tagwatch/tagwatch/cmd/common"
	"github.com/tagwatch/tagwatch/common"
	"github.com/tagwatch/tagwatch/pkg/trackcli"
	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

var (
	trackTitle    string
	trackCurrency string
	trackEvery    string
	trackCron     string
	trackTarget   float64
	trackDrop     float64
	trackCookie   string
	userAgent     string
	batchFile     string
	watchAfter    bool

	trackFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "title, t",
			Usage:       "explicitly set the product title (extracted from the page if not specified)",
			Destination: &trackTitle,
		},
		cli.StringFlag{
			Name:        "currency, c",
			Usage:       "expected ISO currency code of the product price",
			Destination: &trackCurrency,
		},
		cli.StringFlag{
			Name:        "every, e",
			Usage:       "fixed check interval, e.g. 6h or 30m (daemon default if not specified)",
			Destination: &trackEvery,
		},
		cli.StringFlag{
			Name:        "cron",
			Usage:       "cron expression for recurring checks, e.g. \"0 9 * * *\"",
			Destination: &trackCron,
		},
		cli.Float64Flag{
			Name:        "target",
			Usage:       "alert when the price drops to or below this value",
			Destination: &trackTarget,
		},
		cli.Float64Flag{
			Name:        "drop",
			Usage:       "alert when the price drops by this percentage in one check",
			Destination: &trackDrop,
		},
		cli.StringFlag{
			Name:        "cookie",
			Usage:       "session cookies sent with refresh fetches, \"name=value; name2=value2\"",
			Destination: &trackCookie,
		},
		cli.StringFlag{
			Name:        "user-agent, u",
			Usage:       "user agent sent with refresh fetches",
			Destination: &userAgent,
		},
		cli.StringFlag{
			Name:        "batch, b",
			Usage:       "track every url listed in a file (one per line, # comments)",
			Destination: &batchFile,
		},
		cli.BoolFlag{
			Name:        "watch, w",
			Usage:       "stay attached and stream the first price check",
			Destination: &watchAfter,
		},
	}
)

func track(ctx *cli.Context) (err error) {
	url := ctx.Args().First()
	if url == "" && batchFile == "" {
		if ctx.Command.Name == "" {
			return cmdCommon.Help(ctx)
		}
		return cmdCommon.PrintErrWithCmdHelp(
			ctx,
			errors.New("no url provided"),
		)
	} else if url == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}

	opts, err := buildTrackOpts()
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "track", "options", err)
		return nil
	}

	client, err := trackcli.NewClient()
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "track", "new_client", err)
		return
	}
	client.CheckVersionMismatch(currentBuildArgs.Version)

	if batchFile != "" {
		return trackBatch(ctx, client, batchFile, opts)
	}

	url = strings.TrimSpace(url)
	t, err := client.Track(url, opts)
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "track", "client-track", err)
		return nil
	}
	printTrackInfo(t)

	if !watchAfter {
		return nil
	}
	registerRefreshHandlers(client, t.ProductId, 1)
	return client.Listen()
}

func buildTrackOpts() (*trackcli.TrackOpts, error) {
	every, err := parseEvery(trackEvery)
	if err != nil {
		return nil, err
	}
	if _, err := parseCron(trackCron); err != nil {
		return nil, err
	}
	cookieHeader, err := parseCookieString(trackCookie)
	if err != nil {
		return nil, err
	}

	var headers tracklib.Headers
	if cookieHeader != "" {
		headers.Update("Cookie", cookieHeader)
	}
	if userAgent != "" {
		headers.Update(tracklib.USER_AGENT_KEY, userAgent)
	}

	opts := &trackcli.TrackOpts{
		Title:       trackTitle,
		Currency:    trackCurrency,
		Headers:     headers,
		CheckEvery:  every,
		CronExpr:    trackCron,
		DropPercent: trackDrop,
	}
	if trackTarget > 0 {
		opts.TargetPrice = tracklib.PriceFromFloat(trackTarget)
	}
	return opts, nil
}

func printTrackInfo(t *common.TrackResponse) {
	txt := fmt.Sprintf(`
Tracking Info
Title`+"\t\t"+`: %s
Product Id`+"\t"+`: %s
Url`+"\t\t"+`: %s
`,
		t.Title,
		t.ProductId,
		t.Url,
	)
	if !t.Price.IsZero() {
		txt += fmt.Sprintf("Last Price\t: %s\n", t.Price.Format(t.Currency))
	}
	fmt.Println(txt)
}
