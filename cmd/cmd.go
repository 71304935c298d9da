package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"
	"github.com/tagwatch/tagwatch/cmd/common"
	"github.com/tagwatch/tagwatch/cmd/ext"
	"github.com/tagwatch/tagwatch/cmd/nativehost"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

var currentBuildArgs BuildArgs

func Execute(args []string, bArgs BuildArgs) error {
	currentBuildArgs = bArgs
	common.VersionCmdStr = fmt.Sprintf(
		"tagwatch %s-%s (%s_%s)\nBuild: %s=%s",
		bArgs.Version, bArgs.BuildType,
		runtime.GOOS, runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	app := cli.App{
		Name:                  "tagwatch",
		HelpName:              "tagwatch",
		Usage:                 "A product price tracker with alerts.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "tagwatch <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Commands: []cli.Command{
			{
				Name:   "daemon",
				Usage:  "run the tagwatch daemon in the foreground",
				Action: daemonCmd,
				Flags:  daemonFlags,
			},
			{
				Name:   "stop-daemon",
				Usage:  "stop a running tagwatch daemon",
				Action: stopDaemon,
			},
			{
				Name:                   "track",
				Aliases:                []string{"t"},
				Usage:                  "start tracking a product page",
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				OnUsageError:           common.UsageErrorCallback,
				Action:                 track,
				Flags:                  trackFlags,
				UseShortOptionHandling: true,
				Description:            TrackDescription,
			},
			{
				Name:                   "untrack",
				Usage:                  "stop tracking a product",
				Description:            UntrackDescription,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Action:                 untrack,
				UseShortOptionHandling: true,
			},
			{
				Name:                   "list",
				Aliases:                []string{"l"},
				Usage:                  "display tracked products",
				Action:                 list,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Description:            ListDescription,
				UseShortOptionHandling: true,
				Flags:                  lsFlags,
			},
			{
				Name:                   "history",
				Aliases:                []string{"hi"},
				Usage:                  "show the recorded price history of a product",
				Action:                 history,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Description:            HistoryDescription,
				UseShortOptionHandling: true,
				Flags:                  historyFlags,
			},
			{
				Name:                   "refresh",
				Aliases:                []string{"r"},
				Usage:                  "re-check prices now",
				Description:            RefreshDescription,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Action:                 refresh,
				UseShortOptionHandling: true,
				Flags:                  refreshFlags,
			},
			{
				Name:               "watch",
				Aliases:            []string{"w"},
				Usage:              "follow live refresh updates for a product",
				Description:        WatchDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             watch,
				Flags:              watchFlags,
			},
			{
				Name:                   "alert",
				Aliases:                []string{"a"},
				Usage:                  "set or clear a price alert",
				Description:            AlertDescription,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Action:                 alert,
				UseShortOptionHandling: true,
				Flags:                  alertFlags,
			},
			{
				Name:               "status",
				Aliases:            []string{"s"},
				Usage:              "show daemon status and retirement stage",
				Description:        StatusDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             status,
			},
			{
				Name:               "feed",
				Usage:              "sync merchant price feeds",
				Description:        FeedDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             feedSync,
			},
			{
				Name:               "cookies",
				Usage:              "import retailer session cookies from a browser",
				Description:        CookiesDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             importCookies,
				Flags:              cookieFlags,
			},
			{
				Name:         "extractor",
				Aliases:      []string{"ext"},
				Usage:        "manage price extractor modules",
				OnUsageError: common.UsageErrorCallback,
				Subcommands:  ext.Commands,
			},
			{
				Name:         "host",
				Usage:        "manage the browser native messaging host",
				OnUsageError: common.UsageErrorCallback,
				Subcommands:  nativehost.Commands,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of tagwatch",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		},
		Action:                 track,
		Flags:                  trackFlags,
		UseShortOptionHandling: true,
		HideHelp:               true,
		HideVersion:            true,
	}
	return app.Run(args)
}
