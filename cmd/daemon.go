package cmd

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"time"

	"github.com/urfave/cli"
	"github.com/tagwatch/tagwatch/cmd/common"
	"github.com/tagwatch/tagwatch/internal/config"
	"github.com/tagwatch/tagwatch/internal/daemon"
	"github.com/tagwatch/tagwatch/pkg/logger"
	"github.com/tagwatch/tagwatch/pkg/tracklib"
)

var (
	daemonConfigPath string

	daemonFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "config, c",
			Usage:       "path to the daemon config file",
			Destination: &daemonConfigPath,
		},
	}
)

// daemonShutdownGrace bounds how long component teardown may take before
// the runner forces the stop through.
const daemonShutdownGrace = 10 * time.Second

// daemonCmd runs the tagwatch daemon in the foreground: config load, pid
// file claim, startup sequence, then the socket server until a shutdown
// signal arrives. A retired installation exits cleanly without serving.
func daemonCmd(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	cfg, err := loadDaemonConfig()
	if err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "load_config", err)
		return nil
	}

	if pid, err := ReadPidFile(); err == nil && isProcessRunning(pid) {
		fmt.Printf("Daemon is already running (PID %d)\n", pid)
		return nil
	}
	if err := WritePidFile(); err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "write_pidfile", err)
		return nil
	}
	defer RemovePidFile()

	sctx, cancel := setupShutdownHandler()
	defer cancel()

	l := logger.NewStandardLogger(stdlog.Default())
	comps, err := initDaemonComponents(l, cfg, cancel)
	if err != nil {
		common.PrintRuntimeErr(ctx, "daemon", "init_components", err)
		return nil
	}
	defer comps.Close()

	if err := comps.Sequence.Run(sctx); err != nil {
		if errors.Is(err, daemon.ErrRetired) {
			l.Info("installation retired, exiting")
			return nil
		}
		common.PrintRuntimeErr(ctx, "daemon", "startup_sequence", err)
		return nil
	}

	runner := daemon.New(&daemon.Config{
		ServiceName:     daemon.DefaultServiceName,
		DisplayName:     daemon.DefaultDisplayName,
		ConfigDir:       tracklib.ConfigDir,
		ShutdownTimeout: daemonShutdownGrace,
	}, &daemon.Dependencies{
		ShutdownFunc: comps.Server.Shutdown,
	})

	// A shutdown signal flows through the runner so the server teardown
	// is bounded by the grace period.
	go func() {
		<-sctx.Done()
		if err := runner.Shutdown(); err != nil && !errors.Is(err, daemon.ErrNotRunning) {
			l.Warning("shutdown: %v", err)
		}
	}()

	tracklib.SafeGo(stdlog.Default(), nil, "socket-server", nil, func() {
		if err := comps.Server.Start(sctx); err != nil {
			l.Error("server error: %v", err)
		}
		cancel()
	})

	if err := runner.Start(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
		common.PrintRuntimeErr(ctx, "daemon", "run", err)
	}
	return nil
}

func loadDaemonConfig() (*config.Config, error) {
	if daemonConfigPath != "" {
		return config.Load(daemonConfigPath)
	}
	return config.LoadDefault()
}
