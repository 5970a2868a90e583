package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/urfave/cli/v2"

	"github.com/dantte-lp/dataexchange-broker/cmd/monitor"
	"github.com/dantte-lp/dataexchange-broker/config"
)

const (
	ServiceName      = "dataexchange-broker"
	ServiceNamespace = "dantte-lp"
)

var (
	version        = "0.0.0"
	commit         = "hash"
	commitDate     = time.Now().String()
	branch         = "branch"
	buildTimestamp = ""
)

// Run parses os.Args and dispatches to the serve or monitor subcommand,
// mirroring the teacher's single-entrypoint cli.App shape (cmd/cmd.go).
func Run() error {
	app := &cli.App{
		Name:  ServiceName,
		Usage: "Model-coupling data-exchange broker",
		Commands: []*cli.Command{
			serveCmd(),
			monitorCmd(),
		},
	}

	return app.Run(os.Args)
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Run the broker's RPC Surface and ambient services",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to the configuration file (YAML)",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "RPC Surface listen host (overrides config/env)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "RPC Surface listen port (overrides config/env)",
			},
		},
		Action: func(c *cli.Context) error {
			flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
			if c.String("host") != "" {
				flags.String("server.host", c.String("host"), "")
			}
			if c.IsSet("port") {
				flags.Int("server.port", c.Int("port"), "")
			}

			cfg, v, err := config.Load(c.String("config"), flags)
			if err != nil {
				return err
			}

			lp := ProvideLoggerProvider()
			logger := ProvideLogger(cfg, lp)
			config.WatchAndReload(v, func(newLevel string) {
				logger.Info("config_reloaded", slog.String("logging.level", newLevel))
			})

			app := NewApp(cfg)
			if err := app.Start(c.Context); err != nil {
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			logger.Info("shutting_down")
			if err := app.Stop(context.Background()); err != nil {
				return err
			}
			return lp.Shutdown(context.Background())
		},
	}
}

func monitorCmd() *cli.Command {
	return &cli.Command{
		Name:  "monitor",
		Usage: "Terminal dashboard of live session/flag state",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Base URL of a running broker",
				Value: "http://localhost:8080",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Poll interval",
				Value: time.Second,
			},
		},
		Action: func(c *cli.Context) error {
			client := monitor.NewClient(c.String("addr"))
			if err := monitor.Run(c.Context, client, c.Duration("interval")); err != nil {
				return fmt.Errorf("monitor: %w", err)
			}
			return nil
		},
	}
}
