package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/jamroom/internal/shared"
	"github.com/urfave/cli/v3"
)

// now is replaced in tests.
var now = time.Now

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(runner).Run(ctx, os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		runner.logger.Fatalf("application error: %v", err)
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "jamroom",
		Usage:    "Listen together: shared rooms, a voted queue and a synced player",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Before:   r.Before,
		After:    r.After,
		Commands: r.register(),
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
			Sources: cli.EnvVars("JAMROOM_CONFIG"),
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Usage:   "Enable debug logging",
			Sources: cli.EnvVars("JAMROOM_VERBOSE"),
		},
		&cli.StringFlag{
			Name:    "log-file",
			Usage:   "Write logs to a file instead of stderr",
			Sources: cli.EnvVars("JAMROOM_LOG_FILE"),
		},
		&cli.BoolFlag{
			Name:    "json",
			Usage:   "Output JSON",
			Sources: cli.EnvVars("JAMROOM_JSON"),
		},
	}
}
