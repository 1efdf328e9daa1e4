package cli

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/kmafetch/kmafetch/pkg/cli/config"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Run runs the CLI application
func Run(ctx context.Context, args []string) error {
	var (
		loggerCfg config.Logger
		notifyCfg config.Notify
		logger    *slog.Logger
		flush     = func() {}
	)

	// .env must be loaded before flags read their environment sources
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return goerr.Wrap(err, "failed to load .env")
	}

	app := &cli.Command{
		Name:    "kmafetch",
		Usage:   "KMA weather data downloader",
		Version: types.Version,
		Flags:   append(loggerCfg.Flags(), notifyCfg.Flags()...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			var err error
			logger, err = loggerCfg.Configure()
			if err != nil {
				return nil, err
			}

			slog.SetDefault(logger)
			ctx = ctxlog.With(ctx, logger)

			flush, err = notifyCfg.ConfigureSentry(ctx)
			if err != nil {
				return nil, err
			}
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			flush()
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(&notifyCfg),
			cmdCrawl(&notifyCfg),
			cmdASOS(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("CLI execution failed", slog.Any("error", err))
		return err
	}

	return nil
}
