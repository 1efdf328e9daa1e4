package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kmafetch/kmafetch/pkg/cli/config"
	controller "github.com/kmafetch/kmafetch/pkg/controller/http"
	"github.com/kmafetch/kmafetch/pkg/domain/model"
	"github.com/kmafetch/kmafetch/pkg/infra/archive"
	"github.com/kmafetch/kmafetch/pkg/infra/jobstore"
	"github.com/kmafetch/kmafetch/pkg/usecase"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdServe(notifyCfg *config.Notify) *cli.Command {
	var (
		serverCfg  config.Server
		storageCfg config.Storage
		portalCfg  config.Portal
		asosCfg    config.ASOS
		authCfg    config.Auth
	)

	var flags []cli.Flag
	flags = append(flags, serverCfg.Flags()...)
	flags = append(flags, storageCfg.Flags()...)
	flags = append(flags, portalCfg.Flags()...)
	flags = append(flags, asosCfg.Flags()...)
	flags = append(flags, authCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting kmafetch server",
				slog.String("addr", serverCfg.Addr),
				slog.Any("storage", storageCfg),
				slog.Any("asos", asosCfg),
			)

			catalog, err := model.LoadCatalog()
			if err != nil {
				return err
			}

			db, err := storageCfg.OpenDB(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to open database")
			}
			defer db.Close()

			stations, err := storageCfg.Stations(ctx, true)
			if err != nil {
				return err
			}

			// Create use cases
			pipeline := usecase.NewPipeline(catalog, portalCfg.Factory(), archive.New(), storageCfg.DownloadDir,
				usecase.WithPoliteDelay(portalCfg.Delay))

			downloadOpts := []usecase.DownloadOption{usecase.WithDownloadLogs(db)}
			if n := notifyCfg.Notifier(); n != nil {
				downloadOpts = append(downloadOpts, usecase.WithNotifier(n))
			}
			downloadUC := usecase.NewDownload(pipeline, jobstore.NewMemory(), downloadOpts...)

			regionUC, err := usecase.NewRegion(ctx, db, stations)
			if err != nil {
				return err
			}

			authUC, err := usecase.NewAuth(portalCfg.Factory(), db,
				usecase.WithJWTSecret(authCfg.JWTSecret),
				usecase.WithTokenTTL(authCfg.TokenTTL),
			)
			if err != nil {
				return err
			}

			server, err := controller.NewServer(ctx, controller.UseCases{
				Download: downloadUC,
				Region:   regionUC,
				Auth:     authUC,
				ASOS:     usecase.NewASOS(asosCfg.Client(), stations),
				Artifact: usecase.NewArtifact(storageCfg.DownloadDir),
			},
				controller.WithAddr(serverCfg.Addr),
				controller.WithSecureCookie(serverCfg.SecureCookie),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
