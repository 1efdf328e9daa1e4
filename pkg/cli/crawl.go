package cli

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/kmafetch/kmafetch/pkg/cli/config"
	"github.com/kmafetch/kmafetch/pkg/domain/model"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/kmafetch/kmafetch/pkg/infra/archive"
	"github.com/kmafetch/kmafetch/pkg/usecase"
	"github.com/kmafetch/kmafetch/pkg/utils/errs"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdCrawl(notifyCfg *config.Notify) *cli.Command {
	var (
		storageCfg config.Storage
		portalCfg  config.Portal
		credCfg    config.Credentials
		products   []string
		order      string
		start      string
		end        string
	)

	var flags []cli.Flag
	flags = append(flags, storageCfg.Flags()...)
	flags = append(flags, portalCfg.Flags()...)
	flags = append(flags, credCfg.Flags()...)
	flags = append(flags,
		&cli.StringSliceFlag{
			Name:        "product",
			Usage:       "Product to crawl (repeatable). Defaults to every product in the catalog, legacy ones included",
			Destination: &products,
		},
		&cli.StringFlag{
			Name:        "order",
			Usage:       "Region order: asc or desc",
			Value:       "asc",
			Destination: &order,
		},
		&cli.StringFlag{
			Name:        "start",
			Usage:       "Start date (YYYY-MM-DD). Defaults to the first date the product is served",
			Destination: &start,
		},
		&cli.StringFlag{
			Name:        "end",
			Usage:       "End date (YYYY-MM-DD). Defaults to the last date the product is served",
			Destination: &end,
		},
	)

	return &cli.Command{
		Name:  "crawl",
		Usage: "Download every region and variable of products into the download directory",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			if order != "asc" && order != "desc" {
				return goerr.Wrap(types.ErrValidation, "order must be asc or desc", goerr.V("order", order))
			}

			catalog, err := model.LoadCatalog()
			if err != nil {
				return err
			}

			targets, err := catalog.Select(products)
			if err != nil {
				return err
			}

			db, err := storageCfg.OpenDB(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to open database")
			}
			defer db.Close()

			regions, err := db.ListRegions(ctx)
			if err != nil {
				return err
			}
			if order == "desc" {
				slices.Reverse(regions)
			}

			pipeline := usecase.NewPipeline(catalog, portalCfg.Factory(), archive.New(), storageCfg.DownloadDir,
				usecase.WithPoliteDelay(portalCfg.Delay))
			notifier := notifyCfg.Notifier()

			for _, product := range targets {
				cfg, err := crawlConfig(&product, regions, credCfg, start, end)
				if err != nil {
					return err
				}

				logger.Info("Crawling product",
					"product", product.Name,
					"regions", len(regions),
					"start", cfg.StartDate.Format(time.DateOnly),
					"end", cfg.EndDate.Format(time.DateOnly),
				)

				obs := &logObserver{ctx: ctx}
				if err := pipeline.Execute(ctx, cfg, obs); err != nil {
					errs.Handle(ctx, "crawl failed", err)
					return err
				}

				if notifier != nil {
					msg := fmt.Sprintf("Crawl of %s finished: %d files", product.Name, obs.files)
					if err := notifier.Notify(ctx, msg); err != nil {
						logger.Warn("Failed to send notification", "error", err)
					}
				}
			}

			return nil
		},
	}
}

func crawlConfig(product *model.Product, regions []model.Region, cred config.Credentials, start, end string) (*model.DownloadConfig, error) {
	startDate, endDate, err := product.DefaultRange()
	if err != nil {
		return nil, err
	}
	if start != "" {
		if startDate, err = time.Parse(time.DateOnly, start); err != nil {
			return nil, goerr.Wrap(types.ErrValidation, "start must be YYYY-MM-DD", goerr.V("start", start))
		}
	}
	if end != "" {
		if endDate, err = time.Parse(time.DateOnly, end); err != nil {
			return nil, goerr.Wrap(types.ErrValidation, "end must be YYYY-MM-DD", goerr.V("end", end))
		}
	}

	cfg := &model.DownloadConfig{
		LoginID:     cred.LoginID,
		Password:    cred.Password,
		ProductName: product.Name,
		Regions:     regions,
		Variables:   product.Variables,
		StartDate:   startDate,
		EndDate:     endDate,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// logObserver reports pipeline progress to the log
type logObserver struct {
	ctx   context.Context
	total int
	files int
}

func (o *logObserver) OnPlanned(total int) {
	o.total = total
	ctxlog.From(o.ctx).Info("Planned work items", "total", total)
}

func (o *logObserver) OnProgress(current, total int, label string) {
	ctxlog.From(o.ctx).Info("Downloading", "progress", fmt.Sprintf("%d/%d", current, total), "item", label)
}

func (o *logObserver) OnFileProduced(path string) {
	o.files++
	ctxlog.From(o.ctx).Debug("File produced", "path", path)
}
