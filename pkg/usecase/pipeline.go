package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
	"github.com/kmafetch/kmafetch/pkg/domain/model"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/time/rate"
)

// Pipeline downloads and materializes every work item of a job in order
type Pipeline struct {
	catalog      *model.Catalog
	newPortal    interfaces.PortalClientFactory
	materializer interfaces.Materializer
	downloadDir  string
	delay        time.Duration
}

type PipelineOption func(*Pipeline)

// WithPoliteDelay sets the minimum spacing between portal requests
func WithPoliteDelay(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		p.delay = d
	}
}

func NewPipeline(catalog *model.Catalog, newPortal interfaces.PortalClientFactory, materializer interfaces.Materializer, downloadDir string, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		catalog:      catalog,
		newPortal:    newPortal,
		materializer: materializer,
		downloadDir:  downloadDir,
		delay:        500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Catalog returns the product catalog used for planning
func (p *Pipeline) Catalog() *model.Catalog {
	return p.catalog
}

// Plan expands cfg into its ordered work items
func (p *Pipeline) Plan(cfg *model.DownloadConfig) (*model.Product, []model.WorkItem, error) {
	product, err := p.catalog.Lookup(cfg.ProductName)
	if err != nil {
		return nil, nil, err
	}

	intervals, err := model.ExpandIntervals(cfg.StartDate, cfg.EndDate, product.Mode)
	if err != nil {
		return nil, nil, err
	}

	return product, model.PlanJob(cfg.Regions, intervals, cfg.Variables), nil
}

// Execute plans cfg, logs in once and processes the items sequentially.
// Only planning and authentication failures are returned; a failed item is
// logged and skipped.
func (p *Pipeline) Execute(ctx context.Context, cfg *model.DownloadConfig, observer interfaces.ProgressObserver) error {
	logger := ctxlog.From(ctx)

	product, items, err := p.Plan(cfg)
	if err != nil {
		return goerr.Wrap(err, "failed to plan job")
	}
	total := len(items)
	observer.OnPlanned(total)

	portal := p.newPortal()
	session, err := portal.Authenticate(ctx, cfg.LoginID, cfg.Password)
	if err != nil {
		return goerr.Wrap(err, "failed to authenticate", goerr.V("login_id", cfg.LoginID))
	}

	limit := rate.Inf
	if p.delay > 0 {
		limit = rate.Every(p.delay)
	}
	limiter := rate.NewLimiter(limit, 1)

	for _, item := range items {
		observer.OnProgress(item.Index, total, item.Label())

		regionDir := filepath.Join(p.downloadDir, safeSegment(product.Name),
			safeSegment(item.Region.Level1), safeSegment(item.Region.Level2), safeSegment(item.Region.Level3))
		varDir := filepath.Join(regionDir, safeSegment(item.Variable.Name))
		stem := safeSegment(item.FileStem())

		if _, err := os.Stat(filepath.Join(varDir, stem+".csv")); err == nil {
			logger.Info("Skip existing file", "item", item.Label())
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return goerr.Wrap(err, "job interrupted", goerr.V("item", item.Label()))
		}

		if !session.Valid() {
			logger.Info("Re-authenticating portal session", "item", item.Label())
			session, err = portal.Authenticate(ctx, cfg.LoginID, cfg.Password)
			if err != nil {
				return goerr.Wrap(err, "failed to re-authenticate", goerr.V("login_id", cfg.LoginID))
			}
		}

		data, err := portal.SubmitAndFetch(ctx, session, product, item)
		if err != nil {
			if errors.Is(err, types.ErrSessionRejected) {
				session.Invalidate()
			}
			logger.Warn("Skip work item", "item", item.Label(), "error", err)
			continue
		}

		paths, err := p.materializer.Materialize(ctx, data, varDir, stem)
		for _, path := range paths {
			observer.OnFileProduced(path)
		}
		if err != nil {
			if errors.Is(err, types.ErrEmptyArchive) {
				// An empty archive is what the portal serves to an expired session.
				session.Invalidate()
			}
			logger.Warn("Failed to materialize archive", "item", item.Label(), "error", err)
		}
	}

	logger.Info("All work items processed", "product", product.Name, "total", total)
	return nil
}

// safeSegment keeps a user supplied name inside its parent directory
func safeSegment(s string) string {
	s = strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(s))
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}
