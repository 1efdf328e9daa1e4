package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
	"github.com/kmafetch/kmafetch/pkg/domain/model"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/kmafetch/kmafetch/pkg/utils/async"
	"github.com/kmafetch/kmafetch/pkg/utils/errs"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

const historyLimit = 100

type downloadUseCase struct {
	pipeline *Pipeline
	store    interfaces.JobStore
	logs     interfaces.DownloadLogRepository
	notifier interfaces.Notifier
	now      func() time.Time
}

type DownloadOption func(*downloadUseCase)

// WithDownloadLogs records produced files per client after a job completes
func WithDownloadLogs(repo interfaces.DownloadLogRepository) DownloadOption {
	return func(uc *downloadUseCase) {
		uc.logs = repo
	}
}

// WithNotifier posts a message when a job finishes
func WithNotifier(n interfaces.Notifier) DownloadOption {
	return func(uc *downloadUseCase) {
		uc.notifier = n
	}
}

// WithClock replaces the time source
func WithClock(now func() time.Time) DownloadOption {
	return func(uc *downloadUseCase) {
		uc.now = now
	}
}

// NewDownload creates a new instance of DownloadUseCase
func NewDownload(pipeline *Pipeline, store interfaces.JobStore, opts ...DownloadOption) interfaces.DownloadUseCase {
	uc := &downloadUseCase{
		pipeline: pipeline,
		store:    store,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *downloadUseCase) Submit(ctx context.Context, cfg *model.DownloadConfig, meta model.JobMeta) (*model.JobStatus, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	_, items, err := uc.pipeline.Plan(cfg)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, goerr.Wrap(types.ErrValidation, "unknown product", goerr.V("config_name", cfg.ProductName))
		}
		return nil, err
	}

	id := types.NewJobID()
	job := model.NewJobStatus(id, uc.now())
	job.Total = len(items)
	if err := uc.store.Create(ctx, job); err != nil {
		return nil, goerr.Wrap(err, "failed to register job", goerr.V("job_id", id))
	}

	ctxlog.From(ctx).Info("Download job submitted",
		"job_id", id,
		"product", cfg.ProductName,
		"regions", len(cfg.Regions),
		"variables", len(cfg.Variables),
		"client_id", meta.ClientID,
	)

	async.Dispatch(ctx, func(ctx context.Context) error {
		return uc.Run(ctx, id, cfg, meta)
	})

	return uc.store.Get(ctx, id)
}

func (uc *downloadUseCase) Run(ctx context.Context, id types.JobID, cfg *model.DownloadConfig, meta model.JobMeta) error {
	logger := ctxlog.From(ctx).With("job_id", id)
	ctx = ctxlog.With(ctx, logger)

	obs := &jobObserver{ctx: ctx, id: id, store: uc.store}
	runErr := uc.pipeline.Execute(ctx, cfg, obs)

	finished := uc.now()
	if runErr != nil {
		msg := runErr.Error()
		if err := uc.store.Update(ctx, id, func(job *model.JobStatus) error {
			if err := job.SetState(model.JobError); err != nil {
				return err
			}
			job.Error = &msg
			job.FinishedAt = &finished
			return nil
		}); err != nil {
			logger.Warn("Failed to record job error", "error", err)
		}
		errs.Handle(ctx, "download job failed", runErr)
		uc.notify(ctx, fmt.Sprintf("Download job %s failed: %s", id, msg))
		return nil
	}

	if err := uc.store.Update(ctx, id, func(job *model.JobStatus) error {
		if err := job.SetState(model.JobCompleted); err != nil {
			return err
		}
		job.Progress = job.Total
		job.CurrentItem = model.CompletedLabel
		job.FinishedAt = &finished
		return nil
	}); err != nil {
		return goerr.Wrap(err, "failed to complete job", goerr.V("job_id", id))
	}

	files := obs.producedFiles()
	logger.Info("Download job completed", "files", len(files))

	if uc.logs != nil && meta.ClientID != "" && len(files) > 0 {
		records := make([]*model.DownloadLog, 0, len(files))
		for _, f := range files {
			records = append(records, &model.DownloadLog{
				ClientID:  meta.ClientID,
				Filename:  filepath.Base(f),
				Status:    model.DownloadLogSuccess,
				CreatedAt: finished,
			})
		}
		if err := uc.logs.AddDownloadLogs(ctx, records); err != nil {
			errs.Handle(ctx, "failed to save download logs", err)
		}
	}

	uc.notify(ctx, fmt.Sprintf("Download job %s completed: %d files (%s)", id, len(files), cfg.ProductName))
	return nil
}

func (uc *downloadUseCase) notify(ctx context.Context, msg string) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.Notify(ctx, msg); err != nil {
		ctxlog.From(ctx).Warn("Failed to send notification", "error", err)
	}
}

func (uc *downloadUseCase) Status(ctx context.Context, id types.JobID) (*model.JobStatus, error) {
	return uc.store.Get(ctx, id)
}

func (uc *downloadUseCase) Products() []model.Product {
	return uc.pipeline.Catalog().Current()
}

func (uc *downloadUseCase) History(ctx context.Context, clientID types.ClientID) ([]*model.DownloadLog, error) {
	if uc.logs == nil || clientID == "" {
		return []*model.DownloadLog{}, nil
	}
	return uc.logs.ListDownloadLogs(ctx, clientID, historyLimit)
}

// jobObserver mirrors pipeline events into the job store
type jobObserver struct {
	ctx   context.Context
	id    types.JobID
	store interfaces.JobStore

	mu    sync.Mutex
	files []string
}

func (o *jobObserver) OnPlanned(total int) {
	o.update(func(job *model.JobStatus) error {
		job.Total = total
		return nil
	})
}

func (o *jobObserver) OnProgress(current, total int, label string) {
	o.update(func(job *model.JobStatus) error {
		if err := job.SetState(model.JobDownloading); err != nil {
			return err
		}
		job.Progress = current
		job.Total = total
		job.CurrentItem = label
		return nil
	})
}

func (o *jobObserver) OnFileProduced(path string) {
	o.mu.Lock()
	o.files = append(o.files, path)
	o.mu.Unlock()

	o.update(func(job *model.JobStatus) error {
		job.Files = append(job.Files, path)
		return nil
	})
}

func (o *jobObserver) producedFiles() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string{}, o.files...)
}

func (o *jobObserver) update(fn func(job *model.JobStatus) error) {
	if err := o.store.Update(o.ctx, o.id, fn); err != nil {
		ctxlog.From(o.ctx).Warn("Failed to update job status", "error", err)
	}
}
