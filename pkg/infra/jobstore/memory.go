package jobstore

import (
	"context"
	"sync"

	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
	"github.com/kmafetch/kmafetch/pkg/domain/model"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Memory keeps job records for the lifetime of the process. One mutex guards
// every record; callers only ever see copies.
type Memory struct {
	mu   sync.Mutex
	jobs map[types.JobID]*model.JobStatus
}

var _ interfaces.JobStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		jobs: make(map[types.JobID]*model.JobStatus),
	}
}

func (x *Memory) Create(ctx context.Context, job *model.JobStatus) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, ok := x.jobs[job.ID]; ok {
		return goerr.Wrap(types.ErrValidation, "job already exists", goerr.V("job_id", job.ID))
	}
	x.jobs[job.ID] = job.Copy()
	return nil
}

func (x *Memory) Get(ctx context.Context, id types.JobID) (*model.JobStatus, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	job, ok := x.jobs[id]
	if !ok {
		return nil, goerr.Wrap(types.ErrNotFound, "job not found", goerr.V("job_id", id))
	}
	return job.Copy(), nil
}

// Update applies fn to a working copy and stores it only if fn succeeds.
// Records in a terminal state cannot be updated.
func (x *Memory) Update(ctx context.Context, id types.JobID, fn func(job *model.JobStatus) error) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	job, ok := x.jobs[id]
	if !ok {
		return goerr.Wrap(types.ErrNotFound, "job not found", goerr.V("job_id", id))
	}
	if job.Status.IsTerminal() {
		return goerr.Wrap(types.ErrInvalidTransition, "job already finished",
			goerr.V("job_id", id), goerr.V("status", job.Status))
	}

	work := job.Copy()
	if err := fn(work); err != nil {
		return err
	}
	x.jobs[id] = work
	return nil
}
