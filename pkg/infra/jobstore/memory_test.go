package jobstore_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kmafetch/kmafetch/pkg/domain/model"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/kmafetch/kmafetch/pkg/infra/jobstore"
	"github.com/m-mizutani/gt"
)

func TestMemory_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := jobstore.NewMemory()
	id := types.NewJobID()

	gt.NoError(t, store.Create(ctx, model.NewJobStatus(id, time.Now())))

	got, err := store.Get(ctx, id)
	gt.NoError(t, err)
	gt.Equal(t, got.Status, model.JobStarted)

	gt.NoError(t, store.Update(ctx, id, func(job *model.JobStatus) error {
		job.Total = 4
		job.Progress = 1
		job.CurrentItem = "청운효자동 - 기온 (202301~202301)"
		return job.SetState(model.JobDownloading)
	}))
	gt.NoError(t, store.Update(ctx, id, func(job *model.JobStatus) error {
		job.Progress = job.Total
		return job.SetState(model.JobCompleted)
	}))

	got, err = store.Get(ctx, id)
	gt.NoError(t, err)
	gt.Equal(t, got.Status, model.JobCompleted)
	gt.Equal(t, got.Progress, 4)

	err = store.Update(ctx, id, func(job *model.JobStatus) error {
		return job.SetState(model.JobError)
	})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrInvalidTransition))
}

func TestMemory_NotFound(t *testing.T) {
	ctx := context.Background()
	store := jobstore.NewMemory()

	_, err := store.Get(ctx, "unknown")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, types.ErrNotFound))

	err = store.Update(ctx, "unknown", func(job *model.JobStatus) error { return nil })
	gt.True(t, errors.Is(err, types.ErrNotFound))
}

func TestMemory_FailedUpdateIsDiscarded(t *testing.T) {
	ctx := context.Background()
	store := jobstore.NewMemory()
	id := types.NewJobID()
	gt.NoError(t, store.Create(ctx, model.NewJobStatus(id, time.Now())))

	err := store.Update(ctx, id, func(job *model.JobStatus) error {
		job.Progress = 99
		return fmt.Errorf("boom")
	})
	gt.Error(t, err)

	got, err := store.Get(ctx, id)
	gt.NoError(t, err)
	gt.Equal(t, got.Progress, 0)
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := jobstore.NewMemory()
	id := types.NewJobID()
	gt.NoError(t, store.Create(ctx, model.NewJobStatus(id, time.Now())))

	got, err := store.Get(ctx, id)
	gt.NoError(t, err)
	got.Files = append(got.Files, "leak.csv")
	got.Progress = 10

	again, err := store.Get(ctx, id)
	gt.NoError(t, err)
	gt.A(t, again.Files).Length(0)
	gt.Equal(t, again.Progress, 0)
}

func TestMemory_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	store := jobstore.NewMemory()
	id := types.NewJobID()
	gt.NoError(t, store.Create(ctx, model.NewJobStatus(id, time.Now())))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = store.Update(ctx, id, func(job *model.JobStatus) error {
				job.Files = append(job.Files, fmt.Sprintf("%d.csv", i))
				return nil
			})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = store.Get(ctx, id)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, id)
	gt.NoError(t, err)
	gt.A(t, got.Files).Length(50)
}
