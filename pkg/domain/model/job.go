package model

import (
	"fmt"
	"time"

	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// JobState is the lifecycle state of a download job
type JobState string

const (
	JobStarted     JobState = "started"
	JobDownloading JobState = "downloading"
	JobCompleted   JobState = "completed"
	JobError       JobState = "error"
)

// CompletedLabel is the current item label of a finished job
const CompletedLabel = "완료"

func (s JobState) IsTerminal() bool {
	return s == JobCompleted || s == JobError
}

// CanTransitionTo reports whether s may move to next
func (s JobState) CanTransitionTo(next JobState) bool {
	switch s {
	case JobStarted:
		return next == JobStarted || next == JobDownloading || next == JobCompleted || next == JobError
	case JobDownloading:
		return next == JobDownloading || next == JobCompleted || next == JobError
	}
	return false
}

// JobStatus is the polled record of a download job
type JobStatus struct {
	ID          types.JobID `json:"task_id"`
	Status      JobState    `json:"status"`
	Progress    int         `json:"progress"`
	Total       int         `json:"total"`
	CurrentItem string      `json:"current_item"`
	Error       *string     `json:"error"`
	Files       []string    `json:"files"`
	StartTime   time.Time   `json:"start_time"`
	FinishedAt  *time.Time  `json:"finished_at,omitempty"`
}

// NewJobStatus returns the initial record of a submitted job
func NewJobStatus(id types.JobID, now time.Time) *JobStatus {
	return &JobStatus{
		ID:        id,
		Status:    JobStarted,
		Files:     []string{},
		StartTime: now,
	}
}

// SetState moves the job to next, refusing to leave a terminal state
func (x *JobStatus) SetState(next JobState) error {
	if !x.Status.CanTransitionTo(next) {
		return goerr.Wrap(types.ErrInvalidTransition, "job state cannot change",
			goerr.V("job_id", x.ID),
			goerr.V("from", x.Status),
			goerr.V("to", next))
	}
	x.Status = next
	return nil
}

// Copy returns a deep copy safe to hand out of the job store
func (x *JobStatus) Copy() *JobStatus {
	c := *x
	c.Files = append([]string{}, x.Files...)
	if x.Error != nil {
		msg := *x.Error
		c.Error = &msg
	}
	if x.FinishedAt != nil {
		t := *x.FinishedAt
		c.FinishedAt = &t
	}
	return &c
}

// Elapsed is the time since start, frozen once the job has finished
func (x *JobStatus) Elapsed(now time.Time) time.Duration {
	if x.FinishedAt != nil {
		return x.FinishedAt.Sub(x.StartTime)
	}
	return now.Sub(x.StartTime)
}

// FormatElapsed renders d as H:MM:SS
func FormatElapsed(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := int(d / time.Hour)
	m := int(d%time.Hour) / int(time.Minute)
	s := int(d%time.Minute) / int(time.Second)
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
