package interfaces

import (
	"context"
	"io"
	"time"

	"github.com/kmafetch/kmafetch/pkg/domain/model"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
)

// PortalClient drives the KMA data portal with one cookie session
type PortalClient interface {
	// Authenticate logs in and returns a fresh session
	Authenticate(ctx context.Context, loginID, password string) (*model.PortalSession, error)

	// SubmitAndFetch registers the item request and downloads its archive
	SubmitAndFetch(ctx context.Context, session *model.PortalSession, product *model.Product, item model.WorkItem) ([]byte, error)
}

// PortalClientFactory creates a client per job so sessions are never shared
type PortalClientFactory func() PortalClient

// Materializer unpacks a downloaded archive into a destination directory
type Materializer interface {
	Materialize(ctx context.Context, data []byte, destDir, tempName string) ([]string, error)
}

// JobStore keeps download job records for polling
type JobStore interface {
	Create(ctx context.Context, job *model.JobStatus) error
	Get(ctx context.Context, id types.JobID) (*model.JobStatus, error)
	Update(ctx context.Context, id types.JobID, fn func(job *model.JobStatus) error) error
}

// ProgressObserver receives pipeline events in work item order
type ProgressObserver interface {
	OnPlanned(total int)
	OnProgress(current, total int, label string)
	OnFileProduced(path string)
}

// RegionRepository is the persisted region table
type RegionRepository interface {
	ListRegions(ctx context.Context) ([]model.Region, error)
}

// UserRepository holds local accounts
type UserRepository interface {
	GetUser(ctx context.Context, username string) (*model.User, error)
	PutUser(ctx context.Context, user *model.User) error
}

// DownloadLogRepository records produced files per client
type DownloadLogRepository interface {
	AddDownloadLogs(ctx context.Context, logs []*model.DownloadLog) error
	ListDownloadLogs(ctx context.Context, clientID types.ClientID, limit int) ([]*model.DownloadLog, error)
}

// Database is the relational store used by the service
type Database interface {
	RegionRepository
	UserRepository
	DownloadLogRepository
	io.Closer
}

// ASOSClient fetches hourly ASOS observations from the public data API.
// An empty serviceKey selects the client's configured key.
type ASOSClient interface {
	FetchHourly(ctx context.Context, serviceKey, stationID string, start, end time.Time) ([]model.ASOSRecord, error)
}

// Notifier posts a short message to an external channel
type Notifier interface {
	Notify(ctx context.Context, msg string) error
}
