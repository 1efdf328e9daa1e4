package interfaces

//go:generate moq -out mocks/usecase_mock.go -pkg mocks . DownloadUseCase RegionUseCase AuthUseCase ASOSUseCase ArtifactUseCase

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/kmafetch/kmafetch/pkg/domain/model"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
)

// DownloadUseCase runs portal download jobs
type DownloadUseCase interface {
	// Submit validates cfg, registers a job and starts it in the background
	Submit(ctx context.Context, cfg *model.DownloadConfig, meta model.JobMeta) (*model.JobStatus, error)

	// Run executes a registered job synchronously
	Run(ctx context.Context, id types.JobID, cfg *model.DownloadConfig, meta model.JobMeta) error

	// Status returns a snapshot of the job
	Status(ctx context.Context, id types.JobID) (*model.JobStatus, error)

	// Products lists products offered for interactive download
	Products() []model.Product

	// History lists files produced for a client
	History(ctx context.Context, clientID types.ClientID) ([]*model.DownloadLog, error)
}

// RegionUseCase answers region and station lookups
type RegionUseCase interface {
	SearchRegions(ctx context.Context, term string) ([]model.Region, error)
	SearchStations(ctx context.Context, term string) ([]model.Station, error)
}

// AuthUseCase issues and verifies bearer tokens
type AuthUseCase interface {
	Login(ctx context.Context, username, password string) (*model.Token, error)
	Verify(ctx context.Context, token string) (string, error)
}

// ASOSUseCase exports ASOS observations as CSV
type ASOSUseCase interface {
	ExportCSV(ctx context.Context, w io.Writer, req ASOSRequest) (int, error)
	Collect(ctx context.Context, w io.Writer, req ASOSCollectRequest) (int, error)
}

// ASOSRequest selects one station and a date range
type ASOSRequest struct {
	StationKey string
	Start      time.Time
	End        time.Time
	ServiceKey string
}

// ASOSCollectRequest selects several stations for a batch export
type ASOSCollectRequest struct {
	StationKeys []string
	Exclude     []string
	Start       time.Time
	End         time.Time
	ServiceKey  string
}

// ArtifactUseCase exposes materialized files
type ArtifactUseCase interface {
	List(ctx context.Context) ([]*model.ArtifactFile, error)
	Open(ctx context.Context, relPath string) (*os.File, error)
}
