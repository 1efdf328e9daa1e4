package http_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	controller "github.com/kmafetch/kmafetch/pkg/controller/http"
	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
	"github.com/kmafetch/kmafetch/pkg/domain/model"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/kmafetch/kmafetch/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

type mocks struct {
	jobs      map[types.JobID]*model.JobStatus
	statusErr error
	submitted []*model.DownloadConfig
	metas     []model.JobMeta
	history   []*model.DownloadLog

	regions  []model.Region
	stations []model.Station

	validUser string

	asosRows  int
	asosErr   error
	asosReqs  []interfaces.ASOSRequest
	artifacts interfaces.ArtifactUseCase
}

func (m *mocks) Submit(ctx context.Context, cfg *model.DownloadConfig, meta model.JobMeta) (*model.JobStatus, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m.submitted = append(m.submitted, cfg)
	m.metas = append(m.metas, meta)
	return model.NewJobStatus("job-1", time.Now()), nil
}

func (m *mocks) Run(ctx context.Context, id types.JobID, cfg *model.DownloadConfig, meta model.JobMeta) error {
	return nil
}

func (m *mocks) Status(ctx context.Context, id types.JobID) (*model.JobStatus, error) {
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	job, ok := m.jobs[id]
	if !ok {
		return nil, goerr.Wrap(types.ErrNotFound, "job not found", goerr.V("job_id", id))
	}
	return job.Copy(), nil
}

func (m *mocks) Products() []model.Product {
	return []model.Product{
		{Name: "초단기실황", Description: "관측", Variables: []model.Variable{{Code: "T1H", Name: "기온"}}},
	}
}

func (m *mocks) History(ctx context.Context, clientID types.ClientID) ([]*model.DownloadLog, error) {
	var out []*model.DownloadLog
	for _, l := range m.history {
		if l.ClientID == clientID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mocks) SearchRegions(ctx context.Context, term string) ([]model.Region, error) {
	return model.SearchRegions(m.regions, term), nil
}

func (m *mocks) SearchStations(ctx context.Context, term string) ([]model.Station, error) {
	return model.NewStationMap(m.stations).Search(term), nil
}

func (m *mocks) Login(ctx context.Context, username, password string) (*model.Token, error) {
	if username != m.validUser || password != "pw" {
		return nil, goerr.Wrap(types.ErrAuth, "portal login failed")
	}
	return &model.Token{AccessToken: "token-" + username, TokenType: "bearer"}, nil
}

func (m *mocks) Verify(ctx context.Context, token string) (string, error) {
	if token != "token-"+m.validUser {
		return "", goerr.Wrap(types.ErrAuth, "bad token")
	}
	return m.validUser, nil
}

func (m *mocks) ExportCSV(ctx context.Context, w io.Writer, req interfaces.ASOSRequest) (int, error) {
	m.asosReqs = append(m.asosReqs, req)
	if m.asosErr != nil {
		return 0, m.asosErr
	}
	fmt.Fprintln(w, "time,station_id")
	for i := 0; i < m.asosRows; i++ {
		fmt.Fprintf(w, "2024-01-01 %02d:00:00,%s\n", i, req.StationKey)
	}
	return m.asosRows, nil
}

func (m *mocks) Collect(ctx context.Context, w io.Writer, req interfaces.ASOSCollectRequest) (int, error) {
	return 0, nil
}

type emptyArtifacts struct{}

func (emptyArtifacts) List(ctx context.Context) ([]*model.ArtifactFile, error) {
	return []*model.ArtifactFile{}, nil
}

func (emptyArtifacts) Open(ctx context.Context, relPath string) (*os.File, error) {
	return nil, goerr.Wrap(types.ErrNotFound, "no files")
}

func newTestServer(t *testing.T, m *mocks) *controller.Server {
	t.Helper()
	artifacts := m.artifacts
	if artifacts == nil {
		artifacts = emptyArtifacts{}
	}
	server, err := controller.NewServer(context.Background(), controller.UseCases{
		Download: m,
		Region:   m,
		Auth:     m,
		ASOS:     m,
		Artifact: artifacts,
	}, controller.WithAddr("localhost:0"))
	gt.NoError(t, err)
	return server
}

func newArtifacts(t *testing.T, files map[string]string) interfaces.ArtifactUseCase {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		gt.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		gt.NoError(t, os.WriteFile(path, []byte(body), 0644))
	}
	return usecase.NewArtifact(root)
}
