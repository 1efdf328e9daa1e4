package usecase_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
	"github.com/kmafetch/kmafetch/pkg/domain/model"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// mockPortal returns a result per item index from fetchErr; items without an
// entry succeed with a dummy payload.
type mockPortal struct {
	mu       sync.Mutex
	authErr  error
	fetchErr map[int]error
	auths    int
	fetched  []int
	sessions []*model.PortalSession
}

func (m *mockPortal) factory() interfaces.PortalClientFactory {
	return func() interfaces.PortalClient { return m }
}

func (m *mockPortal) Authenticate(ctx context.Context, loginID, password string) (*model.PortalSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auths++
	if m.authErr != nil {
		return nil, m.authErr
	}
	s := model.NewPortalSession(fmt.Sprintf("JSESSIONID=%d", m.auths), time.Now())
	m.sessions = append(m.sessions, s)
	return s, nil
}

func (m *mockPortal) SubmitAndFetch(ctx context.Context, session *model.PortalSession, product *model.Product, item model.WorkItem) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !session.Valid() {
		return nil, goerr.Wrap(types.ErrSessionRejected, "invalid session")
	}
	m.fetched = append(m.fetched, item.Index)
	if err, ok := m.fetchErr[item.Index]; ok {
		return nil, err
	}
	return []byte(item.FileStem()), nil
}

func (m *mockPortal) authCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.auths
}

// mockMaterializer writes the payload to destDir/<tempName>.csv unless the
// payload is listed in empty.
type mockMaterializer struct {
	empty map[string]bool
}

func (m *mockMaterializer) Materialize(ctx context.Context, data []byte, destDir, tempName string) ([]string, error) {
	if m.empty[string(data)] {
		return nil, goerr.Wrap(types.ErrEmptyArchive, "no entries")
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, err
	}
	path := filepath.Join(destDir, tempName+".csv")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, err
	}
	return []string{path}, nil
}

type recordingObserver struct {
	mu     sync.Mutex
	total  int
	labels []string
	files  []string
}

func (o *recordingObserver) OnPlanned(total int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.total = total
}

func (o *recordingObserver) OnProgress(current, total int, label string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.labels = append(o.labels, label)
}

func (o *recordingObserver) OnFileProduced(path string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.files = append(o.files, path)
}

type mockUsers struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMockUsers() *mockUsers {
	return &mockUsers{users: map[string]*model.User{}}
}

func (m *mockUsers) GetUser(ctx context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, goerr.Wrap(types.ErrNotFound, "user not found")
	}
	return u, nil
}

func (m *mockUsers) PutUser(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.Username] = user
	return nil
}

type mockLogs struct {
	mu   sync.Mutex
	logs []*model.DownloadLog
}

func (m *mockLogs) AddDownloadLogs(ctx context.Context, logs []*model.DownloadLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, logs...)
	return nil
}

func (m *mockLogs) ListDownloadLogs(ctx context.Context, clientID types.ClientID, limit int) ([]*model.DownloadLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.DownloadLog
	for _, l := range m.logs {
		if l.ClientID == clientID {
			out = append(out, l)
		}
	}
	return out, nil
}

type mockNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (m *mockNotifier) Notify(ctx context.Context, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
	return nil
}

type mockASOS struct {
	mu      sync.Mutex
	records map[string][]model.ASOSRecord
	calls   []string
	keys    []string
}

func (m *mockASOS) FetchHourly(ctx context.Context, serviceKey, stationID string, start, end time.Time) ([]model.ASOSRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, stationID)
	m.keys = append(m.keys, serviceKey)
	return m.records[stationID], nil
}

type mockRegions struct {
	regions []model.Region
	err     error
}

func (m *mockRegions) ListRegions(ctx context.Context) ([]model.Region, error) {
	return m.regions, m.err
}
