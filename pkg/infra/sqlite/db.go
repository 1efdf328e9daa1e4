package sqlite

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kmafetch/kmafetch/pkg/domain/interfaces"
	"github.com/kmafetch/kmafetch/pkg/domain/model"
	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the SQLite store for regions, local users and download logs
type DB struct {
	db *sql.DB
}

var _ interfaces.Database = (*DB)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	username      TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS download_logs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	client_id  TEXT NOT NULL,
	filename   TEXT NOT NULL,
	status     TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_download_logs_client ON download_logs (client_id, created_at);
`

const regionSchema = `
CREATE TABLE regions (
	Level1       TEXT NOT NULL,
	Level2       TEXT NOT NULL,
	Level3       TEXT NOT NULL,
	ReqList_Last TEXT PRIMARY KEY
);`

// Open opens dbPath, creating it if needed. The regions table is created and
// seeded from seedPath only when it does not exist yet.
func Open(ctx context.Context, dbPath, seedPath string) (*DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, goerr.Wrap(err, "failed to create database directory", goerr.V("path", dbPath))
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database", goerr.V("path", dbPath))
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	x := &DB{db: db}
	if err := x.init(ctx, seedPath); err != nil {
		db.Close()
		return nil, err
	}
	return x, nil
}

func (x *DB) Close() error {
	return x.db.Close()
}

func (x *DB) init(ctx context.Context, seedPath string) error {
	if _, err := x.db.ExecContext(ctx, schema); err != nil {
		return goerr.Wrap(err, "failed to initialize schema")
	}

	var name string
	err := x.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='regions'").Scan(&name)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return goerr.Wrap(err, "failed to check regions table")
	}

	f, err := os.Open(seedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return goerr.Wrap(types.ErrNotFound, "region seed file not found", goerr.V("path", seedPath))
		}
		return goerr.Wrap(err, "failed to open region seed file", goerr.V("path", seedPath))
	}
	defer f.Close()

	n, err := x.seedRegions(ctx, f)
	if err != nil {
		return goerr.Wrap(err, "failed to seed regions", goerr.V("path", seedPath))
	}

	ctxlog.From(ctx).Info("Seeded region table", "path", seedPath, "rows", n)
	return nil
}

// seedRegions reads Level1,Level2,Level3,ReqList_Last rows after a header line
func (x *DB) seedRegions(ctx context.Context, r io.Reader) (int, error) {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, regionSchema); err != nil {
		return 0, goerr.Wrap(err, "failed to create regions table")
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	if _, err := reader.Read(); err != nil && !errors.Is(err, io.EOF) {
		return 0, goerr.Wrap(err, "failed to read header")
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR IGNORE INTO regions (Level1, Level2, Level3, ReqList_Last) VALUES (?, ?, ?, ?)")
	if err != nil {
		return 0, goerr.Wrap(err, "failed to prepare insert")
	}
	defer stmt.Close()

	var n int
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, goerr.Wrap(err, "failed to read seed row", goerr.V("row", n+1))
		}
		if len(rec) < 4 {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			strings.TrimSpace(rec[0]), strings.TrimSpace(rec[1]), strings.TrimSpace(rec[2]), strings.TrimSpace(rec[3])); err != nil {
			return 0, goerr.Wrap(err, "failed to insert region", goerr.V("code", rec[3]))
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, goerr.Wrap(err, "failed to commit regions")
	}
	return n, nil
}

// ListRegions returns every region ordered by the administrative levels
func (x *DB) ListRegions(ctx context.Context) ([]model.Region, error) {
	rows, err := x.db.QueryContext(ctx,
		"SELECT Level1, Level2, Level3, ReqList_Last FROM regions ORDER BY Level1, Level2, Level3")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query regions")
	}
	defer rows.Close()

	var regions []model.Region
	for rows.Next() {
		var r model.Region
		if err := rows.Scan(&r.Level1, &r.Level2, &r.Level3, &r.Code); err != nil {
			return nil, goerr.Wrap(err, "failed to scan region")
		}
		regions = append(regions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate regions")
	}
	return regions, nil
}

func (x *DB) GetUser(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := x.db.QueryRowContext(ctx,
		"SELECT username, password_hash, created_at FROM users WHERE username = ?", username).
		Scan(&u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, goerr.Wrap(types.ErrNotFound, "user not found", goerr.V("username", username))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("username", username))
	}
	return &u, nil
}

// PutUser inserts the user or replaces its password hash
func (x *DB) PutUser(ctx context.Context, user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	_, err := x.db.ExecContext(ctx, `
INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)
ON CONFLICT(username) DO UPDATE SET password_hash = excluded.password_hash`,
		user.Username, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return goerr.Wrap(err, "failed to put user", goerr.V("username", user.Username))
	}
	return nil
}

func (x *DB) AddDownloadLogs(ctx context.Context, logs []*model.DownloadLog) error {
	if len(logs) == 0 {
		return nil
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, l := range logs {
		if l.CreatedAt.IsZero() {
			l.CreatedAt = time.Now()
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO download_logs (client_id, filename, status, created_at) VALUES (?, ?, ?, ?)",
			string(l.ClientID), l.Filename, string(l.Status), l.CreatedAt)
		if err != nil {
			return goerr.Wrap(err, "failed to insert download log", goerr.V("filename", l.Filename))
		}
		if id, err := res.LastInsertId(); err == nil {
			l.ID = id
		}
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit download logs")
	}
	return nil
}

// ListDownloadLogs returns the newest logs of clientID first
func (x *DB) ListDownloadLogs(ctx context.Context, clientID types.ClientID, limit int) ([]*model.DownloadLog, error) {
	rows, err := x.db.QueryContext(ctx, `
SELECT id, client_id, filename, status, created_at FROM download_logs
WHERE client_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, string(clientID), limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query download logs")
	}
	defer rows.Close()

	var logs []*model.DownloadLog
	for rows.Next() {
		var (
			l        model.DownloadLog
			clientID string
			status   string
		)
		if err := rows.Scan(&l.ID, &clientID, &l.Filename, &status, &l.CreatedAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan download log")
		}
		l.ClientID = types.ClientID(clientID)
		l.Status = model.DownloadLogStatus(status)
		logs = append(logs, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate download logs")
	}
	return logs, nil
}
