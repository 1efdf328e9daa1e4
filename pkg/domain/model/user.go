package model

import (
	"time"

	"github.com/kmafetch/kmafetch/pkg/domain/types"
)

// User is a local account created after a successful portal login
type User struct {
	Username     string
	PasswordHash string `masq:"secret"`
	CreatedAt    time.Time
}

type DownloadLogStatus string

const (
	DownloadLogSuccess DownloadLogStatus = "success"
)

// DownloadLog records one file produced for a browser client
type DownloadLog struct {
	ID        int64             `json:"id"`
	ClientID  types.ClientID    `json:"client_id"`
	Filename  string            `json:"filename"`
	Status    DownloadLogStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// Token is an issued bearer token
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// ArtifactFile is a materialized CSV under the download root
type ArtifactFile struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}
