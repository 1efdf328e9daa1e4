package types

import "github.com/google/uuid"

// Version is the application version, overwritten by ldflags on release builds
var Version = "dev"

// JobID identifies a download job
type JobID string

// NewJobID returns a random job identifier
func NewJobID() JobID {
	return JobID(uuid.NewString())
}

func (x JobID) String() string { return string(x) }

// ClientID identifies a browser across requests via the client_id cookie
type ClientID string

func NewClientID() ClientID {
	return ClientID(uuid.NewString())
}

func (x ClientID) String() string { return string(x) }
