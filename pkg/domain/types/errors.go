package types

import "errors"

var (
	// ErrAuth is returned when the portal login fails or yields no cookie.
	ErrAuth = errors.New("authentication failed")

	// ErrTransientFetch marks a network or server failure that may succeed on retry.
	ErrTransientFetch = errors.New("transient fetch failure")

	// ErrPortalItem is a non-success response for a single work item.
	ErrPortalItem = errors.New("portal item request failed")

	// ErrSessionRejected is returned when the portal refuses the session cookie.
	ErrSessionRejected = errors.New("portal session rejected")

	// ErrExtraction is returned for an archive that cannot be read.
	ErrExtraction = errors.New("archive extraction failed")

	// ErrEmptyArchive is returned for a readable archive without any file entry.
	ErrEmptyArchive = errors.New("archive has no entries")

	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid job state transition")
	ErrValidation        = errors.New("validation error")
)
