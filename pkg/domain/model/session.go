package model

import "time"

// PortalSession is an authenticated portal cookie assumed valid until the
// portal rejects it.
type PortalSession struct {
	Cookie   string
	IssuedAt time.Time
	valid    bool
}

func NewPortalSession(cookie string, issuedAt time.Time) *PortalSession {
	return &PortalSession{Cookie: cookie, IssuedAt: issuedAt, valid: cookie != ""}
}

func (x *PortalSession) Valid() bool {
	return x != nil && x.valid
}

// Invalidate marks the session for re-authentication before the next request
func (x *PortalSession) Invalidate() {
	if x != nil {
		x.valid = false
	}
}
