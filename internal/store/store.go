package store

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidSession is returned for records that cannot be stored.
var ErrInvalidSession = errors.New("invalid session")

// Session is an ended chat as kept in history. It carries no user ids and no
// message content.
type Session struct {
	ID              int64
	SharedInterests []string
	Reason          string
	StartedAt       time.Time
	EndedAt         time.Time
}

// Duration is how long the pairing lasted.
func (s Session) Duration() time.Duration {
	return s.EndedAt.Sub(s.StartedAt)
}

// InterestCount is how many sessions matched on one interest.
type InterestCount struct {
	Interest string `json:"interest"`
	Count    int64  `json:"count"`
}

// Summary aggregates the stored history.
type Summary struct {
	TotalSessions          int64           `json:"totalSessions"`
	WithSharedInterests    int64           `json:"withSharedInterests"`
	AverageDurationSeconds float64         `json:"averageDurationSeconds"`
	TopInterests           []InterestCount `json:"topInterests"`
}

// SessionStore persists ended sessions.
type SessionStore interface {
	RecordSession(ctx context.Context, s *Session) error
	Summary(ctx context.Context, topN int) (Summary, error)
	Close() error
}
