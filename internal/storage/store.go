package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// ErrInvalidTimestamp is returned for activity logs dated before the Unix
// epoch. Log keys order timestamps as unsigned numbers.
var ErrInvalidTimestamp = errors.New("storage: timestamp before 1970-01-01")

// Store represents the root storage interface.
type Store interface {
	Close() error
	Logs() LogStore
	Subjects() SubjectStore
}

// LogStore manages the activity log.
type LogStore interface {
	AddLog(ctx context.Context, log ActivityLog) error
	// QueryLogs returns matching logs ordered by timestamp ascending.
	// Start and End are both inclusive.
	QueryLogs(ctx context.Context, filter LogFilter) ([]ActivityLog, error)
	DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// LogFilter defines criteria for querying activity logs.
type LogFilter struct {
	UserID int64
	Start  *time.Time
	End    *time.Time
	Limit  int
}

// Matches reports whether ts falls inside the filter's time bounds.
func (f LogFilter) Matches(ts time.Time) bool {
	if f.Start != nil && ts.Before(*f.Start) {
		return false
	}
	if f.End != nil && ts.After(*f.End) {
		return false
	}
	return true
}

// SubjectStore manages the subject directory.
type SubjectStore interface {
	Get(ctx context.Context, externalID int64) (*Subject, error)
	List(ctx context.Context) ([]Subject, error)
	Upsert(ctx context.Context, subject Subject) error
	Delete(ctx context.Context, externalID int64) error
}
