package storage

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"
)

// EnsureDir ensures a directory exists with default permissions.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// NewLogID builds a sortable log identifier from the timestamp and a random
// suffix.
func NewLogID(ts time.Time) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("random suffix: %w", err)
	}
	return fmt.Sprintf("%020d-%s", ts.UnixNano(), hex.EncodeToString(buf)), nil
}

// NormalizeLog fills in the ID and timestamp defaults and truncates the
// timestamp to whole seconds. Timestamps before the epoch are rejected.
func NormalizeLog(log ActivityLog) (ActivityLog, error) {
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now()
	}
	log.Timestamp = log.Timestamp.Truncate(time.Second).UTC()
	if log.Timestamp.Unix() < 0 {
		return log, fmt.Errorf("%w: %s", ErrInvalidTimestamp, log.Timestamp.Format(time.RFC3339))
	}
	if log.ID == "" {
		id, err := NewLogID(log.Timestamp)
		if err != nil {
			return log, err
		}
		log.ID = id
	}
	return log, nil
}
