package storage

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNormalizeLog(t *testing.T) {
	ts := time.Date(2024, 5, 1, 9, 0, 0, 750_000_000, time.FixedZone("UTC+2", 2*3600))

	log, err := NormalizeLog(ActivityLog{UserID: 7, Timestamp: ts})
	if err != nil {
		t.Fatalf("NormalizeLog() error = %v", err)
	}
	if log.Timestamp.Nanosecond() != 0 {
		t.Errorf("timestamp not truncated: %s", log.Timestamp)
	}
	if log.Timestamp.Location() != time.UTC {
		t.Errorf("timestamp location = %s, want UTC", log.Timestamp.Location())
	}
	if log.ID == "" {
		t.Error("expected a generated ID")
	}
}

func TestNormalizeLogRejectsPreEpoch(t *testing.T) {
	tests := []struct {
		name    string
		ts      time.Time
		wantErr bool
	}{
		{"epoch", time.Unix(0, 0), false},
		{"one second before epoch", time.Unix(-1, 0), true},
		{"1969", time.Date(1969, 7, 20, 20, 17, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeLog(ActivityLog{UserID: 1, Timestamp: tt.ts})
			if tt.wantErr && !errors.Is(err, ErrInvalidTimestamp) {
				t.Errorf("NormalizeLog(%s) error = %v, want ErrInvalidTimestamp", tt.ts, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("NormalizeLog(%s) error = %v, want nil", tt.ts, err)
			}
		})
	}
}

func TestNewLogIDSortsByTime(t *testing.T) {
	earlier, err := NewLogID(time.Unix(1000, 0))
	if err != nil {
		t.Fatalf("NewLogID() error = %v", err)
	}
	later, err := NewLogID(time.Unix(2000, 0))
	if err != nil {
		t.Fatalf("NewLogID() error = %v", err)
	}
	if strings.Compare(earlier, later) >= 0 {
		t.Errorf("IDs out of order: %q >= %q", earlier, later)
	}
}
