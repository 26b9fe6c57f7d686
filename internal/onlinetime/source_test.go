package onlinetime

import (
	"context"
	"testing"
	"time"

	"github.com/goodtune/onlinetime/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unorderedLogStore hands back logs in insertion order.
type unorderedLogStore struct {
	logs   []storage.ActivityLog
	filter storage.LogFilter
}

func (s *unorderedLogStore) AddLog(ctx context.Context, log storage.ActivityLog) error {
	s.logs = append(s.logs, log)
	return nil
}

func (s *unorderedLogStore) QueryLogs(ctx context.Context, filter storage.LogFilter) ([]storage.ActivityLog, error) {
	s.filter = filter
	var out []storage.ActivityLog
	for _, log := range s.logs {
		if log.UserID == filter.UserID && filter.Matches(log.Timestamp) {
			out = append(out, log)
		}
	}
	return out, nil
}

func (s *unorderedLogStore) DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, nil
}

func TestStoreLogSourceSortsAndKeepsDuplicates(t *testing.T) {
	day := date(2024, 5, 1)
	store := &unorderedLogStore{}
	for _, offset := range []int{200, 0, 20, 10, 10, 210} {
		_ = store.AddLog(context.Background(), storage.ActivityLog{
			UserID:    1,
			Timestamp: day.Add(time.Duration(offset) * time.Second),
		})
	}
	// outside the window and another user
	_ = store.AddLog(context.Background(), storage.ActivityLog{UserID: 1, Timestamp: day.Add(-time.Second)})
	_ = store.AddLog(context.Background(), storage.ActivityLog{UserID: 2, Timestamp: day})

	source := NewStoreLogSource(store)
	got, err := source.FetchEvents(context.Background(), 1, day, day.Add(Day))
	require.NoError(t, err)

	assert.Equal(t, dayEvents(day, 0, 10, 10, 20, 200, 210), got)
	assert.Equal(t, int64(30), Estimate(60, got))

	require.NotNil(t, store.filter.Start)
	require.NotNil(t, store.filter.End)
	assert.True(t, store.filter.End.Equal(day.Add(Day)))
}
