package onlinetime

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/goodtune/onlinetime/internal/storage"
)

// StoreLogSource adapts a storage.LogStore to the LogSource interface.
type StoreLogSource struct {
	store storage.LogStore
}

// NewStoreLogSource creates a log source backed by store.
func NewStoreLogSource(store storage.LogStore) *StoreLogSource {
	return &StoreLogSource{store: store}
}

// FetchEvents returns the subject's events in [windowStart, windowEnd].
// Events are re-sorted when the store hands them back out of order;
// duplicate timestamps are kept.
func (s *StoreLogSource) FetchEvents(ctx context.Context, internalID int64, windowStart, windowEnd time.Time) ([]Event, error) {
	logs, err := s.store.QueryLogs(ctx, storage.LogFilter{
		UserID: internalID,
		Start:  &windowStart,
		End:    &windowEnd,
	})
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(logs))
	for _, log := range logs {
		events = append(events, Event{Timestamp: log.Timestamp.Unix()})
	}

	byTimestamp := func(a, b Event) int { return cmp.Compare(a.Timestamp, b.Timestamp) }
	if !slices.IsSortedFunc(events, byTimestamp) {
		slices.SortFunc(events, byTimestamp)
	}
	return events, nil
}
