package onlinetime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLogSource struct {
	mu      sync.Mutex
	byDay   map[int64][]Event // keyed by window start
	failDay map[int64]error
	calls   int
}

func (f *fakeLogSource) FetchEvents(ctx context.Context, internalID int64, windowStart, windowEnd time.Time) ([]Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.failDay[windowStart.Unix()]; err != nil {
		return nil, err
	}
	return f.byDay[windowStart.Unix()], nil
}

type fakeResolver struct {
	identities map[int64]Identity
	err        error
}

func (f *fakeResolver) Resolve(ctx context.Context, subjectID int64) (Identity, error) {
	if f.err != nil {
		return Identity{}, f.err
	}
	id, ok := f.identities[subjectID]
	if !ok {
		return Identity{}, ErrSubjectNotFound
	}
	return id, nil
}

func dayEvents(day time.Time, offsets ...int64) []Event {
	out := make([]Event, len(offsets))
	for i, o := range offsets {
		out[i] = Event{Timestamp: day.Unix() + o}
	}
	return out
}

func newTestService(logs LogSource, policy FailurePolicy, workers int) *Service {
	return NewService(logs, &fakeResolver{identities: map[int64]Identity{
		7: {InternalID: 700, DisplayName: "Ada Lovelace"},
	}}, Config{
		FailurePolicy: policy,
		Workers:       workers,
		Clock:         &FixedClock{CurrentTime: date(2024, 6, 1)},
	}, zerolog.Nop())
}

func threeDaySource() *fakeLogSource {
	return &fakeLogSource{
		byDay: map[int64][]Event{
			date(2024, 5, 1).Unix(): dayEvents(date(2024, 5, 1), 0, 10, 20, 200, 210),
			date(2024, 5, 3).Unix(): dayEvents(date(2024, 5, 3), 0, 30),
		},
		failDay: map[int64]error{},
	}
}

func TestComputeOnlineTime(t *testing.T) {
	svc := newTestService(threeDaySource(), PolicyPropagate, 1)

	summary, err := svc.ComputeOnlineTime(context.Background(), Request{
		GapThreshold: 60,
		Start:        date(2024, 5, 1),
		End:          date(2024, 5, 3),
		SubjectID:    7,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(700), summary.ID)
	assert.Equal(t, "Ada Lovelace", summary.DisplayName)
	assert.False(t, summary.Partial)
	require.Len(t, summary.Items, 3)

	want := []int64{30, 0, 30}
	for i, item := range summary.Items {
		assert.True(t, item.Date.Equal(date(2024, 5, 1+i)))
		assert.Equal(t, want[i], item.OnlineTimeSeconds)
	}
	assert.Equal(t, int64(60), summary.TotalSeconds())
}

func TestComputeOnlineTimeValidationFirst(t *testing.T) {
	logs := threeDaySource()
	svc := newTestService(logs, PolicyPartial, 1)

	_, err := svc.ComputeOnlineTime(context.Background(), Request{
		GapThreshold: 60,
		Start:        date(2024, 5, 1),
		End:          date(2024, 6, 1),
		SubjectID:    99,
	})
	assert.ErrorIs(t, err, ErrFutureEndDate)
	assert.Zero(t, logs.calls)
}

func TestComputeOnlineTimeSubjectNotFound(t *testing.T) {
	for _, policy := range []FailurePolicy{PolicyPropagate, PolicyPartial} {
		logs := threeDaySource()
		svc := newTestService(logs, policy, 1)

		summary, err := svc.ComputeOnlineTime(context.Background(), Request{
			GapThreshold: 60,
			Start:        date(2024, 5, 1),
			End:          date(2024, 5, 3),
			SubjectID:    99,
		})
		assert.ErrorIs(t, err, ErrSubjectNotFound, policy.String())
		assert.Nil(t, summary)
		assert.Zero(t, logs.calls, "no log queries after a failed lookup")
	}
}

func TestComputeOnlineTimePropagatesLogFailure(t *testing.T) {
	logs := threeDaySource()
	cause := errors.New("database unavailable")
	logs.failDay[date(2024, 5, 2).Unix()] = cause
	svc := newTestService(logs, PolicyPropagate, 1)

	summary, err := svc.ComputeOnlineTime(context.Background(), Request{
		GapThreshold: 60,
		Start:        date(2024, 5, 1),
		End:          date(2024, 5, 3),
		SubjectID:    7,
	})
	assert.Nil(t, summary)
	assert.ErrorIs(t, err, ErrCollaboratorFailure)
	assert.ErrorIs(t, err, cause)

	var cerr *CollaboratorError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, CollaboratorLogSource, cerr.Collaborator)
	assert.True(t, cerr.Day.Equal(date(2024, 5, 2)))
	assert.Equal(t, 2, logs.calls, "stops at the failing day")
}

func TestComputeOnlineTimePartialLogFailure(t *testing.T) {
	logs := threeDaySource()
	logs.failDay[date(2024, 5, 2).Unix()] = errors.New("timeout")
	svc := newTestService(logs, PolicyPartial, 1)

	summary, err := svc.ComputeOnlineTime(context.Background(), Request{
		GapThreshold: 60,
		Start:        date(2024, 5, 1),
		End:          date(2024, 5, 3),
		SubjectID:    7,
	})
	require.NoError(t, err)
	assert.True(t, summary.Partial)
	assert.ErrorIs(t, summary.Failure, ErrCollaboratorFailure)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, int64(30), summary.Items[0].OnlineTimeSeconds)
}

func TestComputeOnlineTimeResolverFailure(t *testing.T) {
	cause := errors.New("directory offline")
	logs := threeDaySource()
	req := Request{GapThreshold: 60, Start: date(2024, 5, 1), End: date(2024, 5, 3), SubjectID: 7}

	propagate := NewService(logs, &fakeResolver{err: cause}, Config{
		Clock: &FixedClock{CurrentTime: date(2024, 6, 1)},
	}, zerolog.Nop())
	_, err := propagate.ComputeOnlineTime(context.Background(), req)
	assert.ErrorIs(t, err, ErrCollaboratorFailure)
	assert.ErrorIs(t, err, cause)

	partial := NewService(logs, &fakeResolver{err: cause}, Config{
		FailurePolicy: PolicyPartial,
		Clock:         &FixedClock{CurrentTime: date(2024, 6, 1)},
	}, zerolog.Nop())
	summary, err := partial.ComputeOnlineTime(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, summary.Partial)
	assert.Equal(t, int64(7), summary.ID)
	assert.Empty(t, summary.Items)
	assert.Zero(t, logs.calls)
}

func TestComputeOnlineTimeParallelKeepsOrder(t *testing.T) {
	logs := &fakeLogSource{byDay: map[int64][]Event{}, failDay: map[int64]error{}}
	for i := 0; i < 10; i++ {
		day := date(2024, 5, 1+i)
		logs.byDay[day.Unix()] = dayEvents(day, 0, int64(i+1))
	}
	svc := newTestService(logs, PolicyPropagate, 4)

	summary, err := svc.ComputeOnlineTime(context.Background(), Request{
		GapThreshold: 60,
		Start:        date(2024, 5, 1),
		End:          date(2024, 5, 10),
		SubjectID:    7,
	})
	require.NoError(t, err)
	require.Len(t, summary.Items, 10)
	for i, item := range summary.Items {
		assert.True(t, item.Date.Equal(date(2024, 5, 1+i)))
		assert.Equal(t, int64(i+1), item.OnlineTimeSeconds)
	}
}

func TestComputeOnlineTimeParallelPartialPrefix(t *testing.T) {
	logs := threeDaySource()
	logs.failDay[date(2024, 5, 3).Unix()] = errors.New("timeout")
	svc := newTestService(logs, PolicyPartial, 3)

	summary, err := svc.ComputeOnlineTime(context.Background(), Request{
		GapThreshold: 60,
		Start:        date(2024, 5, 1),
		End:          date(2024, 5, 3),
		SubjectID:    7,
	})
	require.NoError(t, err)
	assert.True(t, summary.Partial)
	require.Len(t, summary.Items, 2)
	assert.True(t, summary.Items[1].Date.Equal(date(2024, 5, 2)))
}

// slowLogSource honours cancellation: days without a failure wait for delay
// or for ctx, whichever comes first. Failing days return after their own
// delay.
type slowLogSource struct {
	delay     time.Duration
	failDay   map[int64]error
	failDelay map[int64]time.Duration
}

func (s *slowLogSource) FetchEvents(ctx context.Context, internalID int64, windowStart, windowEnd time.Time) ([]Event, error) {
	key := windowStart.Unix()
	if err, ok := s.failDay[key]; ok {
		time.Sleep(s.failDelay[key])
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.delay):
		return dayEvents(windowStart, 0, 10), nil
	}
}

func TestComputeOnlineTimeParallelMatchesSequential(t *testing.T) {
	req := Request{
		GapThreshold: 60,
		Start:        date(2024, 5, 1),
		End:          date(2024, 5, 5),
		SubjectID:    7,
	}

	for _, workers := range []int{1, 3, 5} {
		logs := &slowLogSource{
			delay:   50 * time.Millisecond,
			failDay: map[int64]error{date(2024, 5, 3).Unix(): errors.New("timeout")},
		}
		svc := newTestService(logs, PolicyPartial, workers)

		summary, err := svc.ComputeOnlineTime(context.Background(), req)
		require.NoError(t, err, "workers=%d", workers)
		assert.True(t, summary.Partial)
		require.Len(t, summary.Items, 2, "workers=%d", workers)
		assert.True(t, summary.Items[1].Date.Equal(date(2024, 5, 2)))
		assert.Equal(t, int64(10), summary.Items[0].OnlineTimeSeconds)

		var cerr *CollaboratorError
		require.ErrorAs(t, summary.Failure, &cerr)
		assert.True(t, cerr.Day.Equal(date(2024, 5, 3)), "workers=%d failure day %s", workers, cerr.Day)
	}
}

func TestComputeOnlineTimeParallelReportsEarliestFailure(t *testing.T) {
	// The later day fails first; the result still stops at the earlier one.
	logs := &slowLogSource{
		delay: 10 * time.Millisecond,
		failDay: map[int64]error{
			date(2024, 5, 2).Unix(): errors.New("slow failure"),
			date(2024, 5, 4).Unix(): errors.New("fast failure"),
		},
		failDelay: map[int64]time.Duration{
			date(2024, 5, 2).Unix(): 40 * time.Millisecond,
		},
	}
	svc := newTestService(logs, PolicyPropagate, 4)

	_, err := svc.ComputeOnlineTime(context.Background(), Request{
		GapThreshold: 60,
		Start:        date(2024, 5, 1),
		End:          date(2024, 5, 4),
		SubjectID:    7,
	})

	require.ErrorIs(t, err, ErrCollaboratorFailure)
	assert.Contains(t, err.Error(), "slow failure")
	assert.Contains(t, err.Error(), "2024-05-02")
}
