package onlinetime

import (
	"time"
)

// Day is the nominal length of one partition window. Windows that cross a
// DST change are an hour shorter or longer.
const Day = 24 * time.Hour

// TimeRange is the requested [Start, End] interval.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Days partitions the range into calendar-day windows.
func (r TimeRange) Days() []Window {
	return Partition(r.Start, r.End)
}

// Event is a single logged action, in Unix seconds.
type Event struct {
	Timestamp int64
}

// Window is one day-long slice of a TimeRange. Both bounds are inclusive
// when querying a LogSource.
type Window struct {
	Start time.Time
	End   time.Time
}

// Duration returns the length of the window.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// DayBucket pairs a window with the events logged inside it.
type DayBucket struct {
	Window Window
	Events []Event
}

// OnlineTime estimates the bucket's online seconds.
func (b DayBucket) OnlineTime(threshold int64) int64 {
	return Estimate(threshold, b.Events)
}

// Sessions reconstructs the bucket's bursts of activity.
func (b DayBucket) Sessions(threshold int64) []Session {
	return Sessions(threshold, b.Events)
}

// DailyResult is the estimated online time for one day.
type DailyResult struct {
	Date              time.Time
	OnlineTimeSeconds int64
}

// SubjectSummary is the result of ComputeOnlineTime.
type SubjectSummary struct {
	ID          int64
	DisplayName string
	Items       []DailyResult

	// Partial is set when the partial-result policy absorbed a collaborator
	// failure. Failure holds that error and Items holds only the days
	// computed before it.
	Partial bool
	Failure error
}

// TotalSeconds sums the online time of every item.
func (s *SubjectSummary) TotalSeconds() int64 {
	var total int64
	for _, item := range s.Items {
		total += item.OnlineTimeSeconds
	}
	return total
}

// Session is a reconstructed burst of activity, in Unix seconds.
type Session struct {
	Start int64
	End   int64
}

// Seconds returns the active time covered by the session.
func (s Session) Seconds() int64 {
	return s.End - s.Start
}

// Identity is what an IdentityResolver knows about a subject.
type Identity struct {
	InternalID  int64
	DisplayName string
}
