package onlinetime

import "time"

// Partition splits the validated [start, end] range into consecutive
// calendar-day windows, oldest first. The last window ends one calendar day
// after end, so the end date is covered in full, and every window is
// anchored on that bound.
//
// Windows step with AddDate in the location carried by end, so a day that
// crosses a DST change lasts 23 or 25 hours. Callers must build start and
// end in the same location.
func Partition(start, end time.Time) []Window {
	upper := end.AddDate(0, 0, 1)
	if !upper.After(start) {
		return nil
	}

	count := 1
	for upper.AddDate(0, 0, -count).After(start) {
		count++
	}

	windows := make([]Window, 0, count)
	for i := count; i > 0; i-- {
		windows = append(windows, Window{
			Start: upper.AddDate(0, 0, -i),
			End:   upper.AddDate(0, 0, -i+1),
		})
	}
	return windows
}

// StartOfDay returns local midnight of t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
