package onlinetime

// Estimate returns the estimated online seconds for one day's events,
// which must be ordered ascending by timestamp.
//
// The first event only seeds the comparison. Every following event adds the
// gap to its predecessor when that gap is below threshold; larger gaps are a
// session boundary and add nothing.
func Estimate(threshold int64, events []Event) int64 {
	if len(events) == 0 {
		return 0
	}

	var online int64
	previous := events[0].Timestamp
	for _, event := range events[1:] {
		gap := event.Timestamp - previous
		if gap < threshold {
			online += gap
		}
		previous = event.Timestamp
	}
	return online
}

// Sessions reconstructs the bursts of activity that Estimate counts. The
// durations of the returned sessions always sum to Estimate(threshold,
// events). Bursts made of a single event cover no time and are omitted.
func Sessions(threshold int64, events []Event) []Session {
	if len(events) == 0 {
		return nil
	}

	var sessions []Session
	current := Session{Start: events[0].Timestamp, End: events[0].Timestamp}
	for _, event := range events[1:] {
		if event.Timestamp-current.End < threshold {
			current.End = event.Timestamp
			continue
		}
		if current.Seconds() > 0 {
			sessions = append(sessions, current)
		}
		current = Session{Start: event.Timestamp, End: event.Timestamp}
	}
	if current.Seconds() > 0 {
		sessions = append(sessions, current)
	}
	return sessions
}
