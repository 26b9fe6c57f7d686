package onlinetime

import "time"

// Validate rejects semantically invalid inputs before any computation runs.
// Checks run in order: threshold, range orientation, end date in the past.
func Validate(threshold int64, start, end, now time.Time) error {
	if threshold <= 0 {
		return ErrInvalidThreshold
	}
	if start.After(end) {
		return ErrInvertedRange
	}
	if !end.Before(now) {
		return ErrFutureEndDate
	}
	return nil
}
