package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goodtune/onlinetime/internal/onlinetime"
)

// dateLayouts are tried in order for start_date and end_date.
var dateLayouts = []string{"2006-01-02", "02-01-2006"}

// ParseDate accepts an ISO date, a d-m-Y date or Unix seconds and returns
// local midnight of that day in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		return onlinetime.StartOfDay(time.Unix(secs, 0), loc), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

// parseRequest builds a computation request from the query string, filling
// unset values from the server defaults.
func (s *Server) parseRequest(query url.Values, subjectID int64) (onlinetime.Request, error) {
	today := onlinetime.StartOfDay(s.config.Clock.Now(), s.config.Location)
	req := onlinetime.Request{
		GapThreshold: s.config.DefaultGapThreshold,
		Start:        today,
		End:          today.AddDate(0, 0, s.config.DefaultRangeDays),
		SubjectID:    subjectID,
	}

	if v := query.Get("time_between_clicks"); v != "" {
		threshold, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return req, fmt.Errorf("time_between_clicks must be an integer: %q", v)
		}
		req.GapThreshold = threshold
	}

	if v := query.Get("start_date"); v != "" {
		start, err := ParseDate(v, s.config.Location)
		if err != nil {
			return req, fmt.Errorf("start_date: %w", err)
		}
		req.Start = start
	}

	if v := query.Get("end_date"); v != "" {
		end, err := ParseDate(v, s.config.Location)
		if err != nil {
			return req, fmt.Errorf("end_date: %w", err)
		}
		req.End = end
	}

	return req, nil
}
