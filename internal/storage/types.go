package storage

import (
	"strings"
	"time"
)

// ActivityLog is one logged action of a user. Timestamps carry whole
// seconds.
type ActivityLog struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	EventName string    `json:"event_name"`
	Timestamp time.Time `json:"timestamp"`
}

// Subject maps an external subject identifier to a user account.
type Subject struct {
	ExternalID int64  `json:"external_id"`
	UserID     int64  `json:"user_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

// FullName joins the first and last name.
func (s Subject) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}
