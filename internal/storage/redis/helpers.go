package redis

import (
	"fmt"
	"strconv"
	"time"

	"github.com/goodtune/onlinetime/internal/storage"
)

const (
	keyLogUsers    = "onlinetime:logs:users"
	keySubjectsIdx = "onlinetime:subjects"
)

func logKey(id string) string {
	return fmt.Sprintf("onlinetime:log:%s", id)
}

func userLogsKey(userID int64) string {
	return fmt.Sprintf("onlinetime:logs:user:%d", userID)
}

func subjectKey(externalID int64) string {
	return fmt.Sprintf("onlinetime:subject:%d", externalID)
}

// parseActivityLog converts a Redis hash to ActivityLog
func parseActivityLog(data map[string]string) (*storage.ActivityLog, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	userID, err := strconv.ParseInt(data["user_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user_id: %w", err)
	}

	ts, err := strconv.ParseInt(data["timestamp"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}

	return &storage.ActivityLog{
		ID:        data["id"],
		UserID:    userID,
		EventName: data["event_name"],
		Timestamp: time.Unix(ts, 0).UTC(),
	}, nil
}

// parseSubject converts a Redis hash to Subject
func parseSubject(data map[string]string) (*storage.Subject, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	externalID, err := strconv.ParseInt(data["external_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse external_id: %w", err)
	}

	userID, err := strconv.ParseInt(data["user_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user_id: %w", err)
	}

	return &storage.Subject{
		ExternalID: externalID,
		UserID:     userID,
		FirstName:  data["first_name"],
		LastName:   data["last_name"],
	}, nil
}
