package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goodtune/onlinetime/internal/database"
	"github.com/goodtune/onlinetime/internal/storage"
)

type logStore struct {
	db *database.DB
}

func (s *logStore) AddLog(ctx context.Context, log storage.ActivityLog) error {
	log, err := storage.NormalizeLog(log)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO activity_logs (id, user_id, event_name, time_created) VALUES (?, ?, ?, ?)`,
		log.ID, log.UserID, log.EventName, log.Timestamp.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

func (s *logStore) QueryLogs(ctx context.Context, filter storage.LogFilter) ([]storage.ActivityLog, error) {
	var (
		clauses = []string{"user_id = ?"}
		args    = []any{filter.UserID}
	)
	if filter.Start != nil {
		clauses = append(clauses, "time_created >= ?")
		args = append(args, filter.Start.Unix())
	}
	if filter.End != nil {
		clauses = append(clauses, "time_created <= ?")
		args = append(args, filter.End.Unix())
	}

	query := `SELECT id, user_id, event_name, time_created FROM activity_logs WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY time_created ASC, id ASC`
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activity logs: %w", err)
	}
	defer rows.Close()

	logs := []storage.ActivityLog{}
	for rows.Next() {
		var (
			log storage.ActivityLog
			ts  int64
		)
		if err := rows.Scan(&log.ID, &log.UserID, &log.EventName, &ts); err != nil {
			return nil, fmt.Errorf("scan activity log: %w", err)
		}
		log.Timestamp = time.Unix(ts, 0).UTC()
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func (s *logStore) DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM activity_logs WHERE time_created < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete activity logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
