package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/goodtune/onlinetime/internal/storage"
	"github.com/redis/go-redis/v9"
)

type logStore struct {
	client *redis.Client
}

// AddLog stores a log entry and adds it to the user's timeline
func (s *logStore) AddLog(ctx context.Context, log storage.ActivityLog) error {
	log, err := storage.NormalizeLog(log)
	if err != nil {
		return err
	}

	script := redis.NewScript(addLogScript)

	keys := []string{logKey(log.ID), userLogsKey(log.UserID), keyLogUsers}
	args := []interface{}{
		log.ID,
		log.UserID,
		log.EventName,
		log.Timestamp.Unix(),
	}

	return script.Run(ctx, s.client, keys, args...).Err()
}

// QueryLogs returns a user's logs within the filter bounds, oldest first
func (s *logStore) QueryLogs(ctx context.Context, filter storage.LogFilter) ([]storage.ActivityLog, error) {
	rangeBy := &redis.ZRangeBy{Min: "-inf", Max: "+inf"}
	if filter.Start != nil {
		rangeBy.Min = strconv.FormatInt(filter.Start.Unix(), 10)
	}
	if filter.End != nil {
		rangeBy.Max = strconv.FormatInt(filter.End.Unix(), 10)
	}
	if filter.Limit > 0 {
		rangeBy.Count = int64(filter.Limit)
	}

	ids, err := s.client.ZRangeByScore(ctx, userLogsKey(filter.UserID), rangeBy).Result()
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return []storage.ActivityLog{}, nil
	}

	// Use pipeline for efficient batch retrieval
	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, logKey(id))
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	logs := make([]storage.ActivityLog, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			continue
		}

		log, err := parseActivityLog(data)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *log)
	}

	return logs, nil
}

// DeleteLogsBefore removes every log older than cutoff across all users
func (s *logStore) DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	users, err := s.client.SMembers(ctx, keyLogUsers).Result()
	if err != nil {
		return 0, err
	}

	script := redis.NewScript(pruneUserLogsScript)
	deleted := 0
	for _, user := range users {
		userID, err := strconv.ParseInt(user, 10, 64)
		if err != nil {
			continue
		}

		keys := []string{userLogsKey(userID), keyLogUsers}
		args := []interface{}{cutoff.Unix(), user, logKey("")}

		n, err := script.Run(ctx, s.client, keys, args...).Int()
		if err != nil {
			return deleted, err
		}
		deleted += n
	}

	return deleted, nil
}
