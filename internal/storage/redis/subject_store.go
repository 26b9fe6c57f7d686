package redis

import (
	"context"
	"strconv"

	"github.com/goodtune/onlinetime/internal/storage"
	"github.com/redis/go-redis/v9"
)

type subjectStore struct {
	client *redis.Client
}

// Get retrieves a subject by external ID
func (s *subjectStore) Get(ctx context.Context, externalID int64) (*storage.Subject, error) {
	data, err := s.client.HGetAll(ctx, subjectKey(externalID)).Result()
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	return parseSubject(data)
}

// List returns all subjects ordered by external ID
func (s *subjectStore) List(ctx context.Context) ([]storage.Subject, error) {
	ids, err := s.client.ZRange(ctx, keySubjectsIdx, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return []storage.Subject{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, 0, len(ids))
	for _, id := range ids {
		externalID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			continue
		}
		cmds = append(cmds, pipe.HGetAll(ctx, subjectKey(externalID)))
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	subjects := make([]storage.Subject, 0, len(cmds))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			continue
		}

		subject, err := parseSubject(data)
		if err == nil {
			subjects = append(subjects, *subject)
		}
	}

	return subjects, nil
}

// Upsert creates or updates a subject
func (s *subjectStore) Upsert(ctx context.Context, subject storage.Subject) error {
	script := redis.NewScript(upsertSubjectScript)

	keys := []string{subjectKey(subject.ExternalID), keySubjectsIdx}
	args := []interface{}{
		subject.ExternalID,
		subject.UserID,
		subject.FirstName,
		subject.LastName,
	}

	return script.Run(ctx, s.client, keys, args...).Err()
}

// Delete removes a subject and its directory entry
func (s *subjectStore) Delete(ctx context.Context, externalID int64) error {
	removed, err := s.client.Del(ctx, subjectKey(externalID)).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return storage.ErrNotFound
	}

	return s.client.ZRem(ctx, keySubjectsIdx, strconv.FormatInt(externalID, 10)).Err()
}
