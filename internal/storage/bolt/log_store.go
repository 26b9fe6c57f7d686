package bolt

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/goodtune/onlinetime/internal/storage"
	"go.etcd.io/bbolt"
)

// Log keys are "<unix seconds, zero padded>/<log id>" so a cursor walks a
// user's bucket in timestamp order.
const tsKeyWidth = 20

type logStore struct {
	db *bbolt.DB
}

func userKey(userID int64) []byte {
	return []byte(strconv.FormatInt(userID, 10))
}

func tsPrefix(ts time.Time) []byte {
	return []byte(fmt.Sprintf("%0*d", tsKeyWidth, ts.Unix()))
}

func logKey(log storage.ActivityLog) []byte {
	return []byte(fmt.Sprintf("%0*d/%s", tsKeyWidth, log.Timestamp.Unix(), log.ID))
}

func (s *logStore) AddLog(ctx context.Context, log storage.ActivityLog) error {
	log, err := storage.NormalizeLog(log)
	if err != nil {
		return err
	}
	data, err := marshal(log)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		root := tx.Bucket([]byte(bucketLogs))
		if root == nil {
			return fmt.Errorf("activity log bucket missing")
		}
		bucket, err := root.CreateBucketIfNotExists(userKey(log.UserID))
		if err != nil {
			return fmt.Errorf("create user log bucket: %w", err)
		}
		return bucket.Put(logKey(log), data)
	})
}

func (s *logStore) QueryLogs(ctx context.Context, filter storage.LogFilter) ([]storage.ActivityLog, error) {
	logs := make([]storage.ActivityLog, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(bucketLogs))
		if root == nil {
			return nil
		}
		bucket := root.Bucket(userKey(filter.UserID))
		if bucket == nil {
			return nil
		}

		c := bucket.Cursor()
		var k, v []byte
		if filter.Start != nil {
			k, v = c.Seek(tsPrefix(*filter.Start))
		} else {
			k, v = c.First()
		}

		var upper []byte
		if filter.End != nil {
			upper = tsPrefix(*filter.End)
		}

		for ; k != nil; k, v = c.Next() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if upper != nil && bytes.Compare(k[:tsKeyWidth], upper) > 0 {
				break
			}
			var log storage.ActivityLog
			if err := unmarshal(v, &log); err != nil {
				return err
			}
			logs = append(logs, log)
			if filter.Limit > 0 && len(logs) >= filter.Limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *logStore) DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	deleted := 0
	limit := tsPrefix(cutoff)
	err := s.db.Update(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(bucketLogs))
		if root == nil {
			return nil
		}
		return root.ForEachBucket(func(name []byte) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c := root.Bucket(name).Cursor()
			for k, _ := c.First(); k != nil && bytes.Compare(k[:tsKeyWidth], limit) < 0; k, _ = c.First() {
				if err := c.Delete(); err != nil {
					return err
				}
				deleted++
			}
			return nil
		})
	})
	return deleted, err
}
