package bolt

import (
	"cmp"
	"context"
	"slices"
	"strconv"

	"github.com/goodtune/onlinetime/internal/storage"
	"go.etcd.io/bbolt"
)

type subjectStore struct {
	db *bbolt.DB
}

func subjectKey(externalID int64) string {
	return strconv.FormatInt(externalID, 10)
}

func (s *subjectStore) Get(ctx context.Context, externalID int64) (*storage.Subject, error) {
	return getBucketValue[storage.Subject](ctx, s.db, bucketSubjects, subjectKey(externalID))
}

func (s *subjectStore) List(ctx context.Context) ([]storage.Subject, error) {
	subjects, err := listBucket[storage.Subject](ctx, s.db, bucketSubjects)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(subjects, func(a, b storage.Subject) int {
		return cmp.Compare(a.ExternalID, b.ExternalID)
	})
	return subjects, nil
}

func (s *subjectStore) Upsert(ctx context.Context, subject storage.Subject) error {
	return putBucketValue(ctx, s.db, bucketSubjects, subjectKey(subject.ExternalID), subject)
}

func (s *subjectStore) Delete(ctx context.Context, externalID int64) error {
	return deleteBucketValue(ctx, s.db, bucketSubjects, subjectKey(externalID))
}
