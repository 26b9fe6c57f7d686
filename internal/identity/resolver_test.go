package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goodtune/onlinetime/internal/onlinetime"
	"github.com/goodtune/onlinetime/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubjects struct {
	mu       sync.Mutex
	subjects map[int64]storage.Subject
	gets     int
	err      error
}

func (f *fakeSubjects) Get(ctx context.Context, externalID int64) (*storage.Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.subjects[externalID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &s, nil
}

func (f *fakeSubjects) List(ctx context.Context) ([]storage.Subject, error) { return nil, nil }

func (f *fakeSubjects) Upsert(ctx context.Context, subject storage.Subject) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects[subject.ExternalID] = subject
	return nil
}

func (f *fakeSubjects) Delete(ctx context.Context, externalID int64) error { return nil }

func newFake() *fakeSubjects {
	return &fakeSubjects{subjects: map[int64]storage.Subject{
		1: {ExternalID: 1, UserID: 101, FirstName: "Ada", LastName: "Lovelace"},
	}}
}

func TestResolve(t *testing.T) {
	r := NewResolver(newFake(), 0, 0, zerolog.Nop())

	id, err := r.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(101), id.InternalID)
	assert.Equal(t, "Ada Lovelace", id.DisplayName)
}

func TestResolveNotFound(t *testing.T) {
	r := NewResolver(newFake(), 10, time.Minute, zerolog.Nop())

	_, err := r.Resolve(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, onlinetime.ErrSubjectNotFound))
	assert.False(t, errors.Is(err, onlinetime.ErrCollaboratorFailure))
}

func TestResolveStoreError(t *testing.T) {
	fake := newFake()
	fake.err = errors.New("disk on fire")
	r := NewResolver(fake, 10, time.Minute, zerolog.Nop())

	_, err := r.Resolve(context.Background(), 1)
	require.Error(t, err)
	assert.False(t, errors.Is(err, onlinetime.ErrSubjectNotFound))
}

func TestResolveCachesAndPurges(t *testing.T) {
	fake := newFake()
	r := NewResolver(fake, 10, time.Minute, zerolog.Nop())
	ctx := context.Background()

	_, err := r.Resolve(ctx, 1)
	require.NoError(t, err)
	_ = fake.Upsert(ctx, storage.Subject{ExternalID: 1, UserID: 101, FirstName: "Ada", LastName: "King"})

	id, err := r.Resolve(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", id.DisplayName, "cached identity expected")
	assert.Equal(t, 1, fake.gets)

	r.Purge()
	id, err = r.Resolve(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Ada King", id.DisplayName)
	assert.Equal(t, 2, fake.gets)
}

func TestResolveReloadsAfterTTL(t *testing.T) {
	fake := newFake()
	r := NewResolver(fake, 10, 20*time.Millisecond, zerolog.Nop())
	ctx := context.Background()

	_, err := r.Resolve(ctx, 1)
	require.NoError(t, err)
	_ = fake.Upsert(ctx, storage.Subject{ExternalID: 1, UserID: 101, FirstName: "Augusta", LastName: "King"})

	time.Sleep(60 * time.Millisecond)
	id, err := r.Resolve(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Augusta King", id.DisplayName)
	assert.Equal(t, 2, fake.gets)
}

func TestResolveDoesNotCacheMisses(t *testing.T) {
	fake := newFake()
	r := NewResolver(fake, 10, time.Minute, zerolog.Nop())
	ctx := context.Background()

	_, err := r.Resolve(ctx, 2)
	require.ErrorIs(t, err, onlinetime.ErrSubjectNotFound)

	_ = fake.Upsert(ctx, storage.Subject{ExternalID: 2, UserID: 202, FirstName: "Grace", LastName: "Hopper"})
	id, err := r.Resolve(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(202), id.InternalID)
}
