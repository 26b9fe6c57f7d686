package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodtune/onlinetime/internal/metrics"
	"github.com/goodtune/onlinetime/internal/onlinetime"
	"github.com/goodtune/onlinetime/internal/storage"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
)

// Resolver maps external subject identifiers to identities using the
// subject directory, caching successful lookups.
type Resolver struct {
	subjects storage.SubjectStore
	cache    *expirable.LRU[int64, onlinetime.Identity] // nil when caching is disabled
	logger   zerolog.Logger
}

// NewResolver creates a resolver. A cacheSize of zero disables caching.
func NewResolver(subjects storage.SubjectStore, cacheSize int, cacheTTL time.Duration, logger zerolog.Logger) *Resolver {
	r := &Resolver{
		subjects: subjects,
		logger:   logger.With().Str("component", "identity").Logger(),
	}
	if cacheSize > 0 {
		r.cache = expirable.NewLRU[int64, onlinetime.Identity](cacheSize, nil, cacheTTL)
	}
	return r
}

// Resolve returns the identity for subjectID, or onlinetime.ErrSubjectNotFound.
func (r *Resolver) Resolve(ctx context.Context, subjectID int64) (onlinetime.Identity, error) {
	if r.cache != nil {
		if id, ok := r.cache.Get(subjectID); ok {
			metrics.IdentityCacheHits.Inc()
			return id, nil
		}
		metrics.IdentityCacheMisses.Inc()
	}

	subject, err := r.subjects.Get(ctx, subjectID)
	if errors.Is(err, storage.ErrNotFound) {
		return onlinetime.Identity{}, fmt.Errorf("subject %d: %w", subjectID, onlinetime.ErrSubjectNotFound)
	}
	if err != nil {
		return onlinetime.Identity{}, fmt.Errorf("lookup subject %d: %w", subjectID, err)
	}

	id := onlinetime.Identity{
		InternalID:  subject.UserID,
		DisplayName: subject.FullName(),
	}
	if r.cache != nil {
		r.cache.Add(subjectID, id)
	}
	return id, nil
}

// Purge clears the cache.
func (r *Resolver) Purge() {
	if r.cache == nil {
		return
	}
	n := r.cache.Len()
	r.cache.Purge()
	r.logger.Info().Int("entries", n).Msg("Identity cache purged")
}
