package onlinetime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goodtune/onlinetime/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultGapThreshold is the suggested gap threshold in seconds.
const DefaultGapThreshold int64 = 60

// LogSource returns the events of a subject inside [windowStart, windowEnd],
// ascending by timestamp.
type LogSource interface {
	FetchEvents(ctx context.Context, internalID int64, windowStart, windowEnd time.Time) ([]Event, error)
}

// IdentityResolver maps an external subject identifier to its identity.
// It returns ErrSubjectNotFound for unknown subjects.
type IdentityResolver interface {
	Resolve(ctx context.Context, subjectID int64) (Identity, error)
}

// FailurePolicy decides what happens when a collaborator fails mid-computation.
type FailurePolicy int

const (
	// PolicyPropagate returns the collaborator error to the caller.
	PolicyPropagate FailurePolicy = iota
	// PolicyPartial returns the days computed so far, flagged as partial.
	PolicyPartial
)

// ParseFailurePolicy accepts "propagate" (alias "debug") and "partial"
// (alias "production").
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "propagate", "debug":
		return PolicyPropagate, nil
	case "partial", "production":
		return PolicyPartial, nil
	default:
		return PolicyPropagate, fmt.Errorf("unknown failure policy: %q (must be propagate or partial)", s)
	}
}

func (p FailurePolicy) String() string {
	if p == PolicyPartial {
		return "partial"
	}
	return "propagate"
}

// Config holds service configuration
type Config struct {
	FailurePolicy FailurePolicy
	// Workers bounds how many days are estimated concurrently. Values
	// below 2 keep the per-day loop sequential.
	Workers int
	Clock   Clock
}

// Request is one online-time computation.
type Request struct {
	GapThreshold int64
	Start        time.Time
	End          time.Time
	SubjectID    int64
}

// Range returns the requested interval.
func (r Request) Range() TimeRange {
	return TimeRange{Start: r.Start, End: r.End}
}

// Service validates requests, partitions them into days and aggregates the
// per-day estimates for one subject.
type Service struct {
	logs       LogSource
	identities IdentityResolver
	policy     FailurePolicy
	workers    int
	clock      Clock
	logger     zerolog.Logger
}

// NewService creates a new online-time service
func NewService(logs LogSource, identities IdentityResolver, config Config, logger zerolog.Logger) *Service {
	if config.Clock == nil {
		config.Clock = RealClock{}
	}
	if config.Workers < 1 {
		config.Workers = 1
	}

	return &Service{
		logs:       logs,
		identities: identities,
		policy:     config.FailurePolicy,
		workers:    config.Workers,
		clock:      config.Clock,
		logger:     logger.With().Str("component", "online-time").Logger(),
	}
}

// Policy returns the configured failure policy.
func (s *Service) Policy() FailurePolicy {
	return s.policy
}

// ComputeOnlineTime returns the per-day online time of a subject over the
// requested range.
func (s *Service) ComputeOnlineTime(ctx context.Context, req Request) (*SubjectSummary, error) {
	started := time.Now()
	defer func() {
		metrics.ComputationDuration.Observe(time.Since(started).Seconds())
	}()

	rng := req.Range()
	if err := Validate(req.GapThreshold, rng.Start, rng.End, s.clock.Now()); err != nil {
		metrics.ComputationsTotal.WithLabelValues("invalid").Inc()
		s.logger.Debug().
			Err(err).
			Int64("gap_threshold", req.GapThreshold).
			Time("start", req.Start).
			Time("end", req.End).
			Msg("Rejected online time request")
		return nil, err
	}

	identity, err := s.identities.Resolve(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, ErrSubjectNotFound) {
			metrics.ComputationsTotal.WithLabelValues("not_found").Inc()
			return nil, err
		}
		return s.fail(&SubjectSummary{ID: req.SubjectID}, &CollaboratorError{
			Collaborator: CollaboratorIdentityResolver,
			Err:          err,
		})
	}

	items, err := s.estimateDays(ctx, req.GapThreshold, identity.InternalID, rng.Days())

	summary := &SubjectSummary{
		ID:          identity.InternalID,
		DisplayName: identity.DisplayName,
		Items:       items,
	}
	if err != nil {
		return s.fail(summary, err)
	}

	metrics.ComputationsTotal.WithLabelValues("success").Inc()
	s.logger.Info().
		Int64("subject_id", req.SubjectID).
		Int64("user_id", identity.InternalID).
		Int("days", len(items)).
		Int64("online_seconds", summary.TotalSeconds()).
		Dur("elapsed", time.Since(started)).
		Msg("Computed online time")

	return summary, nil
}

// fail applies the failure policy to a collaborator error.
func (s *Service) fail(summary *SubjectSummary, err error) (*SubjectSummary, error) {
	collaborator := "unknown"
	var cerr *CollaboratorError
	if errors.As(err, &cerr) {
		collaborator = cerr.Collaborator
	}
	metrics.CollaboratorFailures.WithLabelValues(collaborator).Inc()

	if s.policy == PolicyPropagate {
		metrics.ComputationsTotal.WithLabelValues("failed").Inc()
		s.logger.Error().Err(err).Int64("subject_id", summary.ID).Msg("Online time computation failed")
		return nil, err
	}

	summary.Partial = true
	summary.Failure = err
	metrics.ComputationsTotal.WithLabelValues("partial").Inc()
	s.logger.Warn().
		Err(err).
		Int64("subject_id", summary.ID).
		Int("days_computed", len(summary.Items)).
		Msg("Returning partial online time result")

	return summary, nil
}

// estimateDays runs the estimator for every window. On failure it returns
// the leading run of days that completed before the earliest failing one,
// together with that day's error.
func (s *Service) estimateDays(ctx context.Context, threshold, internalID int64, windows []Window) ([]DailyResult, error) {
	results := make([]DailyResult, len(windows))

	if s.workers < 2 || len(windows) < 2 {
		for i, w := range windows {
			result, err := s.estimateDay(ctx, threshold, internalID, w)
			if err != nil {
				return results[:i], err
			}
			results[i] = result
		}
		return results, nil
	}

	// Workers share the caller's context: one failing day must not cancel
	// earlier days that are still in flight.
	errs := make([]error, len(windows))
	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, w := range windows {
		g.Go(func() error {
			result, err := s.estimateDay(ctx, threshold, internalID, w)
			if err != nil {
				errs[i] = err
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for i, dayErr := range errs {
			if dayErr != nil {
				return results[:i], dayErr
			}
		}
		return nil, err
	}
	return results, nil
}

func (s *Service) estimateDay(ctx context.Context, threshold, internalID int64, w Window) (DailyResult, error) {
	events, err := s.logs.FetchEvents(ctx, internalID, w.Start, w.End)
	if err != nil {
		return DailyResult{}, &CollaboratorError{
			Collaborator: CollaboratorLogSource,
			Day:          w.Start,
			Err:          err,
		}
	}

	bucket := DayBucket{Window: w, Events: events}
	online := bucket.OnlineTime(threshold)
	metrics.DaysEstimated.Inc()
	metrics.DailyOnlineSeconds.Observe(float64(online))

	s.logger.Debug().
		Int64("user_id", internalID).
		Time("day", bucket.Window.Start).
		Int("events", len(bucket.Events)).
		Int64("online_seconds", online).
		Msg("Estimated day")

	return DailyResult{Date: bucket.Window.Start, OnlineTimeSeconds: online}, nil
}
