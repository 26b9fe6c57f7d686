package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/goodtune/onlinetime/internal/metrics"
	"github.com/goodtune/onlinetime/internal/onlinetime"
	"github.com/goodtune/onlinetime/internal/storage"
	"github.com/rs/zerolog"
)

// Pruner deletes activity logs older than the retention window once a day.
type Pruner struct {
	logs          storage.LogStore
	retentionDays int
	pruneTime     time.Time // only hour and minute are used
	clock         onlinetime.Clock
	logger        zerolog.Logger
	stopChan      chan struct{}
}

// NewPruner creates a pruner that runs daily at pruneTime (HH:MM).
func NewPruner(logs storage.LogStore, retentionDays int, pruneTime string, clock onlinetime.Clock, logger zerolog.Logger) (*Pruner, error) {
	if retentionDays < 1 {
		return nil, fmt.Errorf("retention must be at least one day: %d", retentionDays)
	}

	parsedTime, err := time.Parse("15:04", pruneTime)
	if err != nil {
		return nil, fmt.Errorf("invalid prune time %q: %w", pruneTime, err)
	}

	if clock == nil {
		clock = onlinetime.RealClock{}
	}

	return &Pruner{
		logs:          logs,
		retentionDays: retentionDays,
		pruneTime:     parsedTime,
		clock:         clock,
		logger:        logger.With().Str("component", "retention").Logger(),
		stopChan:      make(chan struct{}),
	}, nil
}

// Start begins the daily prune loop
func (p *Pruner) Start() {
	go p.run()
	p.logger.Info().
		Str("prune_time", p.pruneTime.Format("15:04")).
		Int("retention_days", p.retentionDays).
		Msg("Log retention pruner started")
}

// Stop stops the prune loop
func (p *Pruner) Stop() {
	close(p.stopChan)
	p.logger.Info().Msg("Log retention pruner stopped")
}

func (p *Pruner) run() {
	for {
		nextRun := p.nextRun(p.clock.Now())
		waitDuration := nextRun.Sub(p.clock.Now())

		p.logger.Debug().
			Time("next_run", nextRun).
			Dur("wait_duration", waitDuration).
			Msg("Scheduled next log prune")

		timer := time.NewTimer(waitDuration)
		select {
		case <-timer.C:
			if _, err := p.RunOnce(context.Background()); err != nil {
				p.logger.Error().Err(err).Msg("Log prune failed")
			}
		case <-p.stopChan:
			timer.Stop()
			return
		}
	}
}

// nextRun returns the next prune instant strictly after now.
func (p *Pruner) nextRun(now time.Time) time.Time {
	today := time.Date(
		now.Year(), now.Month(), now.Day(),
		p.pruneTime.Hour(), p.pruneTime.Minute(), 0, 0,
		now.Location(),
	)

	if !now.Before(today) {
		return today.AddDate(0, 0, 1)
	}
	return today
}

// Cutoff returns the instant before which logs are removed: local midnight
// retentionDays days before now, so whole days are always kept.
func (p *Pruner) Cutoff(now time.Time) time.Time {
	return onlinetime.StartOfDay(now, now.Location()).AddDate(0, 0, -p.retentionDays)
}

// RunOnce deletes every log older than the cutoff and returns how many went.
func (p *Pruner) RunOnce(ctx context.Context) (int, error) {
	cutoff := p.Cutoff(p.clock.Now())

	deleted, err := p.logs.DeleteLogsBefore(ctx, cutoff)
	if err != nil {
		return deleted, fmt.Errorf("delete logs before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	metrics.LogsPruned.Add(float64(deleted))
	p.logger.Info().
		Int("logs_deleted", deleted).
		Time("cutoff", cutoff).
		Msg("Old activity logs pruned")

	return deleted, nil
}
