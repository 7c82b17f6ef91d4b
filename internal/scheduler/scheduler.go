// Package scheduler implements the sequential sleep-fetch-archive run loop.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cloudsight/skysnap/internal/snapshot"
)

// Collector runs the fetch-crop pipeline for one scheduled source.
// *snapshot.Pipeline satisfies it.
type Collector interface {
	Collect(ctx context.Context, src *snapshot.ScheduledSource) snapshot.Outcome
}

// Archiver relocates produced snapshots and reports how many files moved.
type Archiver interface {
	Archive(ctx context.Context) int
}

// Config controls run behavior.
type Config struct {
	// ArchiveEachSuccess archives after every successful fetch in addition
	// to the final pass, matching the continuous-operation variant.
	ArchiveEachSuccess bool
	// EventTopic names the topic collection events are published to.
	EventTopic string
}

// Scheduler orders scheduled sources by target instant and processes them one
// at a time, sleeping until each is due. Execution is strictly sequential:
// the only suspension is the blocking wait between items.
type Scheduler struct {
	clock     snapshot.Clock
	collector Collector
	archiver  Archiver
	publisher snapshot.Publisher
	cfg       Config
	runID     string
	logger    *zap.Logger
}

// New constructs a Scheduler. publisher may be nil to disable events.
func New(
	clock snapshot.Clock,
	collector Collector,
	archiver Archiver,
	publisher snapshot.Publisher,
	cfg Config,
	runID string,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		clock:     clock,
		collector: collector,
		archiver:  archiver,
		publisher: publisher,
		cfg:       cfg,
		runID:     runID,
		logger:    logger.With(zap.String("run_id", runID)),
	}
}

// Run executes one full pass over the definitions: expand into (source, time)
// pairs, compute targets against a single now snapshot, sort, then fetch each
// in order. Individual failures never abort the loop. Archiving runs once
// after the last item, and also after an interrupt; an interrupt during a
// wait skips all remaining items. Run returns ctx.Err() when interrupted and
// nil otherwise; expansion errors are the only other failure.
func (s *Scheduler) Run(ctx context.Context, defs []snapshot.SourceDefinition) error {
	items, err := snapshot.Expand(defs)
	if err != nil {
		return fmt.Errorf("expand sources: %w", err)
	}

	// One shared now snapshot for the whole schedule, so every target is
	// relative to the same reference point.
	now := s.clock.Now()
	for i := range items {
		items[i].ComputeTarget(now)
	}
	snapshot.OrderSchedule(items)

	s.logger.Info("Schedule computed",
		zap.Int("sources", len(items)),
		zap.Time("now", now))
	for i := range items {
		s.logger.Info("Scheduled",
			zap.String("source", items[i].DisplayForm()),
			zap.Time("target", items[i].Target))
	}

	interrupted := false
	for i := range items {
		src := &items[i]
		if !s.waitUntilDue(ctx, src) {
			s.logger.Info("Interrupted during wait; skipping remaining sources",
				zap.Int("remaining", len(items)-i))
			interrupted = true
			break
		}

		s.logger.Info("Collecting", zap.String("source", src.DisplayForm()))
		outcome := s.collector.Collect(ctx, src)
		if outcome.OK() {
			s.logger.Info("Collection succeeded",
				zap.String("source", src.DisplayForm()),
				zap.String("path", outcome.Path),
				zap.Duration("duration", outcome.Duration))
			if s.cfg.ArchiveEachSuccess {
				s.archiver.Archive(ctx)
			}
		} else {
			s.logger.Warn("Collection failed",
				zap.String("source", src.DisplayForm()),
				zap.Error(outcome.Err))
		}
		s.publishOutcome(ctx, src, outcome)

		if ctx.Err() != nil {
			s.logger.Info("Interrupted; skipping remaining sources",
				zap.Int("remaining", len(items)-i-1))
			interrupted = true
			break
		}
	}

	// The final pass must still run after an interrupt, so it is detached
	// from the canceled context.
	moved := s.archiver.Archive(context.WithoutCancel(ctx))
	s.logger.Info("Final archive pass complete", zap.Int("moved", moved))

	if interrupted {
		return ctx.Err()
	}
	s.logger.Info("All sources processed")
	return nil
}

// waitUntilDue blocks until the source's target instant or until ctx is
// canceled, returning false on cancellation. A target already in the past
// proceeds immediately.
func (s *Scheduler) waitUntilDue(ctx context.Context, src *snapshot.ScheduledSource) bool {
	delay := src.Target.Sub(s.clock.Now())
	if delay <= 0 {
		s.logger.Info("No wait needed", zap.String("source", src.DisplayForm()))
		return ctx.Err() == nil
	}

	s.logger.Info("Sleeping until trigger",
		zap.String("source", src.DisplayForm()),
		zap.Duration("delay", delay),
		zap.Time("target", src.Target))
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (s *Scheduler) publishOutcome(ctx context.Context, src *snapshot.ScheduledSource, outcome snapshot.Outcome) {
	if s.publisher == nil {
		return
	}
	event := snapshot.Event{
		RunID:  s.runID,
		Source: src.DisplayForm(),
		Target: src.Target,
		At:     s.clock.Now(),
	}
	if outcome.OK() {
		event.Path = outcome.Path
	} else {
		event.Error = outcome.Err.Error()
	}
	if _, err := s.publisher.Publish(ctx, s.cfg.EventTopic, event); err != nil {
		s.logger.Warn("Event publish failed",
			zap.String("source", src.DisplayForm()),
			zap.Error(err))
	}
}
