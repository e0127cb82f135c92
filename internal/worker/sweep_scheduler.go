package worker

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/stemsi/course-builder/internal/config"
	"github.com/stemsi/course-builder/internal/model"
)

const (
	SweepBatchSize = 200
	SweepLockTTL   = 5 * time.Minute
)

// OrphanLister finds ledger entities that compensation never removed.
type OrphanLister interface {
	ListOrphanedEntities(ctx context.Context, limit int) ([]model.SubmissionEntity, error)
}

// JobQueue accepts compensation jobs.
type JobQueue interface {
	Enqueue(ctx context.Context, job model.CompensationJob) error
}

// SweepScheduler periodically re-enqueues orphaned backend records so the
// compensation worker gets another go at them.
type SweepScheduler struct {
	rdb    *redis.Client
	lister OrphanLister
	queue  JobQueue
	log    zerolog.Logger
	cron   *cron.Cron
}

func NewSweepScheduler(rdb *redis.Client, lister OrphanLister, queue JobQueue, log zerolog.Logger) *SweepScheduler {
	return &SweepScheduler{
		rdb:    rdb,
		lister: lister,
		queue:  queue,
		log:    log.With().Str("component", "sweep_scheduler").Logger(),
		cron:   cron.New(),
	}
}

// Start registers the sweep on schedule (standard cron syntax or
// descriptors such as "@every 10m") and starts the scheduler.
func (s *SweepScheduler) Start(ctx context.Context, schedule string) error {
	if _, err := s.cron.AddFunc(schedule, func() { s.Sweep(ctx) }); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info().Str("schedule", schedule).Msg("SweepScheduler started")
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *SweepScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("SweepScheduler stopped")
}

// Sweep enqueues one batch of orphaned entities. With several replicas only
// the one holding the sweep lock runs.
func (s *SweepScheduler) Sweep(ctx context.Context) int {
	if ctx.Err() != nil {
		return 0
	}

	if s.rdb != nil {
		ok, err := s.rdb.SetNX(ctx, config.CacheKey.SweepLockKey(), "1", SweepLockTTL).Result()
		if err != nil {
			s.log.Error().Err(err).Msg("Failed to take sweep lock")
			return 0
		}
		if !ok {
			return 0
		}
		defer s.rdb.Del(context.WithoutCancel(ctx), config.CacheKey.SweepLockKey())
	}

	entities, err := s.lister.ListOrphanedEntities(ctx, SweepBatchSize)
	if err != nil {
		s.log.Error().Err(err).Msg("Orphan sweep failed")
		return 0
	}

	queued := 0
	for _, e := range entities {
		job := model.CompensationJob{
			SubmissionID: e.SubmissionID,
			EntityType:   e.EntityType,
			BackendID:    e.BackendID,
		}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			s.log.Error().Err(err).Int64("backend_id", e.BackendID).Msg("Failed to enqueue orphan")
			continue
		}
		queued++
	}

	if queued > 0 {
		s.log.Info().Int("queued", queued).Msg("Orphaned entities re-enqueued")
	}
	return queued
}
