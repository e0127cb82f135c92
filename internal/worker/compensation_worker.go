package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/course-builder/internal/config"
	"github.com/stemsi/course-builder/internal/model"
)

const (
	CompensationPollTimeout = 1 * time.Second
	CompensationRetryDelay  = 5 * time.Second
	CompensationMaxAttempts = 5
)

// Deleter removes backend records. The backend client satisfies it when
// configured with the service token.
type Deleter interface {
	DeleteQuiz(ctx context.Context, id int64) error
	DeleteQuestion(ctx context.Context, id int64) error
}

// EntityLedger is the part of the submission ledger the worker updates.
type EntityLedger interface {
	MarkEntityDeleted(ctx context.Context, entityType model.EntityType, backendID int64) error
	CountLiveEntities(ctx context.Context, submissionID uuid.UUID) (int, error)
	SetStatus(ctx context.Context, id uuid.UUID, status model.SubmissionStatus, errMsg *string) error
}

// CompensationWorker retries compensating deletes that failed during a
// submission.
type CompensationWorker struct {
	rdb     *redis.Client
	deleter Deleter
	ledger  EntityLedger
	log     zerolog.Logger

	retryDelay time.Duration
}

func NewCompensationWorker(rdb *redis.Client, deleter Deleter, ledger EntityLedger, log zerolog.Logger) *CompensationWorker {
	return &CompensationWorker{
		rdb:        rdb,
		deleter:    deleter,
		ledger:     ledger,
		log:        log.With().Str("component", "compensation_worker").Logger(),
		retryDelay: CompensationRetryDelay,
	}
}

func (w *CompensationWorker) Start(ctx context.Context) {
	w.log.Info().Msg("CompensationWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Draining compensation queue...")
			w.drain(context.Background())
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *CompensationWorker) processNext(ctx context.Context) {
	item, err := w.rdb.BLPop(ctx, CompensationPollTimeout, config.WorkerKey.CompensationQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(item) < 2 {
		return
	}

	var job model.CompensationJob
	if err := json.Unmarshal([]byte(item[1]), &job); err != nil {
		w.log.Error().Err(err).Str("raw", item[1]).Msg("Invalid compensation payload")
		return
	}

	if err := w.Handle(ctx, job); err != nil {
		w.requeue(ctx, job, err)
		sleepCtx(ctx, w.retryDelay)
	}
}

// Handle deletes one backend record and settles the submission when nothing
// it created is left.
func (w *CompensationWorker) Handle(ctx context.Context, job model.CompensationJob) error {
	var err error
	switch job.EntityType {
	case model.EntityQuiz:
		err = w.deleter.DeleteQuiz(ctx, job.BackendID)
	case model.EntityQuestion:
		err = w.deleter.DeleteQuestion(ctx, job.BackendID)
	default:
		w.log.Warn().Str("entity_type", string(job.EntityType)).Msg("Skipping uncompensable entity")
		return nil
	}
	if err != nil {
		return err
	}

	if err := w.ledger.MarkEntityDeleted(ctx, job.EntityType, job.BackendID); err != nil {
		return fmt.Errorf("mark entity deleted: %w", err)
	}

	live, err := w.ledger.CountLiveEntities(ctx, job.SubmissionID)
	if err != nil {
		return fmt.Errorf("count live entities: %w", err)
	}
	if live == 0 {
		if err := w.ledger.SetStatus(ctx, job.SubmissionID, model.SubmissionStatusCompensated, nil); err != nil {
			return fmt.Errorf("set submission status: %w", err)
		}
		w.log.Info().Str("submission_id", job.SubmissionID.String()).Msg("Submission fully compensated")
	}
	return nil
}

// requeue puts a failed job back unless it has used up its attempts. Dropped
// jobs stay orphaned in the ledger and are picked up again by the sweep.
func (w *CompensationWorker) requeue(ctx context.Context, job model.CompensationJob, cause error) {
	job.Attempts++
	ev := w.log.Warn().Err(cause).
		Str("submission_id", job.SubmissionID.String()).
		Str("entity_type", string(job.EntityType)).
		Int64("backend_id", job.BackendID).
		Int("attempts", job.Attempts)

	if job.Attempts >= CompensationMaxAttempts {
		ev.Msg("Compensation attempts exhausted, leaving entity to the orphan sweep")
		return
	}
	ev.Msg("Compensation failed, retrying")

	raw, err := json.Marshal(job)
	if err != nil {
		return
	}
	if err := w.rdb.RPush(context.WithoutCancel(ctx), config.WorkerKey.CompensationQueue, raw).Err(); err != nil {
		w.log.Error().Err(err).Msg("Failed to requeue compensation job")
	}
}

// drain makes one pass over whatever is queued. Jobs that fail again are
// left on the queue for the next start.
func (w *CompensationWorker) drain(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	n, err := w.rdb.LLen(ctx, config.WorkerKey.CompensationQueue).Result()
	if err != nil {
		w.log.Error().Err(err).Msg("Drain LLen error")
		return
	}

	var failed []model.CompensationJob
	for i := int64(0); i < n; i++ {
		raw, err := w.rdb.LPop(ctx, config.WorkerKey.CompensationQueue).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				w.log.Error().Err(err).Msg("Drain LPop error")
			}
			break
		}

		var job model.CompensationJob
		if json.Unmarshal([]byte(raw), &job) != nil {
			continue
		}
		if err := w.Handle(ctx, job); err != nil {
			failed = append(failed, job)
		}
	}

	for _, job := range failed {
		if raw, err := json.Marshal(job); err == nil {
			w.rdb.RPush(context.Background(), config.WorkerKey.CompensationQueue, raw)
		}
	}
	w.log.Info().Int("requeued", len(failed)).Msg("Compensation drain complete")
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
