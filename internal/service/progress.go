package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/course-builder/internal/config"
	"github.com/stemsi/course-builder/internal/model"
)

// RedisProgressBus carries submission progress over Redis Pub/Sub on
// submission:<id>:events.
type RedisProgressBus struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisProgressBus creates a new RedisProgressBus.
func NewRedisProgressBus(rdb *redis.Client, log zerolog.Logger) *RedisProgressBus {
	return &RedisProgressBus{rdb: rdb, log: log.With().Str("component", "progress_bus").Logger()}
}

// Publish sends ev. Failures are logged; progress is best effort.
func (p *RedisProgressBus) Publish(ctx context.Context, ev model.ProgressEvent) {
	raw, err := json.Marshal(ev)
	if err != nil {
		p.log.Error().Err(err).Msg("Failed to encode progress event")
		return
	}

	channel := config.CacheKey.SubmissionEventsChannel(ev.SubmissionID.String())
	if err := p.rdb.Publish(context.WithoutCancel(ctx), channel, raw).Err(); err != nil {
		p.log.Warn().Err(err).Str("channel", channel).Msg("Failed to publish progress event")
	}
}

// Subscribe streams the progress events of one submission. The returned
// channel closes when ctx ends or the stop func is called.
func (p *RedisProgressBus) Subscribe(ctx context.Context, submissionID uuid.UUID) (<-chan model.ProgressEvent, func(), error) {
	channel := config.CacheKey.SubmissionEventsChannel(submissionID.String())
	ps := p.rdb.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	out := make(chan model.ProgressEvent)
	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev model.ProgressEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					p.log.Warn().Err(err).Str("channel", channel).Msg("Dropping malformed progress event")
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, func() { ps.Close() }, nil
}

// RedisCompensationQueue pushes compensation jobs onto the worker queue.
type RedisCompensationQueue struct {
	rdb *redis.Client
}

// NewRedisCompensationQueue creates a new RedisCompensationQueue.
func NewRedisCompensationQueue(rdb *redis.Client) *RedisCompensationQueue {
	return &RedisCompensationQueue{rdb: rdb}
}

// Enqueue appends job to the compensation queue.
func (q *RedisCompensationQueue) Enqueue(ctx context.Context, job model.CompensationJob) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	return q.rdb.RPush(ctx, config.WorkerKey.CompensationQueue, raw).Err()
}
