package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/course-builder/internal/config"
	"github.com/stemsi/course-builder/internal/draft"
)

// ErrDraftBusy is returned when a draft kept changing under concurrent updates.
var ErrDraftBusy = errors.New("draft is being modified concurrently")

const maxDraftRetries = 5

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// DraftRepository stores one course draft per admin in Redis.
type DraftRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewDraftRepository creates a new DraftRepository. Drafts expire after ttl of inactivity.
func NewDraftRepository(rdb *redis.Client, ttl time.Duration) *DraftRepository {
	return &DraftRepository{rdb: rdb, ttl: ttl}
}

// Get returns the stored draft, or a fresh one when none exists.
func (r *DraftRepository) Get(ctx context.Context, userID int) (*draft.Draft, error) {
	return r.load(ctx, r.rdb, config.CacheKey.DraftKey(userID))
}

// Delete discards the stored draft.
func (r *DraftRepository) Delete(ctx context.Context, userID int) error {
	return r.rdb.Del(ctx, config.CacheKey.DraftKey(userID)).Err()
}

// Update loads the draft, applies fn and stores the result atomically. If
// another writer changes the draft in between, the whole cycle is retried.
// An error from fn aborts without writing.
func (r *DraftRepository) Update(ctx context.Context, userID int, fn func(*draft.Draft) error) (*draft.Draft, error) {
	key := config.CacheKey.DraftKey(userID)
	var result *draft.Draft

	txf := func(tx *redis.Tx) error {
		d, err := r.load(ctx, tx, key)
		if err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}

		raw, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("encode draft: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, r.ttl)
			return nil
		})
		if err == nil {
			result = d
		}
		return err
	}

	for i := 0; i < maxDraftRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return result, err
	}
	return nil, ErrDraftBusy
}

func (r *DraftRepository) load(ctx context.Context, c getter, key string) (*draft.Draft, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return draft.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}

	d := &draft.Draft{}
	if err := json.Unmarshal(raw, d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return d, nil
}
