package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/course-builder/internal/model"
)

// SubmissionRepository is the submission ledger: every pipeline run and the
// backend records it created.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// Create inserts a pending submission.
func (r *SubmissionRepository) Create(ctx context.Context, s *model.Submission) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO submissions (id, user_id, kind, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		s.ID, s.UserID, s.Kind, model.SubmissionStatusPending,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}

// SetStatus moves a submission to a new status. A nil errMsg keeps the stored one.
func (r *SubmissionRepository) SetStatus(ctx context.Context, id uuid.UUID, status model.SubmissionStatus, errMsg *string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE submissions SET status = $1, error = COALESCE($2, error), updated_at = NOW() WHERE id = $3`,
		status, errMsg, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AddEntity records a backend record created by a submission.
func (r *SubmissionRepository) AddEntity(ctx context.Context, e *model.SubmissionEntity) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO submission_entities (submission_id, entity_type, backend_id, correlation_id)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (entity_type, backend_id) DO UPDATE SET submission_id = EXCLUDED.submission_id
		 RETURNING id, created_at`,
		e.SubmissionID, e.EntityType, e.BackendID, e.CorrelationID,
	).Scan(&e.ID, &e.CreatedAt)
}

// MarkEntityDeleted flags a backend record as removed by compensation.
func (r *SubmissionRepository) MarkEntityDeleted(ctx context.Context, entityType model.EntityType, backendID int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE submission_entities SET deleted = TRUE WHERE entity_type = $1 AND backend_id = $2`,
		entityType, backendID)
	return err
}

// CountLiveEntities counts records of a submission not yet deleted, excluding
// the course row itself.
func (r *SubmissionRepository) CountLiveEntities(ctx context.Context, submissionID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM submission_entities
		 WHERE submission_id = $1 AND deleted = FALSE AND entity_type <> $2`,
		submissionID, model.EntityCourse,
	).Scan(&n)
	return n, err
}

// GetByID returns a submission with its entities.
func (r *SubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error) {
	s := &model.Submission{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, kind, status, error, created_at, updated_at
		 FROM submissions WHERE id = $1`, id,
	).Scan(&s.ID, &s.UserID, &s.Kind, &s.Status, &s.Error, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, submission_id, entity_type, backend_id, correlation_id, deleted, created_at
		 FROM submission_entities WHERE submission_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	s.Entities, err = scanEntities(rows)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListByUser returns a page of a user's submissions, newest first.
func (r *SubmissionRepository) ListByUser(ctx context.Context, userID, page, perPage int) ([]model.Submission, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM submissions WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, kind, status, error, created_at, updated_at
		 FROM submissions WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		var s model.Submission
		if err := rows.Scan(&s.ID, &s.UserID, &s.Kind, &s.Status, &s.Error, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		subs = append(subs, s)
	}
	return subs, total, rows.Err()
}

// ListOrphanedEntities returns undeleted quiz and question records belonging
// to orphaned submissions.
func (r *SubmissionRepository) ListOrphanedEntities(ctx context.Context, limit int) ([]model.SubmissionEntity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.submission_id, e.entity_type, e.backend_id, e.correlation_id, e.deleted, e.created_at
		 FROM submission_entities e
		 JOIN submissions s ON s.id = e.submission_id
		 WHERE s.status = $1 AND e.deleted = FALSE AND e.entity_type <> $2
		 ORDER BY e.id
		 LIMIT $3`,
		model.SubmissionStatusOrphaned, model.EntityCourse, limit)
	if err != nil {
		return nil, fmt.Errorf("list orphaned entities: %w", err)
	}
	return scanEntities(rows)
}

func scanEntities(rows pgx.Rows) ([]model.SubmissionEntity, error) {
	defer rows.Close()

	out := []model.SubmissionEntity{}
	for rows.Next() {
		var e model.SubmissionEntity
		if err := rows.Scan(&e.ID, &e.SubmissionID, &e.EntityType, &e.BackendID, &e.CorrelationID, &e.Deleted, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
