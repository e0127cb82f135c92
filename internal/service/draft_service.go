package service

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/stemsi/course-builder/internal/draft"
)

// ErrStepLocked is returned when navigating to a step whose prerequisites
// are not met.
var ErrStepLocked = errors.New("wizard step is locked")

// DraftStore persists one draft per admin.
type DraftStore interface {
	Get(ctx context.Context, userID int) (*draft.Draft, error)
	Update(ctx context.Context, userID int, fn func(*draft.Draft) error) (*draft.Draft, error)
	Delete(ctx context.Context, userID int) error
}

// CourseSubmitter posts a finished draft to the backend.
type CourseSubmitter interface {
	CreateCourse(ctx context.Context, userID int, d *draft.Draft) (*CourseResult, error)
}

// DraftService applies wizard reducers to stored drafts.
type DraftService struct {
	store     DraftStore
	submitter CourseSubmitter
	log       zerolog.Logger
}

// NewDraftService creates a new DraftService.
func NewDraftService(store DraftStore, submitter CourseSubmitter, log zerolog.Logger) *DraftService {
	return &DraftService{
		store:     store,
		submitter: submitter,
		log:       log.With().Str("component", "draft_service").Logger(),
	}
}

// Get returns the admin's draft, creating an empty one if needed.
func (s *DraftService) Get(ctx context.Context, userID int) (*draft.Draft, error) {
	return s.store.Get(ctx, userID)
}

// Apply runs a reducer against the stored draft and saves the result. A
// reducer error leaves the stored draft untouched.
func (s *DraftService) Apply(ctx context.Context, userID int, reducer func(*draft.Draft) error) (*draft.Draft, error) {
	return s.store.Update(ctx, userID, reducer)
}

// Reset discards the admin's draft, as when the wizard is left.
func (s *DraftService) Reset(ctx context.Context, userID int) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("reset draft: %w", err)
	}
	return nil
}

// Navigate moves the wizard to step if its prerequisites are met.
func (s *DraftService) Navigate(ctx context.Context, userID int, step draft.Step) (*draft.Draft, error) {
	if !step.Valid() {
		return nil, draft.ErrUnknownStep
	}
	return s.store.Update(ctx, userID, func(d *draft.Draft) error {
		if !d.Navigate(step) {
			return ErrStepLocked
		}
		return nil
	})
}

// Validate returns the problems that would block submission.
func (s *DraftService) Validate(ctx context.Context, userID int) ([]string, error) {
	d, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return draft.ValidateCourse(d), nil
}

// Submit posts the stored draft as a new course. On success the draft and
// its local uploads are discarded.
func (s *DraftService) Submit(ctx context.Context, userID int) (*CourseResult, error) {
	d, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	res, err := s.submitter.CreateCourse(ctx, userID, d)
	if err != nil {
		return nil, err
	}

	if err := s.store.Delete(ctx, userID); err != nil {
		s.log.Warn().Err(err).Int("user_id", userID).Msg("Course created but draft could not be cleared")
	}
	s.removeUploads(d)
	return res, nil
}

func (s *DraftService) removeUploads(d *draft.Draft) {
	paths := []string{}
	if d.Basic.Image != nil {
		paths = append(paths, d.Basic.Image.Path)
	}
	for _, sec := range d.Sections {
		for _, c := range sec.Contents {
			if f, ok := c.Body.(draft.File); ok {
				paths = append(paths, f.File.Path)
			}
		}
	}

	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Warn().Err(err).Str("path", p).Msg("Failed to remove submitted upload")
		}
	}
}
