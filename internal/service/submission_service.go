package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/course-builder/internal/backend"
	"github.com/stemsi/course-builder/internal/draft"
	"github.com/stemsi/course-builder/internal/model"
	"github.com/stemsi/course-builder/internal/payload"
	"github.com/stemsi/course-builder/internal/quiz"
)

// ErrQuestionCorrelation is returned when created question ids cannot be
// matched back to the submitted questions.
var ErrQuestionCorrelation = errors.New("cannot correlate created questions")

// ValidationError lists every problem found before anything was sent.
type ValidationError struct {
	Kind     model.SubmissionKind
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// SubmissionError is a pipeline failure after the submission started.
// Status tells whether created records were removed again.
type SubmissionError struct {
	SubmissionID uuid.UUID
	Step         model.ProgressStep
	Status       model.SubmissionStatus
	Err          error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission %s failed at %s: %v", e.SubmissionID, e.Step, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// BackendAPI is the subset of the Backend API the pipelines call.
type BackendAPI interface {
	CreateCourse(ctx context.Context, form *payload.Form) (backend.Entity, error)
	AddQuiz(ctx context.Context, form *payload.Form) (backend.Entity, error)
	AddQuestions(ctx context.Context, questions []quiz.Question) ([]backend.Entity, error)
	AddOptions(ctx context.Context, options []quiz.Option) ([]backend.Entity, error)
	DeleteQuiz(ctx context.Context, id int64) error
	DeleteQuestion(ctx context.Context, id int64) error
}

// Ledger records submissions and the backend records they create.
type Ledger interface {
	Create(ctx context.Context, s *model.Submission) error
	SetStatus(ctx context.Context, id uuid.UUID, status model.SubmissionStatus, errMsg *string) error
	AddEntity(ctx context.Context, e *model.SubmissionEntity) error
	MarkEntityDeleted(ctx context.Context, entityType model.EntityType, backendID int64) error
}

// ProgressPublisher fans out pipeline progress.
type ProgressPublisher interface {
	Publish(ctx context.Context, ev model.ProgressEvent)
}

// CompensationQueue holds deletes that must be retried later.
type CompensationQueue interface {
	Enqueue(ctx context.Context, job model.CompensationJob) error
}

// CourseResult is the outcome of a course submission.
type CourseResult struct {
	SubmissionID uuid.UUID      `json:"submission_id"`
	Course       backend.Entity `json:"course"`
}

// QuizResult is the outcome of a complete quiz submission.
type QuizResult struct {
	SubmissionID   uuid.UUID        `json:"submission_id"`
	Quiz           backend.Entity   `json:"quiz"`
	Questions      []backend.Entity `json:"questions"`
	OptionsCreated int              `json:"options_created"`
}

// SubmissionService runs the course and quiz submission pipelines. Steps run
// strictly in order because each needs the id created by the previous one.
type SubmissionService struct {
	api    BackendAPI
	ledger Ledger
	events ProgressPublisher
	queue  CompensationQueue
	log    zerolog.Logger
}

// NewSubmissionService creates a new SubmissionService. ledger, events and
// queue may be nil, e.g. for the CLI running without Postgres or Redis.
func NewSubmissionService(api BackendAPI, ledger Ledger, events ProgressPublisher, queue CompensationQueue, log zerolog.Logger) *SubmissionService {
	if ledger == nil {
		ledger = nopLedger{}
	}
	if events == nil {
		events = nopPublisher{}
	}
	return &SubmissionService{
		api:    api,
		ledger: ledger,
		events: events,
		queue:  queue,
		log:    log.With().Str("component", "submission_service").Logger(),
	}
}

// CreateCourse validates a draft and posts it as a new course.
func (s *SubmissionService) CreateCourse(ctx context.Context, userID int, d *draft.Draft) (*CourseResult, error) {
	if problems := draft.ValidateCourse(d); len(problems) > 0 {
		return nil, &ValidationError{Kind: model.SubmissionKindCourse, Problems: problems}
	}

	run, ctx, err := s.start(ctx, userID, model.SubmissionKindCourse)
	if err != nil {
		return nil, err
	}

	run.progress(ctx, model.StepCourse, model.StateStarted, "")
	course, err := s.api.CreateCourse(ctx, payload.BuildCourseForm(d, userID))
	if err != nil {
		return nil, run.fail(ctx, model.StepCourse, err)
	}
	if course.ID != 0 {
		run.record(ctx, model.EntityCourse, course.ID, "")
	}
	run.progress(ctx, model.StepCourse, model.StateSucceeded, "", course.ID)

	run.succeed(ctx)
	return &CourseResult{SubmissionID: run.id, Course: course}, nil
}

// CreateCompleteQuiz creates a quiz, its questions and their options.
//
// Questions are tagged with a correlation id so the ids the backend returns
// can be matched to them; position is used only when the backend does not
// echo the tags and returns exactly one id per question. If any step fails,
// the quiz and questions already created are deleted again, newest first.
func (s *SubmissionService) CreateCompleteQuiz(ctx context.Context, userID int, form quiz.Form) (*QuizResult, error) {
	if problems := quiz.ValidateQuizData(form); len(problems) > 0 {
		return nil, &ValidationError{Kind: model.SubmissionKindQuiz, Problems: problems}
	}

	questions := make([]quiz.FormQuestion, len(form.Questions))
	copy(questions, form.Questions)
	for i := range questions {
		if questions[i].CorrelationID == "" {
			questions[i].CorrelationID = uuid.NewString()
		}
	}
	form.Questions = questions

	run, ctx, err := s.start(ctx, userID, model.SubmissionKindQuiz)
	if err != nil {
		return nil, err
	}

	// Step 1: quiz row.
	run.progress(ctx, model.StepQuiz, model.StateStarted, "")
	quizEnt, err := s.api.AddQuiz(ctx, payload.BuildAddQuizForm(form.ContentID, form.Duration, form.CanSkip))
	if err != nil {
		return nil, run.fail(ctx, model.StepQuiz, err)
	}
	run.record(ctx, model.EntityQuiz, quizEnt.ID, "")
	run.progress(ctx, model.StepQuiz, model.StateSucceeded, "", quizEnt.ID)

	// Step 2: questions.
	run.progress(ctx, model.StepQuestions, model.StateStarted, "")
	created, err := s.api.AddQuestions(ctx, quiz.BuildQuestions(quizEnt.ID, form))
	if err != nil {
		return nil, s.compensate(ctx, run, model.StepQuestions, err, quizEnt.ID, nil)
	}

	// Every created row goes into the ledger, matched or not.
	for _, e := range created {
		if e.ID != 0 {
			run.record(ctx, model.EntityQuestion, e.ID, e.CorrelationID)
		}
	}

	matched, err := correlate(questions, created)
	if err != nil {
		return nil, s.compensate(ctx, run, model.StepQuestions, err, quizEnt.ID, entityIDs(created))
	}
	questionIDs := entityIDs(matched)
	run.progress(ctx, model.StepQuestions, model.StateSucceeded, "", questionIDs...)

	// Step 3: options, one call per question.
	run.progress(ctx, model.StepOptions, model.StateStarted, "")
	optionCount := 0
	for i, q := range questions {
		options := quiz.FormatOptionsForAPI(q, matched[i].ID)
		if len(options) == 0 {
			continue
		}
		if _, err := s.api.AddOptions(ctx, options); err != nil {
			return nil, s.compensate(ctx, run, model.StepOptions, err, quizEnt.ID, questionIDs)
		}
		optionCount += len(options)
	}
	run.progress(ctx, model.StepOptions, model.StateSucceeded, fmt.Sprintf("%d options", optionCount))

	run.succeed(ctx)
	return &QuizResult{
		SubmissionID:   run.id,
		Quiz:           quizEnt,
		Questions:      matched,
		OptionsCreated: optionCount,
	}, nil
}

// correlate orders created question entities like the submitted questions.
func correlate(questions []quiz.FormQuestion, created []backend.Entity) ([]backend.Entity, error) {
	byTag := make(map[string]backend.Entity, len(created))
	for _, e := range created {
		if e.CorrelationID == "" {
			byTag = nil
			break
		}
		byTag[e.CorrelationID] = e
	}

	if byTag != nil && len(created) > 0 {
		out := make([]backend.Entity, len(questions))
		for i, q := range questions {
			e, ok := byTag[q.CorrelationID]
			if !ok || e.ID == 0 {
				return nil, fmt.Errorf("%w: question %d has no created id", ErrQuestionCorrelation, i+1)
			}
			out[i] = e
		}
		return out, nil
	}

	if len(created) != len(questions) {
		return nil, fmt.Errorf("%w: sent %d questions, got %d ids", ErrQuestionCorrelation, len(questions), len(created))
	}
	for i, e := range created {
		if e.ID == 0 {
			return nil, fmt.Errorf("%w: question %d has no created id", ErrQuestionCorrelation, i+1)
		}
	}
	return created, nil
}

// compensate deletes questions (newest first) and then the quiz. Deletes
// that fail are queued for the compensation worker.
func (s *SubmissionService) compensate(ctx context.Context, run *submissionRun, step model.ProgressStep, cause error, quizID int64, questionIDs []int64) error {
	run.progress(ctx, step, model.StateFailed, cause.Error())

	// Keep going if the caller went away; credentials stay on the context.
	ctx = context.WithoutCancel(ctx)
	run.progress(ctx, model.StepCompensate, model.StateStarted, "")

	orphaned := 0
	undo := func(t model.EntityType, id int64, del func(context.Context, int64) error) {
		if id == 0 {
			return
		}
		if err := del(ctx, id); err != nil {
			orphaned++
			s.log.Warn().Err(err).Str("submission_id", run.id.String()).Str("entity", string(t)).Int64("backend_id", id).Msg("Compensating delete failed, queueing")
			s.enqueue(ctx, model.CompensationJob{SubmissionID: run.id, EntityType: t, BackendID: id})
			return
		}
		if err := s.ledger.MarkEntityDeleted(ctx, t, id); err != nil {
			s.log.Error().Err(err).Int64("backend_id", id).Msg("Failed to mark entity deleted")
		}
	}

	for i := len(questionIDs) - 1; i >= 0; i-- {
		undo(model.EntityQuestion, questionIDs[i], s.api.DeleteQuestion)
	}
	undo(model.EntityQuiz, quizID, s.api.DeleteQuiz)

	status := model.SubmissionStatusCompensated
	state := model.StateSucceeded
	if orphaned > 0 {
		status = model.SubmissionStatusOrphaned
		state = model.StateFailed
	}
	run.progress(ctx, model.StepCompensate, state, fmt.Sprintf("%d deletes pending", orphaned))
	run.finish(ctx, status, cause)

	return &SubmissionError{SubmissionID: run.id, Step: step, Status: status, Err: cause}
}

func (s *SubmissionService) enqueue(ctx context.Context, job model.CompensationJob) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.log.Error().Err(err).Int64("backend_id", job.BackendID).Msg("Failed to enqueue compensation job")
	}
}

// ─── Run bookkeeping ─────────────────────────────────────────────────

type submissionRun struct {
	svc *SubmissionService
	id  uuid.UUID
}

// start opens a ledger entry and returns a context that tags every backend
// request with the submission id as idempotency key.
func (s *SubmissionService) start(ctx context.Context, userID int, kind model.SubmissionKind) (*submissionRun, context.Context, error) {
	sub := &model.Submission{ID: uuid.New(), UserID: userID, Kind: kind}
	if err := s.ledger.Create(ctx, sub); err != nil {
		return nil, ctx, fmt.Errorf("create submission: %w", err)
	}

	s.log.Info().
		Str("submission_id", sub.ID.String()).
		Str("kind", string(kind)).
		Int("user_id", userID).
		Msg("Submission started")

	run := &submissionRun{svc: s, id: sub.ID}
	run.progress(ctx, model.StepValidate, model.StateSucceeded, "")
	return run, backend.WithIdempotencyKey(ctx, sub.ID.String()), nil
}

func (r *submissionRun) progress(ctx context.Context, step model.ProgressStep, state model.ProgressState, msg string, ids ...int64) {
	r.svc.events.Publish(ctx, model.ProgressEvent{
		SubmissionID: r.id,
		Step:         step,
		State:        state,
		Message:      msg,
		EntityIDs:    ids,
		At:           time.Now().UTC(),
	})
}

func (r *submissionRun) record(ctx context.Context, t model.EntityType, backendID int64, correlationID string) {
	e := &model.SubmissionEntity{SubmissionID: r.id, EntityType: t, BackendID: backendID}
	if correlationID != "" {
		e.CorrelationID = &correlationID
	}
	if err := r.svc.ledger.AddEntity(ctx, e); err != nil {
		r.svc.log.Error().Err(err).Str("submission_id", r.id.String()).Int64("backend_id", backendID).Msg("Failed to record entity")
	}
}

// fail ends a run at a step that created nothing to undo.
func (r *submissionRun) fail(ctx context.Context, step model.ProgressStep, err error) error {
	r.progress(ctx, step, model.StateFailed, err.Error())
	r.finish(ctx, model.SubmissionStatusFailed, err)
	return &SubmissionError{SubmissionID: r.id, Step: step, Status: model.SubmissionStatusFailed, Err: err}
}

func (r *submissionRun) succeed(ctx context.Context) {
	r.finish(ctx, model.SubmissionStatusSucceeded, nil)
}

func (r *submissionRun) finish(ctx context.Context, status model.SubmissionStatus, cause error) {
	var msg *string
	if cause != nil {
		m := cause.Error()
		msg = &m
	}
	if err := r.svc.ledger.SetStatus(context.WithoutCancel(ctx), r.id, status, msg); err != nil {
		r.svc.log.Error().Err(err).Str("submission_id", r.id.String()).Msg("Failed to update submission status")
	}

	ev := r.svc.log.Info()
	if cause != nil {
		ev = r.svc.log.Warn().Err(cause)
	}
	ev.Str("submission_id", r.id.String()).Str("status", string(status)).Msg("Submission finished")

	r.svc.events.Publish(ctx, model.ProgressEvent{
		SubmissionID: r.id,
		Step:         model.StepDone,
		State:        model.StateSucceeded,
		Status:       status,
		At:           time.Now().UTC(),
	})
}

func entityIDs(es []backend.Entity) []int64 {
	ids := make([]int64, 0, len(es))
	for _, e := range es {
		if e.ID != 0 {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

type nopLedger struct{}

func (nopLedger) Create(context.Context, *model.Submission) error { return nil }
func (nopLedger) SetStatus(context.Context, uuid.UUID, model.SubmissionStatus, *string) error {
	return nil
}
func (nopLedger) AddEntity(context.Context, *model.SubmissionEntity) error              { return nil }
func (nopLedger) MarkEntityDeleted(context.Context, model.EntityType, int64) error { return nil }

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, model.ProgressEvent) {}
