package model

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionKind is what a submission sent to the backend.
type SubmissionKind string

const (
	SubmissionKindCourse SubmissionKind = "COURSE"
	SubmissionKindQuiz   SubmissionKind = "QUIZ"
)

// SubmissionStatus enumerates submission ledger states.
type SubmissionStatus string

const (
	SubmissionStatusPending     SubmissionStatus = "PENDING"
	SubmissionStatusSucceeded   SubmissionStatus = "SUCCEEDED"
	SubmissionStatusFailed      SubmissionStatus = "FAILED"
	SubmissionStatusCompensated SubmissionStatus = "COMPENSATED"
	SubmissionStatusOrphaned    SubmissionStatus = "ORPHANED"
)

// EntityType names a backend record created during a submission.
type EntityType string

const (
	EntityCourse   EntityType = "COURSE"
	EntityQuiz     EntityType = "QUIZ"
	EntityQuestion EntityType = "QUESTION"
)

// Submission is one run of the course or quiz pipeline.
type Submission struct {
	ID        uuid.UUID        `json:"id"`
	UserID    int              `json:"user_id"`
	Kind      SubmissionKind   `json:"kind"`
	Status    SubmissionStatus `json:"status"`
	Error     *string          `json:"error,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`

	Entities []SubmissionEntity `json:"entities,omitempty"`
}

// SubmissionEntity is a backend record created by a submission.
type SubmissionEntity struct {
	ID            int64      `json:"id"`
	SubmissionID  uuid.UUID  `json:"submission_id"`
	EntityType    EntityType `json:"entity_type"`
	BackendID     int64      `json:"backend_id"`
	CorrelationID *string    `json:"correlation_id,omitempty"`
	Deleted       bool       `json:"deleted"`
	CreatedAt     time.Time  `json:"created_at"`
}

// CompensationJob is queued when a compensating delete could not be made
// during the submission itself.
type CompensationJob struct {
	SubmissionID uuid.UUID  `json:"submission_id"`
	EntityType   EntityType `json:"entity_type"`
	BackendID    int64      `json:"backend_id"`
	Attempts     int        `json:"attempts"`
}

// ProgressStep names a stage of a submission pipeline.
type ProgressStep string

const (
	StepValidate   ProgressStep = "validate"
	StepCourse     ProgressStep = "course"
	StepQuiz       ProgressStep = "quiz"
	StepQuestions  ProgressStep = "questions"
	StepOptions    ProgressStep = "options"
	StepCompensate ProgressStep = "compensate"
	StepDone       ProgressStep = "done"
)

// ProgressState is the outcome of a step.
type ProgressState string

const (
	StateStarted   ProgressState = "started"
	StateSucceeded ProgressState = "succeeded"
	StateFailed    ProgressState = "failed"
)

// ProgressEvent is published for every pipeline step.
type ProgressEvent struct {
	SubmissionID uuid.UUID        `json:"submission_id"`
	Step         ProgressStep     `json:"step"`
	State        ProgressState    `json:"state"`
	Status       SubmissionStatus `json:"status,omitempty"`
	Message      string           `json:"message,omitempty"`
	EntityIDs    []int64          `json:"entity_ids,omitempty"`
	At           time.Time        `json:"at"`
}
