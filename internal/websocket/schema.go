package websocket

import "github.com/stemsi/course-builder/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action of a client message.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSnapshot Event = "snapshot"
	EventProgress Event = "progress"
	EventDone     Event = "done"
	EventError    Event = "error"
	EventPong     Event = "pong"
)

// SnapshotResponse is the first message of a stream: the ledger view of the
// submission at connect time.
type SnapshotResponse struct {
	Event      Event             `json:"event"`
	Submission *model.Submission `json:"submission"`
}

// ProgressResponse relays one pipeline step.
type ProgressResponse struct {
	Event    Event               `json:"event"`
	Progress model.ProgressEvent `json:"progress"`
}

// DoneResponse closes the stream once the submission settles.
type DoneResponse struct {
	Event  Event                  `json:"event"`
	Status model.SubmissionStatus `json:"status"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
