package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/course-builder/internal/middleware"
	"github.com/stemsi/course-builder/internal/model"
	ws "github.com/stemsi/course-builder/internal/websocket"
)

// ProgressSource streams the progress events of one submission.
type ProgressSource interface {
	Subscribe(ctx context.Context, submissionID uuid.UUID) (<-chan model.ProgressEvent, func(), error)
}

// WSHandler streams submission progress over WebSocket.
type WSHandler struct {
	submissions SubmissionReader
	progress    ProgressSource
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(submissions SubmissionReader, progress ProgressSource, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		submissions: submissions,
		progress:    progress,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    ws.BuildUpgrader(allowedOrigins),
	}
}

// SubmissionStream godoc
// WS /ws/v1/submissions/:id/stream?token=<jwt>
// Sends a snapshot of the submission, then every progress event until the
// submission settles.
func (h *WSHandler) SubmissionStream(c *gin.Context) {
	userID := middleware.MustUserID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission ID"})
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer cancel()

	// Subscribe before the snapshot so no event falls between the two.
	events, stop, err := h.progress.Subscribe(ctx, id)
	if err != nil {
		h.log.Error().Err(err).Msg("Progress subscribe failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "progress stream unavailable"})
		return
	}
	defer stop()

	sub, err := h.submissions.GetByID(ctx, id)
	if err != nil || sub.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "submission not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("user_id", userID).
		Str("submission_id", id.String()).
		Logger()
	wsLog.Debug().Msg("Progress stream opened")

	if err := ws.WriteTyped(conn, ws.SnapshotResponse{Event: ws.EventSnapshot, Submission: sub}); err != nil {
		return
	}
	if sub.Status != model.SubmissionStatusPending {
		h.finish(conn, sub.Status)
		return
	}

	pings := make(chan struct{}, 1)
	go h.readLoop(conn, wsLog, cancel, pings)

	for {
		select {
		case <-ctx.Done():
			return
		case <-pings:
			if ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}) != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				ws.WriteError(conn, "progress stream closed")
				return
			}
			if ws.WriteTyped(conn, ws.ProgressResponse{Event: ws.EventProgress, Progress: ev}) != nil {
				return
			}
			if ev.Step == model.StepDone {
				h.finish(conn, ev.Status)
				return
			}
		}
	}
}

func (h *WSHandler) finish(conn *websocket.Conn, status model.SubmissionStatus) {
	if ws.WriteTyped(conn, ws.DoneResponse{Event: ws.EventDone, Status: status}) == nil {
		ws.CloseNormal(conn, string(status))
	}
}

// readLoop answers pings and cancels the stream when the client goes away.
func (h *WSHandler) readLoop(conn *websocket.Conn, wsLog zerolog.Logger, cancel context.CancelFunc, pings chan<- struct{}) {
	defer cancel()
	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}
		if msg.Action == ws.ActionPing {
			select {
			case pings <- struct{}{}:
			default:
			}
		}
	}
}
