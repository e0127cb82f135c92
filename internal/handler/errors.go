package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/course-builder/internal/backend"
	"github.com/stemsi/course-builder/internal/draft"
	"github.com/stemsi/course-builder/internal/model"
	"github.com/stemsi/course-builder/internal/repository"
	"github.com/stemsi/course-builder/internal/response"
	"github.com/stemsi/course-builder/internal/service"
)

// errNotEditing is returned when committing an edit with nothing opened.
var errNotEditing = errors.New("no content is being edited")

// failWith maps domain and backend errors onto the response envelope.
func failWith(c *gin.Context, err error) {
	var (
		ve  *service.ValidationError
		se  *service.SubmissionError
		api *backend.APIError
	)

	switch {
	case errors.As(err, &ve):
		code := response.ErrCourseInvalid
		if ve.Kind == model.SubmissionKindQuiz {
			code = response.ErrQuizInvalid
		}
		response.FailWithDetails(c, http.StatusUnprocessableEntity, code, ve.Problems)
	case errors.Is(err, service.ErrStepLocked):
		response.Fail(c, http.StatusConflict, response.ErrStepLocked)
	case errors.Is(err, draft.ErrUnknownStep):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownStep)
	case errors.Is(err, draft.ErrUnknownModal):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	case errors.Is(err, draft.ErrSectionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSectionNotFound)
	case errors.Is(err, draft.ErrContentNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrContentNotFound)
	case errors.Is(err, draft.ErrIndexOutOfRange):
		response.Fail(c, http.StatusBadRequest, response.ErrIndexOutOfRange)
	case errors.Is(err, draft.ErrContentTypeMismatch):
		response.Fail(c, http.StatusBadRequest, response.ErrContentTypeMismatch)
	case errors.Is(err, errNotEditing), errors.Is(err, repository.ErrDraftBusy):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, backend.ErrTokenMissing):
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
	case errors.As(err, &se) && (se.Status == model.SubmissionStatusCompensated || se.Status == model.SubmissionStatusOrphaned):
		response.FailWithDetails(c, http.StatusBadGateway, response.ErrSubmissionPartial,
			[]string{se.SubmissionID.String(), string(se.Status), se.Err.Error()})
	case errors.As(err, &api):
		response.FailWithDetails(c, http.StatusBadGateway, response.ErrBackendRejected, []string{api.Message})
	case errors.Is(err, service.ErrQuestionCorrelation), errors.Is(err, backend.ErrMissingID):
		response.Fail(c, http.StatusBadGateway, response.ErrBackendRejected)
	case se != nil:
		response.FailWithDetails(c, http.StatusBadGateway, response.ErrBackendUnavailable, []string{se.SubmissionID.String()})
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
