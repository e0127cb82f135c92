package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/course-builder/internal/middleware"
	"github.com/stemsi/course-builder/internal/model"
	"github.com/stemsi/course-builder/internal/response"
	"github.com/stemsi/course-builder/internal/validator"
)

// SubmissionReader reads the submission ledger.
type SubmissionReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error)
	ListByUser(ctx context.Context, userID, page, perPage int) ([]model.Submission, int64, error)
}

type SubmissionHandler struct {
	submissions SubmissionReader
}

func NewSubmissionHandler(submissions SubmissionReader) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

// List godoc
// GET /api/v1/admin/submissions?page=1&per_page=10
func (h *SubmissionHandler) List(c *gin.Context) {
	var q model.SubmissionListQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PerPage == 0 {
		q.PerPage = 10
	}

	subs, total, err := h.submissions.ListByUser(c.Request.Context(), middleware.MustUserID(c), q.Page, q.PerPage)
	if err != nil {
		failWith(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"submissions": subs},
		response.NewPagination(q.Page, q.PerPage, total))
}

// Get godoc
// GET /api/v1/admin/submissions/:id
// Returns a submission with the backend records it created. Submissions of
// other admins answer 404.
func (h *SubmissionHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	sub, err := h.submissions.GetByID(c.Request.Context(), id)
	if err != nil {
		failWith(c, err)
		return
	}
	if sub.UserID != middleware.MustUserID(c) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"submission": sub})
}
