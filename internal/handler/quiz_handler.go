package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/course-builder/internal/middleware"
	"github.com/stemsi/course-builder/internal/quiz"
	"github.com/stemsi/course-builder/internal/response"
	"github.com/stemsi/course-builder/internal/service"
	"github.com/stemsi/course-builder/internal/validator"
)

type QuizHandler struct {
	submissionService *service.SubmissionService
}

func NewQuizHandler(submissionService *service.SubmissionService) *QuizHandler {
	return &QuizHandler{submissionService: submissionService}
}

// Validate godoc
// POST /api/v1/admin/quizzes/validate
func (h *QuizHandler) Validate(c *gin.Context) {
	var form quiz.Form
	if fields := validator.Bind(c, &form); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	problems := quiz.ValidateQuizData(form)
	response.Success(c, http.StatusOK, gin.H{
		"valid":    len(problems) == 0,
		"problems": problems,
	})
}

// Submit godoc
// POST /api/v1/admin/quizzes
// Creates a quiz with its questions and options on an existing content item.
func (h *QuizHandler) Submit(c *gin.Context) {
	var form quiz.Form
	if fields := validator.Bind(c, &form); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.submissionService.CreateCompleteQuiz(c.Request.Context(), middleware.MustUserID(c), form)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res)
}
