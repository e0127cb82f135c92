package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/course-builder/internal/draft"
	"github.com/stemsi/course-builder/internal/response"
	"github.com/stemsi/course-builder/internal/service"
)

// MediaHandler handles media upload endpoints.
type MediaHandler struct {
	mediaService *service.MediaService
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(mediaService *service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// UploadMedia godoc
// POST /api/v1/admin/media/upload?kind=image|content
// Stores a file and returns a reference usable in draft content.
func (h *MediaHandler) UploadMedia(c *gin.Context) {
	kind := service.MediaKind(c.DefaultQuery("kind", string(service.MediaContent)))
	if kind != service.MediaImage && kind != service.MediaContent {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"kind": "kind must be image or content"})
		return
	}

	ref, ok := saveUpload(c, h.mediaService, kind)
	if !ok {
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"file": ref,
		"url":  h.mediaService.URL(ref),
	})
}

// saveUpload stores the "file" form part. On failure it has already written
// the error response.
func saveUpload(c *gin.Context, media *service.MediaService, kind service.MediaKind) (*draft.FileRef, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return nil, false
	}
	defer file.Close()

	ref, err := media.SaveUpload(kind, file, header)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedFileType):
			response.FailWithDetails(c, http.StatusBadRequest, response.ErrUnsupportedFile, []string{err.Error()})
		case errors.Is(err, service.ErrFileTooLarge):
			response.Fail(c, http.StatusBadRequest, response.ErrFileTooLarge)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return nil, false
	}
	return ref, true
}
