package handler

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog"
	"github.com/stemsi/course-builder/internal/draft"
	"github.com/stemsi/course-builder/internal/middleware"
	"github.com/stemsi/course-builder/internal/model"
	"github.com/stemsi/course-builder/internal/response"
	"github.com/stemsi/course-builder/internal/service"
	"github.com/stemsi/course-builder/internal/validator"
)

// DraftHandler exposes the course wizard. Every mutating route runs one
// reducer against the admin's stored draft and returns the new state.
type DraftHandler struct {
	draftService *service.DraftService
	mediaService *service.MediaService
	log          zerolog.Logger
}

// NewDraftHandler creates a new DraftHandler.
func NewDraftHandler(draftService *service.DraftService, mediaService *service.MediaService, log zerolog.Logger) *DraftHandler {
	return &DraftHandler{
		draftService: draftService,
		mediaService: mediaService,
		log:          log.With().Str("component", "draft_handler").Logger(),
	}
}

func (h *DraftHandler) respond(c *gin.Context, d *draft.Draft, err error) {
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"draft":      d,
		"navigation": draft.Navigation(d),
	})
}

func (h *DraftHandler) apply(c *gin.Context, reducer func(*draft.Draft) error) {
	d, err := h.draftService.Apply(c.Request.Context(), middleware.MustUserID(c), reducer)
	h.respond(c, d, err)
}

// Get godoc
// GET /api/v1/admin/draft
func (h *DraftHandler) Get(c *gin.Context) {
	d, err := h.draftService.Get(c.Request.Context(), middleware.MustUserID(c))
	h.respond(c, d, err)
}

// Reset godoc
// DELETE /api/v1/admin/draft
// Discards the draft, as when the admin leaves the wizard.
func (h *DraftHandler) Reset(c *gin.Context) {
	if err := h.draftService.Reset(c.Request.Context(), middleware.MustUserID(c)); err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "draft discarded"})
}

// UpdateBasicInfo godoc
// PUT /api/v1/admin/draft/basic-info
func (h *DraftHandler) UpdateBasicInfo(c *gin.Context) {
	var req model.UpdateBasicInfoRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	var patch draft.BasicInfoPatch
	if err := copier.Copy(&patch, &req); err != nil {
		failWith(c, err)
		return
	}
	h.apply(c, func(d *draft.Draft) error { return d.SetBasicInfo(patch) })
}

// UploadImage godoc
// POST /api/v1/admin/draft/image
// Stores the course cover image and attaches it to the draft.
func (h *DraftHandler) UploadImage(c *gin.Context) {
	ref, ok := saveUpload(c, h.mediaService, service.MediaImage)
	if !ok {
		return
	}

	var previous string
	d, err := h.draftService.Apply(c.Request.Context(), middleware.MustUserID(c), func(d *draft.Draft) error {
		previous = ""
		if d.Basic.Image != nil {
			previous = d.Basic.Image.Path
		}
		d.SetImage(ref)
		return nil
	})
	if err != nil {
		_ = os.Remove(ref.Path)
		failWith(c, err)
		return
	}
	if previous != "" && previous != ref.Path {
		if err := os.Remove(previous); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.log.Warn().Err(err).Str("path", previous).Msg("Failed to remove replaced image")
		}
	}
	h.respond(c, d, nil)
}

// SetSuccessionRates godoc
// PUT /api/v1/admin/draft/succession-rates
func (h *DraftHandler) SetSuccessionRates(c *gin.Context) {
	var req model.SetSuccessionRatesRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	rates := []draft.SuccessionRate{}
	if err := copier.Copy(&rates, &req.SuccessionRates); err != nil {
		failWith(c, err)
		return
	}
	h.apply(c, func(d *draft.Draft) error {
		d.SetSuccessionRates(rates)
		return nil
	})
}

// Navigate godoc
// PUT /api/v1/admin/draft/target-page
// Moves the wizard to another page. Locked pages answer 409 STEP_LOCKED.
func (h *DraftHandler) Navigate(c *gin.Context) {
	var req model.NavigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	d, err := h.draftService.Navigate(c.Request.Context(), middleware.MustUserID(c), draft.Step(req.Step))
	h.respond(c, d, err)
}

// Navigation godoc
// GET /api/v1/admin/draft/navigation
// Lists which wizard pages can be opened right now.
func (h *DraftHandler) Navigation(c *gin.Context) {
	d, err := h.draftService.Get(c.Request.Context(), middleware.MustUserID(c))
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"target_page": d.TargetPage,
		"navigation":  draft.Navigation(d),
	})
}

// Validate godoc
// GET /api/v1/admin/draft/validate
func (h *DraftHandler) Validate(c *gin.Context) {
	problems, err := h.draftService.Validate(c.Request.Context(), middleware.MustUserID(c))
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"valid":    len(problems) == 0,
		"problems": problems,
	})
}

// Submit godoc
// POST /api/v1/admin/draft/submit
// Creates the course on the backend and clears the draft.
func (h *DraftHandler) Submit(c *gin.Context) {
	res, err := h.draftService.Submit(c.Request.Context(), middleware.MustUserID(c))
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res)
}

// ─── Sections ───────────────────────────────────────────────────────

// AddSection godoc
// POST /api/v1/admin/draft/sections
func (h *DraftHandler) AddSection(c *gin.Context) {
	h.apply(c, func(d *draft.Draft) error {
		d.AddSection()
		return nil
	})
}

// UpdateSection godoc
// PATCH /api/v1/admin/draft/sections/:section_id
func (h *DraftHandler) UpdateSection(c *gin.Context) {
	var req model.UpdateSectionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	var patch draft.SectionPatch
	if err := copier.Copy(&patch, &req); err != nil {
		failWith(c, err)
		return
	}
	id := c.Param("section_id")
	h.apply(c, func(d *draft.Draft) error { return d.UpdateSectionDetails(id, patch) })
}

// UpdateSectionTitle godoc
// PUT /api/v1/admin/draft/sections/:section_id/title
func (h *DraftHandler) UpdateSectionTitle(c *gin.Context) {
	var req model.UpdateSectionTitleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	id := c.Param("section_id")
	h.apply(c, func(d *draft.Draft) error { return d.UpdateSectionTitle(id, req.Title) })
}

// ToggleEditSection godoc
// PUT /api/v1/admin/draft/sections/:section_id/editing
func (h *DraftHandler) ToggleEditSection(c *gin.Context) {
	var req model.ToggleEditSectionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	id := c.Param("section_id")
	h.apply(c, func(d *draft.Draft) error { return d.ToggleEditSection(id, *req.Editing) })
}

// SetActiveSection godoc
// PUT /api/v1/admin/draft/active-section
func (h *DraftHandler) SetActiveSection(c *gin.Context) {
	var req model.SetActiveSectionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.apply(c, func(d *draft.Draft) error { return d.SetActiveSection(req.SectionID) })
}

// ReorderSections godoc
// POST /api/v1/admin/draft/sections/reorder
func (h *DraftHandler) ReorderSections(c *gin.Context) {
	var req model.ReorderRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.apply(c, func(d *draft.Draft) error { return d.ReorderSections(*req.Source, *req.Destination) })
}

// ─── Contents ───────────────────────────────────────────────────────

// bindBody reads a JSON content item. Files must go through the multipart
// routes so the draft only ever points at stored uploads.
func bindBody(c *gin.Context) (draft.Body, bool) {
	var req model.ContentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return nil, false
	}
	if draft.ContentKind(req.Type) == draft.KindFile {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"type": "file content must be uploaded as multipart"})
		return nil, false
	}

	body, err := draft.BodyFromRecord(draft.ContentKind(req.Type), req.ContentString, nil, req.Duration, req.CanSkip, req.Questions)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return nil, false
	}
	return body, true
}

// AddContent godoc
// POST /api/v1/admin/draft/sections/:section_id/contents
func (h *DraftHandler) AddContent(c *gin.Context) {
	body, ok := bindBody(c)
	if !ok {
		return
	}
	sectionID := c.Param("section_id")
	h.apply(c, func(d *draft.Draft) error {
		_, err := d.AddContentToSection(sectionID, body)
		return err
	})
}

// AddFileContent godoc
// POST /api/v1/admin/draft/sections/:section_id/contents/file
func (h *DraftHandler) AddFileContent(c *gin.Context) {
	ref, ok := saveUpload(c, h.mediaService, service.MediaContent)
	if !ok {
		return
	}
	sectionID := c.Param("section_id")
	d, err := h.draftService.Apply(c.Request.Context(), middleware.MustUserID(c), func(d *draft.Draft) error {
		_, err := d.AddContentToSection(sectionID, draft.File{File: *ref})
		return err
	})
	if err != nil {
		_ = os.Remove(ref.Path)
	}
	h.respond(c, d, err)
}

// UpdateContent godoc
// PUT /api/v1/admin/draft/sections/:section_id/contents/:content_id
func (h *DraftHandler) UpdateContent(c *gin.Context) {
	body, ok := bindBody(c)
	if !ok {
		return
	}
	sectionID, contentID := c.Param("section_id"), c.Param("content_id")
	h.apply(c, func(d *draft.Draft) error { return d.UpdateContentInSection(sectionID, contentID, body) })
}

// RemoveContent godoc
// DELETE /api/v1/admin/draft/sections/:section_id/contents/:content_id
func (h *DraftHandler) RemoveContent(c *gin.Context) {
	sectionID, contentID := c.Param("section_id"), c.Param("content_id")

	var removed *draft.FileRef
	d, err := h.draftService.Apply(c.Request.Context(), middleware.MustUserID(c), func(d *draft.Draft) error {
		removed = nil
		if s, _ := d.Section(sectionID); s != nil {
			if ct, _ := s.Content(contentID); ct != nil {
				if f, ok := ct.Body.(draft.File); ok {
					removed = &f.File
				}
			}
		}
		return d.RemoveContentFromSection(sectionID, contentID)
	})
	if err == nil && removed != nil && removed.Path != "" {
		if rmErr := os.Remove(removed.Path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			h.log.Warn().Err(rmErr).Str("path", removed.Path).Msg("Failed to remove content upload")
		}
	}
	h.respond(c, d, err)
}

// ReorderContent godoc
// POST /api/v1/admin/draft/sections/:section_id/contents/reorder
func (h *DraftHandler) ReorderContent(c *gin.Context) {
	var req model.ReorderRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	sectionID := c.Param("section_id")
	h.apply(c, func(d *draft.Draft) error {
		return d.ReorderContentInSection(sectionID, *req.Source, *req.Destination)
	})
}

// OpenContentForEdit godoc
// POST /api/v1/admin/draft/sections/:section_id/contents/:content_id/edit
// Copies the item into the editing slot and opens its modal.
func (h *DraftHandler) OpenContentForEdit(c *gin.Context) {
	sectionID, contentID := c.Param("section_id"), c.Param("content_id")
	h.apply(c, func(d *draft.Draft) error { return d.OpenContentForEdit(sectionID, contentID) })
}

// CommitEdit godoc
// PUT /api/v1/admin/draft/editing
// Stores the edited body into the item opened with OpenContentForEdit.
func (h *DraftHandler) CommitEdit(c *gin.Context) {
	body, ok := bindBody(c)
	if !ok {
		return
	}
	h.apply(c, func(d *draft.Draft) error {
		if d.Editing == nil {
			return errNotEditing
		}
		return d.UpdateExistingContent(d.Editing.SectionID, d.Editing.ContentID, body)
	})
}

// ─── Modals ─────────────────────────────────────────────────────────

// OpenModal godoc
// POST /api/v1/admin/draft/modals/:kind
func (h *DraftHandler) OpenModal(c *gin.Context) {
	kind := draft.ContentKind(c.Param("kind"))
	h.apply(c, func(d *draft.Draft) error { return d.OpenModal(kind) })
}

// CloseModal godoc
// DELETE /api/v1/admin/draft/modals/:kind
func (h *DraftHandler) CloseModal(c *gin.Context) {
	kind := draft.ContentKind(c.Param("kind"))
	h.apply(c, func(d *draft.Draft) error { return d.CloseModal(kind) })
}
