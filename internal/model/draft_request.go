package model

import "github.com/stemsi/course-builder/internal/quiz"

// UpdateBasicInfoRequest patches the basic info step. Omitted fields are kept.
type UpdateBasicInfoRequest struct {
	Name                *string `json:"name" binding:"omitempty,max=200"`
	Description         *string `json:"description" binding:"omitempty,max=5000"`
	CategoryID          *int    `json:"categoryId" binding:"omitempty,min=1"`
	Duration            *string `json:"duration" binding:"omitempty,max=32"`
	VerifiedCertificate *bool   `json:"verifiedCertificate"`
	TargetGroupIDs      []int   `json:"targetGroupIds" binding:"omitempty,dive,min=1"`
}

// SuccessionRateInput is one certificate band.
type SuccessionRateInput struct {
	CertificateID int `json:"certificateId" binding:"required,min=1"`
	MinRange      int `json:"minRange" binding:"min=0,max=100"`
	MaxRange      int `json:"maxRange" binding:"min=0,max=100,gtefield=MinRange"`
}

// SetSuccessionRatesRequest replaces the succession rate table.
type SetSuccessionRatesRequest struct {
	SuccessionRates []SuccessionRateInput `json:"successionRates" binding:"dive"`
}

// NavigateRequest moves the wizard to another page.
type NavigateRequest struct {
	Step string `json:"step" binding:"required,wizard_step"`
}

// UpdateSectionRequest patches a section. Omitted fields are kept.
type UpdateSectionRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=200"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	Duration    *string `json:"duration" binding:"omitempty,max=32"`
	HideSection *bool   `json:"hideSection"`
	Mandatory   *bool   `json:"mandatory"`
}

// UpdateSectionTitleRequest renames a section.
type UpdateSectionTitleRequest struct {
	Title string `json:"title" binding:"max=200"`
}

// ToggleEditSectionRequest flips a section's edit mode.
type ToggleEditSectionRequest struct {
	Editing *bool `json:"editing" binding:"required"`
}

// SetActiveSectionRequest selects the section new content goes to.
type SetActiveSectionRequest struct {
	SectionID string `json:"sectionId" binding:"required"`
}

// ReorderRequest moves the item at Source to Destination.
type ReorderRequest struct {
	Source      *int `json:"source" binding:"required,min=0"`
	Destination *int `json:"destination" binding:"required,min=0"`
}

// ContentRequest carries a non-file content item. File content is uploaded
// as multipart instead.
type ContentRequest struct {
	Type          string              `json:"type" binding:"required,content_kind"`
	ContentString string              `json:"contentString" binding:"max=100000"`
	Duration      any                 `json:"duration"`
	CanSkip       bool                `json:"canSkip"`
	Questions     []quiz.FormQuestion `json:"questions"`
}

// SubmissionListQuery pages through an admin's submissions.
type SubmissionListQuery struct {
	Page    int `form:"page" binding:"omitempty,min=1"`
	PerPage int `form:"per_page" binding:"omitempty,min=1,max=100"`
}
