// Package draft models a course under construction in the course wizard and
// the reducer operations that edit it.
//
// A Draft is a plain value owned by one wizard session. Reducers are methods
// on *Draft; callers load a draft, apply reducers, and store it back. Nothing
// in this package keeps global state.
package draft

import (
	"errors"
	"time"
)

// Reducer errors. A reducer that returns one of these leaves the draft untouched.
var (
	ErrSectionNotFound     = errors.New("section not found")
	ErrContentNotFound     = errors.New("content not found")
	ErrIndexOutOfRange     = errors.New("index out of range")
	ErrContentTypeMismatch = errors.New("content type mismatch")
	ErrUnknownStep         = errors.New("unknown wizard step")
	ErrUnknownModal        = errors.New("unknown modal")
)

// FileRef points at an uploaded file kept in local storage until submission.
type FileRef struct {
	Path        string `json:"path" yaml:"path"`
	Filename    string `json:"filename" yaml:"filename"`
	ContentType string `json:"contentType,omitempty" yaml:"contentType,omitempty"`
}

// BasicInfo is the first wizard step's form.
type BasicInfo struct {
	Name                string   `json:"name" yaml:"name"`
	Description         string   `json:"description" yaml:"description"`
	CategoryID          int      `json:"categoryId" yaml:"categoryId"`
	Duration            string   `json:"duration" yaml:"duration"`
	VerifiedCertificate bool     `json:"verifiedCertificate" yaml:"verifiedCertificate"`
	TargetGroupIDs      []int    `json:"targetGroupIds" yaml:"targetGroupIds"`
	Image               *FileRef `json:"imageFile,omitempty" yaml:"imageFile,omitempty"`
}

// SuccessionRate maps a grade band (percent) to a certificate.
type SuccessionRate struct {
	CertificateID int `json:"certificateId" yaml:"certificateId"`
	MinRange      int `json:"minRange" yaml:"minRange"`
	MaxRange      int `json:"maxRange" yaml:"maxRange"`
}

// Section groups ordered content items.
type Section struct {
	ID          string    `json:"id" yaml:"id"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Duration    string    `json:"duration" yaml:"duration"`
	HideSection bool      `json:"hideSection" yaml:"hideSection"`
	Mandatory   bool      `json:"mandatory" yaml:"mandatory"`
	IsEditing   bool      `json:"isEditing" yaml:"-"`
	Contents    []Content `json:"contents" yaml:"contents"`
}

// Editing is the content item currently open in a modal.
type Editing struct {
	SectionID string  `json:"sectionId"`
	ContentID string  `json:"contentId"`
	Content   Content `json:"content"`
}

// Modals holds one visibility flag per content modal.
type Modals struct {
	TextPage bool `json:"textPage"`
	TextBox  bool `json:"textBox"`
	URL      bool `json:"url"`
	File     bool `json:"file"`
	Quiz     bool `json:"quiz"`
}

// Draft is the whole course-wizard state.
type Draft struct {
	TargetPage      Step             `json:"targetPage" yaml:"-"`
	Target          Target           `json:"target" yaml:"-"`
	Basic           BasicInfo        `json:"basicInfo" yaml:"basicInfo"`
	SuccessionRates []SuccessionRate `json:"successionRates" yaml:"successionRates"`
	Sections        []Section        `json:"sections" yaml:"sections"`
	ActiveSection   string           `json:"activeSection,omitempty" yaml:"-"`
	Editing         *Editing         `json:"editing,omitempty" yaml:"-"`
	Modals          Modals           `json:"modals" yaml:"-"`
	UpdatedAt       time.Time        `json:"updatedAt" yaml:"-"`
}

// New returns a draft in its initial state: on the basic info step with
// nothing filled in.
func New() *Draft {
	d := &Draft{}
	d.Reset()
	return d
}

// Reset discards everything, as when the wizard is left or completed.
func (d *Draft) Reset() {
	*d = Draft{
		TargetPage:      StepBasicInfo,
		SuccessionRates: []SuccessionRate{},
		Sections:        []Section{},
	}
	d.Basic.TargetGroupIDs = []int{}
	d.SetTarget()
}

// Section returns a pointer to the section with the given id.
func (d *Draft) Section(id string) (*Section, int) {
	for i := range d.Sections {
		if d.Sections[i].ID == id {
			return &d.Sections[i], i
		}
	}
	return nil, -1
}

// Content returns a pointer to a content item of a section.
func (s *Section) Content(id string) (*Content, int) {
	for i := range s.Contents {
		if s.Contents[i].ID == id {
			return &s.Contents[i], i
		}
	}
	return nil, -1
}

func (d *Draft) hasSection(id string) bool {
	s, _ := d.Section(id)
	return s != nil
}

func (d *Draft) hasContent(id string) bool {
	for i := range d.Sections {
		if c, _ := d.Sections[i].Content(id); c != nil {
			return true
		}
	}
	return false
}
