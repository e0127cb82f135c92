package draft

import (
	"fmt"
	"time"

	"github.com/jinzhu/copier"
)

// now is swapped in tests.
var now = time.Now

// BasicInfoPatch updates the basic info step; nil fields are left alone.
type BasicInfoPatch struct {
	Name                *string
	Description         *string
	CategoryID          *int
	Duration            *string
	VerifiedCertificate *bool
	TargetGroupIDs      []int
}

// SectionPatch updates a section's details; nil fields are left alone.
type SectionPatch struct {
	Title       *string
	Description *string
	Duration    *string
	HideSection *bool
	Mandatory   *bool
}

// nextID returns "<prefix>-<unix millis>", bumped until it is unused.
func nextID(prefix string, taken func(string) bool) string {
	n := now().UnixMilli()
	for {
		id := fmt.Sprintf("%s-%d", prefix, n)
		if !taken(id) {
			return id
		}
		n++
	}
}

func (d *Draft) touch() {
	d.UpdatedAt = now().UTC()
}

// SetBasicInfo merges patch into the basic info form.
func (d *Draft) SetBasicInfo(patch BasicInfoPatch) error {
	if err := copier.CopyWithOption(&d.Basic, &patch, copier.Option{IgnoreEmpty: true}); err != nil {
		return fmt.Errorf("merge basic info: %w", err)
	}
	d.touch()
	return nil
}

// SetImage attaches (or with nil, removes) the course image.
func (d *Draft) SetImage(ref *FileRef) {
	d.Basic.Image = ref
	d.touch()
}

// SetSuccessionRates replaces the grade bands.
func (d *Draft) SetSuccessionRates(rates []SuccessionRate) {
	d.SuccessionRates = append([]SuccessionRate{}, rates...)
	d.touch()
}

// AddSection appends a new section titled "Section N" and focuses it.
func (d *Draft) AddSection() *Section {
	s := Section{
		ID:       nextID("section", d.hasSection),
		Title:    fmt.Sprintf("Section %d", len(d.Sections)+1),
		Contents: []Content{},
	}
	d.Sections = append(d.Sections, s)
	d.ActiveSection = s.ID
	d.touch()
	return &d.Sections[len(d.Sections)-1]
}

// UpdateSectionTitle renames a section.
func (d *Draft) UpdateSectionTitle(id, title string) error {
	s, _ := d.Section(id)
	if s == nil {
		return ErrSectionNotFound
	}
	s.Title = title
	d.touch()
	return nil
}

// ToggleEditSection sets a section's inline-edit flag.
func (d *Draft) ToggleEditSection(id string, editing bool) error {
	s, _ := d.Section(id)
	if s == nil {
		return ErrSectionNotFound
	}
	s.IsEditing = editing
	d.touch()
	return nil
}

// UpdateSectionDetails merges patch into a section.
func (d *Draft) UpdateSectionDetails(id string, patch SectionPatch) error {
	s, _ := d.Section(id)
	if s == nil {
		return ErrSectionNotFound
	}
	if err := copier.CopyWithOption(s, &patch, copier.Option{IgnoreEmpty: true}); err != nil {
		return fmt.Errorf("merge section: %w", err)
	}
	d.touch()
	return nil
}

// SetActiveSection focuses a section. An empty id clears the focus.
func (d *Draft) SetActiveSection(id string) error {
	if id != "" && !d.hasSection(id) {
		return ErrSectionNotFound
	}
	d.ActiveSection = id
	d.touch()
	return nil
}

// ReorderSections moves the section at src to dst.
func (d *Draft) ReorderSections(src, dst int) error {
	if err := move(d.Sections, src, dst); err != nil {
		return err
	}
	d.touch()
	return nil
}

// AddContentToSection appends a content item and returns its id.
func (d *Draft) AddContentToSection(sectionID string, body Body) (string, error) {
	s, _ := d.Section(sectionID)
	if s == nil {
		return "", ErrSectionNotFound
	}
	id := nextID("content", d.hasContent)
	s.Contents = append(s.Contents, Content{ID: id, Body: body})
	d.touch()
	return id, nil
}

// UpdateContentInSection replaces a content item's body. The variant may not change.
func (d *Draft) UpdateContentInSection(sectionID, contentID string, body Body) error {
	c, err := d.findContent(sectionID, contentID)
	if err != nil {
		return err
	}
	if c.Body.Kind() != body.Kind() {
		return ErrContentTypeMismatch
	}
	c.Body = body
	d.touch()
	return nil
}

// RemoveContentFromSection deletes a content item.
func (d *Draft) RemoveContentFromSection(sectionID, contentID string) error {
	s, _ := d.Section(sectionID)
	if s == nil {
		return ErrSectionNotFound
	}
	_, i := s.Content(contentID)
	if i < 0 {
		return ErrContentNotFound
	}
	s.Contents = append(s.Contents[:i], s.Contents[i+1:]...)
	if d.Editing != nil && d.Editing.ContentID == contentID {
		d.Editing = nil
	}
	d.touch()
	return nil
}

// ReorderContentInSection moves a content item within its section.
func (d *Draft) ReorderContentInSection(sectionID string, src, dst int) error {
	s, _ := d.Section(sectionID)
	if s == nil {
		return ErrSectionNotFound
	}
	if err := move(s.Contents, src, dst); err != nil {
		return err
	}
	d.touch()
	return nil
}

// OpenContentForEdit copies a content item into the editing slot and opens
// the modal that matches its kind.
func (d *Draft) OpenContentForEdit(sectionID, contentID string) error {
	c, err := d.findContent(sectionID, contentID)
	if err != nil {
		return err
	}
	d.Editing = &Editing{SectionID: sectionID, ContentID: contentID, Content: *c}
	d.Modals.set(c.Body.Kind(), true)
	d.touch()
	return nil
}

// UpdateExistingContent stores body into the content item and clears the
// editing slot. Modal flags are left as they are; see CloseModal.
func (d *Draft) UpdateExistingContent(sectionID, contentID string, body Body) error {
	if err := d.UpdateContentInSection(sectionID, contentID, body); err != nil {
		return err
	}
	d.Editing = nil
	return nil
}

// OpenModal shows the modal of kind, e.g. to author a new item.
func (d *Draft) OpenModal(kind ContentKind) error {
	if !d.Modals.set(kind, true) {
		return ErrUnknownModal
	}
	d.touch()
	return nil
}

// CloseModal hides the modal of kind.
func (d *Draft) CloseModal(kind ContentKind) error {
	if !d.Modals.set(kind, false) {
		return ErrUnknownModal
	}
	d.touch()
	return nil
}

func (d *Draft) findContent(sectionID, contentID string) (*Content, error) {
	s, _ := d.Section(sectionID)
	if s == nil {
		return nil, ErrSectionNotFound
	}
	c, _ := s.Content(contentID)
	if c == nil {
		return nil, ErrContentNotFound
	}
	return c, nil
}

func (m *Modals) set(kind ContentKind, open bool) bool {
	switch kind {
	case KindTextPage:
		m.TextPage = open
	case KindTextBox:
		m.TextBox = open
	case KindURL:
		m.URL = open
	case KindFile:
		m.File = open
	case KindQuiz:
		m.Quiz = open
	default:
		return false
	}
	return true
}

// move removes items[src] and reinserts it at dst, in place.
func move[T any](items []T, src, dst int) error {
	if src < 0 || src >= len(items) || dst < 0 || dst >= len(items) {
		return ErrIndexOutOfRange
	}
	if src == dst {
		return nil
	}
	item := items[src]
	if src < dst {
		copy(items[src:dst], items[src+1:dst+1])
	} else {
		copy(items[dst+1:src+1], items[dst:src])
	}
	items[dst] = item
	return nil
}
