package draft

import (
	"encoding/json"
	"fmt"

	"github.com/stemsi/course-builder/internal/quiz"
	"gopkg.in/yaml.v3"
)

// ContentKind names a content variant. Each kind has its own modal.
type ContentKind string

const (
	KindTextPage ContentKind = "textPage"
	KindTextBox  ContentKind = "textBox"
	KindURL      ContentKind = "url"
	KindFile     ContentKind = "file"
	KindQuiz     ContentKind = "quiz"
)

// Backend content type codes.
const (
	TypeTextPage = 1
	TypeQuiz     = 2
	TypeTextBox  = 3
	TypeURL      = 4
	TypeFile     = 5
)

// Body is one content variant. Only the types in this file implement it.
type Body interface {
	Kind() ContentKind
	TypeCode() int
	isBody()
}

// TextPage is a rich text page.
type TextPage struct {
	HTML string
}

// TextBox is a short plain text block.
type TextBox struct {
	Text string
}

// URL links to an external resource.
type URL struct {
	Href string
}

// File is an uploaded attachment.
type File struct {
	File FileRef
}

// Quiz is an inline quiz. Duration accepts anything ticks.ParseDurationToTicks does.
type Quiz struct {
	Duration  any
	CanSkip   bool
	Questions []quiz.FormQuestion
}

func (TextPage) Kind() ContentKind { return KindTextPage }
func (TextBox) Kind() ContentKind  { return KindTextBox }
func (URL) Kind() ContentKind      { return KindURL }
func (File) Kind() ContentKind     { return KindFile }
func (Quiz) Kind() ContentKind     { return KindQuiz }

func (TextPage) TypeCode() int { return TypeTextPage }
func (TextBox) TypeCode() int  { return TypeTextBox }
func (URL) TypeCode() int      { return TypeURL }
func (File) TypeCode() int     { return TypeFile }
func (Quiz) TypeCode() int     { return TypeQuiz }

func (TextPage) isBody() {}
func (TextBox) isBody()  {}
func (URL) isBody()      {}
func (File) isBody()     {}
func (Quiz) isBody()     {}

// ContentString returns the text the backend receives as contentString, if
// the variant carries one.
func ContentString(b Body) (string, bool) {
	switch v := b.(type) {
	case TextPage:
		return v.HTML, true
	case TextBox:
		return v.Text, true
	case URL:
		return v.Href, true
	}
	return "", false
}

// Content is one item inside a section.
type Content struct {
	ID   string
	Body Body
}

// contentRecord is the flat wire shape of Content, discriminated by type.
type contentRecord struct {
	ID            string              `json:"id" yaml:"id"`
	Type          ContentKind         `json:"type" yaml:"type"`
	ContentString string              `json:"contentString,omitempty" yaml:"contentString,omitempty"`
	ContentFile   *FileRef            `json:"contentFile,omitempty" yaml:"contentFile,omitempty"`
	Duration      any                 `json:"duration,omitempty" yaml:"duration,omitempty"`
	CanSkip       bool                `json:"canSkip,omitempty" yaml:"canSkip,omitempty"`
	Questions     []quiz.FormQuestion `json:"questions,omitempty" yaml:"questions,omitempty"`
}

func (c Content) record() contentRecord {
	r := contentRecord{ID: c.ID}
	switch b := c.Body.(type) {
	case TextPage:
		r.Type, r.ContentString = KindTextPage, b.HTML
	case TextBox:
		r.Type, r.ContentString = KindTextBox, b.Text
	case URL:
		r.Type, r.ContentString = KindURL, b.Href
	case File:
		f := b.File
		r.Type, r.ContentFile = KindFile, &f
	case Quiz:
		r.Type, r.Duration, r.CanSkip, r.Questions = KindQuiz, b.Duration, b.CanSkip, b.Questions
	}
	return r
}

func (r contentRecord) content() (Content, error) {
	c := Content{ID: r.ID}
	switch r.Type {
	case KindTextPage:
		c.Body = TextPage{HTML: r.ContentString}
	case KindTextBox:
		c.Body = TextBox{Text: r.ContentString}
	case KindURL:
		c.Body = URL{Href: r.ContentString}
	case KindFile:
		var f FileRef
		if r.ContentFile != nil {
			f = *r.ContentFile
		}
		c.Body = File{File: f}
	case KindQuiz:
		qs := r.Questions
		if qs == nil {
			qs = []quiz.FormQuestion{}
		}
		c.Body = Quiz{Duration: r.Duration, CanSkip: r.CanSkip, Questions: qs}
	default:
		return Content{}, fmt.Errorf("unknown content type %q", r.Type)
	}
	return c, nil
}

// BodyFromRecord builds a Body from loose request fields.
func BodyFromRecord(kind ContentKind, contentString string, file *FileRef, duration any, canSkip bool, questions []quiz.FormQuestion) (Body, error) {
	c, err := contentRecord{
		Type:          kind,
		ContentString: contentString,
		ContentFile:   file,
		Duration:      duration,
		CanSkip:       canSkip,
		Questions:     questions,
	}.content()
	if err != nil {
		return nil, err
	}
	return c.Body, nil
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.Body == nil {
		return nil, fmt.Errorf("content %s has no body", c.ID)
	}
	return json.Marshal(c.record())
}

func (c *Content) UnmarshalJSON(data []byte) error {
	var r contentRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	decoded, err := r.content()
	if err != nil {
		return err
	}
	*c = decoded
	return nil
}

func (c Content) MarshalYAML() (any, error) {
	return c.record(), nil
}

func (c *Content) UnmarshalYAML(node *yaml.Node) error {
	var r contentRecord
	if err := node.Decode(&r); err != nil {
		return err
	}
	decoded, err := r.content()
	if err != nil {
		return err
	}
	*c = decoded
	return nil
}
