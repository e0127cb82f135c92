// Package payload assembles Backend API request bodies from drafts and quiz forms.
package payload

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"strconv"
	"strings"
)

// Field is one text part of a multipart body.
type Field struct {
	Name  string
	Value string
}

// FilePart is one file part of a multipart body, read from Path at encode time.
type FilePart struct {
	Name        string
	Filename    string
	ContentType string
	Path        string
}

// Form is an ordered multipart body. Field order is preserved on the wire.
type Form struct {
	Fields []Field
	Files  []FilePart
}

// Add appends a text field.
func (f *Form) Add(name, value string) {
	f.Fields = append(f.Fields, Field{Name: name, Value: value})
}

// AddInt appends an integer field.
func (f *Form) AddInt(name string, v int64) {
	f.Add(name, strconv.FormatInt(v, 10))
}

// AddBool appends "true" or "false".
func (f *Form) AddBool(name string, v bool) {
	f.Add(name, strconv.FormatBool(v))
}

// AddFloat appends a float in its shortest form.
func (f *Form) AddFloat(name string, v float64) {
	f.Add(name, strconv.FormatFloat(v, 'f', -1, 64))
}

// AddFile appends a file part.
func (f *Form) AddFile(name, filename, contentType, path string) {
	f.Files = append(f.Files, FilePart{Name: name, Filename: filename, ContentType: contentType, Path: path})
}

// Get returns the first value of name.
func (f *Form) Get(name string) (string, bool) {
	for _, fld := range f.Fields {
		if fld.Name == name {
			return fld.Value, true
		}
	}
	return "", false
}

// Names lists the field names in order.
func (f *Form) Names() []string {
	out := make([]string, len(f.Fields))
	for i, fld := range f.Fields {
		out[i] = fld.Name
	}
	return out
}

// Encode writes the form as multipart/form-data and returns the body and
// its content type.
func (f *Form) Encode() (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	for _, fld := range f.Fields {
		if err := w.WriteField(fld.Name, fld.Value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", fld.Name, err)
		}
	}

	for _, fp := range f.Files {
		if err := writeFile(w, fp); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return body, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFile(w *multipart.Writer, fp FilePart) error {
	src, err := os.Open(fp.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", fp.Name, err)
	}
	defer src.Close()

	contentType := fp.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(fp.Name), quoteEscaper.Replace(fp.Filename)))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create part %s: %w", fp.Name, err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("copy %s: %w", fp.Name, err)
	}
	return nil
}
