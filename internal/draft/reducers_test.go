package draft

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stemsi/course-builder/internal/quiz"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"
)

func freezeClock(t *testing.T) {
	t.Helper()
	orig := now
	fixed := time.UnixMilli(1_700_000_000_000)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = orig })
}

func TestAddSection(t *testing.T) {
	freezeClock(t)
	d := New()

	s := d.AddSection()
	if s.ID != "section-1700000000000" {
		t.Errorf("ID = %q", s.ID)
	}
	if s.Title != "Section 1" {
		t.Errorf("Title = %q", s.Title)
	}
	if d.ActiveSection != s.ID {
		t.Errorf("ActiveSection = %q, want %q", d.ActiveSection, s.ID)
	}

	second := d.AddSection()
	if second.ID == d.Sections[0].ID {
		t.Error("ids collide under a frozen clock")
	}
	if second.Title != "Section 2" || d.ActiveSection != second.ID {
		t.Errorf("second section = %+v, active %q", second, d.ActiveSection)
	}
}

func TestProperty_SectionIDsUnique(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 200).Draw(t, "n")
		d := New()
		for i := 0; i < n; i++ {
			d.AddSection()
		}

		if len(d.Sections) != n {
			t.Fatalf("len(sections) = %d, want %d", len(d.Sections), n)
		}
		seen := make(map[string]bool, n)
		for _, s := range d.Sections {
			if seen[s.ID] {
				t.Fatalf("duplicate section id %s", s.ID)
			}
			seen[s.ID] = true
		}
	})
}

func TestProperty_IdentityReorder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 20).Draw(t, "n")
		d := New()
		for i := 0; i < n; i++ {
			d.AddSection()
		}
		before := append([]Section(nil), d.Sections...)

		i := rapid.IntRange(0, n-1).Draw(t, "i")
		if err := d.ReorderSections(i, i); err != nil {
			t.Fatalf("ReorderSections(%d, %d): %v", i, i, err)
		}
		if !reflect.DeepEqual(before, d.Sections) {
			t.Fatalf("identity move changed sections")
		}
	})
}

func TestReorderSections(t *testing.T) {
	d := New()
	for i := 0; i < 4; i++ {
		d.AddSection()
	}
	titles := func() []string {
		out := make([]string, len(d.Sections))
		for i, s := range d.Sections {
			out[i] = s.Title
		}
		return out
	}

	if err := d.ReorderSections(0, 2); err != nil {
		t.Fatal(err)
	}
	if got, want := titles(), []string{"Section 2", "Section 3", "Section 1", "Section 4"}; !reflect.DeepEqual(got, want) {
		t.Errorf("after 0->2: %v, want %v", got, want)
	}

	if err := d.ReorderSections(3, 0); err != nil {
		t.Fatal(err)
	}
	if got, want := titles(), []string{"Section 4", "Section 2", "Section 3", "Section 1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("after 3->0: %v, want %v", got, want)
	}

	for _, idx := range [][2]int{{-1, 0}, {0, 4}, {4, 0}} {
		if err := d.ReorderSections(idx[0], idx[1]); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("ReorderSections(%d, %d) = %v, want ErrIndexOutOfRange", idx[0], idx[1], err)
		}
	}
}

func TestSectionReducers_NotFound(t *testing.T) {
	d := New()
	d.AddSection()
	before, _ := json.Marshal(d)

	checks := map[string]error{
		"title":   d.UpdateSectionTitle("nope", "x"),
		"toggle":  d.ToggleEditSection("nope", true),
		"details": d.UpdateSectionDetails("nope", SectionPatch{}),
		"active":  d.SetActiveSection("nope"),
	}
	_, err := d.AddContentToSection("nope", TextBox{Text: "x"})
	checks["add content"] = err

	for name, err := range checks {
		if !errors.Is(err, ErrSectionNotFound) {
			t.Errorf("%s: err = %v, want ErrSectionNotFound", name, err)
		}
	}

	after, _ := json.Marshal(d)
	if string(before) != string(after) {
		t.Error("failed reducers modified the draft")
	}
}

func TestUpdateSectionDetails(t *testing.T) {
	d := New()
	s := d.AddSection()
	id := s.ID

	desc, mandatory := "Basics", true
	if err := d.UpdateSectionDetails(id, SectionPatch{Description: &desc, Mandatory: &mandatory}); err != nil {
		t.Fatal(err)
	}
	got, _ := d.Section(id)
	if got.Description != "Basics" || !got.Mandatory || got.Title != "Section 1" {
		t.Errorf("section = %+v", got)
	}

	if err := d.UpdateSectionTitle(id, "Intro"); err != nil {
		t.Fatal(err)
	}
	if err := d.ToggleEditSection(id, true); err != nil {
		t.Fatal(err)
	}
	if got.Title != "Intro" || !got.IsEditing {
		t.Errorf("section = %+v", got)
	}
}

func TestContentLifecycle(t *testing.T) {
	d := New()
	sid := d.AddSection().ID

	pageID, err := d.AddContentToSection(sid, TextPage{HTML: "<p>hi</p>"})
	if err != nil {
		t.Fatal(err)
	}
	urlID, err := d.AddContentToSection(sid, URL{Href: "https://go.dev"})
	if err != nil {
		t.Fatal(err)
	}
	if pageID == urlID {
		t.Fatal("content ids collide")
	}

	if err := d.OpenContentForEdit(sid, urlID); err != nil {
		t.Fatal(err)
	}
	if !d.Modals.URL || d.Modals.TextPage {
		t.Errorf("modals = %+v, want only url open", d.Modals)
	}
	if d.Editing == nil || d.Editing.ContentID != urlID {
		t.Fatalf("editing = %+v", d.Editing)
	}
	if href := d.Editing.Content.Body.(URL).Href; href != "https://go.dev" {
		t.Errorf("editing href = %q", href)
	}

	if err := d.UpdateExistingContent(sid, urlID, TextBox{Text: "x"}); !errors.Is(err, ErrContentTypeMismatch) {
		t.Errorf("variant change err = %v", err)
	}
	if err := d.UpdateExistingContent(sid, urlID, URL{Href: "https://pkg.go.dev"}); err != nil {
		t.Fatal(err)
	}
	if d.Editing != nil {
		t.Error("editing slot not cleared")
	}
	if !d.Modals.URL {
		t.Error("UpdateExistingContent must not close the modal")
	}
	if err := d.CloseModal(KindURL); err != nil || d.Modals.URL {
		t.Errorf("CloseModal: err=%v modals=%+v", err, d.Modals)
	}

	if err := d.ReorderContentInSection(sid, 1, 0); err != nil {
		t.Fatal(err)
	}
	s, _ := d.Section(sid)
	if s.Contents[0].ID != urlID {
		t.Errorf("first content = %s, want %s", s.Contents[0].ID, urlID)
	}

	if err := d.RemoveContentFromSection(sid, pageID); err != nil {
		t.Fatal(err)
	}
	if len(s.Contents) != 1 {
		t.Errorf("len(contents) = %d", len(s.Contents))
	}
	if err := d.RemoveContentFromSection(sid, pageID); !errors.Is(err, ErrContentNotFound) {
		t.Errorf("second remove err = %v", err)
	}
}

func TestOpenContentForEdit_ModalPerKind(t *testing.T) {
	bodies := []Body{
		TextPage{HTML: "a"},
		TextBox{Text: "b"},
		URL{Href: "c"},
		File{File: FileRef{Path: "/tmp/x.pdf", Filename: "x.pdf"}},
		Quiz{CanSkip: true},
	}

	for _, b := range bodies {
		t.Run(string(b.Kind()), func(t *testing.T) {
			d := New()
			sid := d.AddSection().ID
			cid, _ := d.AddContentToSection(sid, b)
			if err := d.OpenContentForEdit(sid, cid); err != nil {
				t.Fatal(err)
			}

			want := Modals{}
			want.set(b.Kind(), true)
			if d.Modals != want {
				t.Errorf("modals = %+v, want %+v", d.Modals, want)
			}
		})
	}
}

func TestSetBasicInfo_PatchKeepsUnsetFields(t *testing.T) {
	d := New()
	name, cat := "Go", 2
	if err := d.SetBasicInfo(BasicInfoPatch{Name: &name, CategoryID: &cat, TargetGroupIDs: []int{4, 5}}); err != nil {
		t.Fatal(err)
	}
	desc := "Learn Go"
	if err := d.SetBasicInfo(BasicInfoPatch{Description: &desc}); err != nil {
		t.Fatal(err)
	}

	b := d.Basic
	if b.Name != "Go" || b.Description != "Learn Go" || b.CategoryID != 2 {
		t.Errorf("basic = %+v", b)
	}
	if !reflect.DeepEqual(b.TargetGroupIDs, []int{4, 5}) {
		t.Errorf("TargetGroupIDs = %v", b.TargetGroupIDs)
	}
}

func TestDraftJSONKeepsVariants(t *testing.T) {
	d := New()
	sid := d.AddSection().ID
	d.AddContentToSection(sid, File{File: FileRef{Path: "/u/a.pdf", Filename: "a.pdf"}})
	d.AddContentToSection(sid, Quiz{Duration: "0:45", CanSkip: true, Questions: []quiz.FormQuestion{
		{Type: quiz.KindChoice, Text: "?", Content: quiz.FormContent{Answers: []string{"a", "b"}, CorrectAnswers: []string{"a"}}},
	}})

	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	var back Draft
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}

	contents := back.Sections[0].Contents
	if f, ok := contents[0].Body.(File); !ok || f.File.Filename != "a.pdf" {
		t.Errorf("file content = %#v", contents[0].Body)
	}
	q, ok := contents[1].Body.(Quiz)
	if !ok || !q.CanSkip || q.Duration != "0:45" || len(q.Questions) != 1 {
		t.Errorf("quiz content = %#v", contents[1].Body)
	}

	if err := json.Unmarshal([]byte(`{"id":"c","type":"video"}`), &Content{}); err == nil {
		t.Error("unknown content type accepted")
	}
}

func TestContentFromYAML(t *testing.T) {
	src := `
sections:
  - title: Intro
    contents:
      - type: textBox
        contentString: hello
      - type: url
        contentString: https://go.dev
`
	var d Draft
	if err := yaml.Unmarshal([]byte(src), &d); err != nil {
		t.Fatal(err)
	}
	got := d.Sections[0].Contents
	if tb, ok := got[0].Body.(TextBox); !ok || tb.Text != "hello" {
		t.Errorf("first content = %#v", got[0].Body)
	}
	if u, ok := got[1].Body.(URL); !ok || u.Href != "https://go.dev" {
		t.Errorf("second content = %#v", got[1].Body)
	}
}
