package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stemsi/course-builder/internal/draft"
)

type memDraftStore struct {
	drafts map[int]*draft.Draft
}

func (m *memDraftStore) Get(_ context.Context, userID int) (*draft.Draft, error) {
	if d, ok := m.drafts[userID]; ok {
		cp := *d
		return &cp, nil
	}
	return draft.New(), nil
}

func (m *memDraftStore) Update(ctx context.Context, userID int, fn func(*draft.Draft) error) (*draft.Draft, error) {
	d, _ := m.Get(ctx, userID)
	if err := fn(d); err != nil {
		return nil, err
	}
	m.drafts[userID] = d
	return d, nil
}

func (m *memDraftStore) Delete(_ context.Context, userID int) error {
	delete(m.drafts, userID)
	return nil
}

func TestDraftService_Navigate(t *testing.T) {
	store := &memDraftStore{drafts: map[int]*draft.Draft{}}
	svc := NewDraftService(store, nil, zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Navigate(ctx, 1, draft.StepCourseContent); !errors.Is(err, ErrStepLocked) {
		t.Fatalf("err = %v, want ErrStepLocked", err)
	}
	if _, err := svc.Navigate(ctx, 1, draft.Step("finish")); !errors.Is(err, draft.ErrUnknownStep) {
		t.Fatalf("err = %v, want ErrUnknownStep", err)
	}

	name, desc, cat := "Go", "Learn", 2
	if _, err := svc.Apply(ctx, 1, func(d *draft.Draft) error {
		return d.SetBasicInfo(draft.BasicInfoPatch{Name: &name, Description: &desc, CategoryID: &cat})
	}); err != nil {
		t.Fatal(err)
	}

	d, err := svc.Navigate(ctx, 1, draft.StepCourseContent)
	if err != nil {
		t.Fatal(err)
	}
	if d.TargetPage != draft.StepCourseContent || !d.Target.CourseContent.Pending {
		t.Errorf("draft wizard = %s %+v", d.TargetPage, d.Target)
	}
}

func TestDraftService_SubmitClearsDraft(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "cover.png")
	if err := os.WriteFile(img, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := &memDraftStore{drafts: map[int]*draft.Draft{}}
	sub, _, _, _ := newService(newFakeBackend())
	svc := NewDraftService(store, sub, zerolog.Nop())
	ctx := context.Background()

	name, desc, cat := "Go", "Learn", 2
	_, err := svc.Apply(ctx, 4, func(d *draft.Draft) error {
		_ = d.SetBasicInfo(draft.BasicInfoPatch{Name: &name, Description: &desc, CategoryID: &cat})
		d.SetImage(&draft.FileRef{Path: img, Filename: "cover.png", ContentType: "image/png"})
		_, err := d.AddContentToSection(d.AddSection().ID, draft.URL{Href: "https://go.dev"})
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	res, err := svc.Submit(ctx, 4)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Course.ID != 500 {
		t.Errorf("course id = %d", res.Course.ID)
	}
	if _, ok := store.drafts[4]; ok {
		t.Error("draft kept after successful submission")
	}
	if _, err := os.Stat(img); !os.IsNotExist(err) {
		t.Errorf("upload not removed: %v", err)
	}
}

func TestDraftService_SubmitInvalidKeepsDraft(t *testing.T) {
	store := &memDraftStore{drafts: map[int]*draft.Draft{}}
	sub, _, _, _ := newService(newFakeBackend())
	svc := NewDraftService(store, sub, zerolog.Nop())
	ctx := context.Background()

	_, _ = svc.Apply(ctx, 5, func(d *draft.Draft) error { d.AddSection(); return nil })

	_, err := svc.Submit(ctx, 5)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if _, ok := store.drafts[5]; !ok {
		t.Error("draft discarded after failed submission")
	}
}
