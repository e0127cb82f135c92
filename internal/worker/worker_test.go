package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/course-builder/internal/model"
)

type fakeDeleter struct {
	quizzes   []int64
	questions []int64
	fail      bool
}

func (f *fakeDeleter) DeleteQuiz(_ context.Context, id int64) error {
	if f.fail {
		return errors.New("backend down")
	}
	f.quizzes = append(f.quizzes, id)
	return nil
}

func (f *fakeDeleter) DeleteQuestion(_ context.Context, id int64) error {
	if f.fail {
		return errors.New("backend down")
	}
	f.questions = append(f.questions, id)
	return nil
}

type fakeLedger struct {
	live    map[int64]bool
	status  map[uuid.UUID]model.SubmissionStatus
	orphans []model.SubmissionEntity
}

func (l *fakeLedger) MarkEntityDeleted(_ context.Context, _ model.EntityType, id int64) error {
	delete(l.live, id)
	return nil
}

func (l *fakeLedger) CountLiveEntities(context.Context, uuid.UUID) (int, error) {
	return len(l.live), nil
}

func (l *fakeLedger) SetStatus(_ context.Context, id uuid.UUID, s model.SubmissionStatus, _ *string) error {
	l.status[id] = s
	return nil
}

func (l *fakeLedger) ListOrphanedEntities(_ context.Context, limit int) ([]model.SubmissionEntity, error) {
	if len(l.orphans) > limit {
		return l.orphans[:limit], nil
	}
	return l.orphans, nil
}

type fakeQueue struct{ jobs []model.CompensationJob }

func (q *fakeQueue) Enqueue(_ context.Context, job model.CompensationJob) error {
	q.jobs = append(q.jobs, job)
	return nil
}

func TestCompensationWorker_Handle(t *testing.T) {
	sub := uuid.New()
	ledger := &fakeLedger{
		live:   map[int64]bool{1: true, 10: true},
		status: map[uuid.UUID]model.SubmissionStatus{},
	}
	del := &fakeDeleter{}
	w := NewCompensationWorker(nil, del, ledger, zerolog.Nop())
	ctx := context.Background()

	if err := w.Handle(ctx, model.CompensationJob{SubmissionID: sub, EntityType: model.EntityQuestion, BackendID: 10}); err != nil {
		t.Fatal(err)
	}
	if _, ok := ledger.status[sub]; ok {
		t.Fatal("submission settled while the quiz is still live")
	}

	if err := w.Handle(ctx, model.CompensationJob{SubmissionID: sub, EntityType: model.EntityQuiz, BackendID: 1}); err != nil {
		t.Fatal(err)
	}
	if ledger.status[sub] != model.SubmissionStatusCompensated {
		t.Errorf("status = %q, want COMPENSATED", ledger.status[sub])
	}
	if len(del.questions) != 1 || del.questions[0] != 10 || len(del.quizzes) != 1 || del.quizzes[0] != 1 {
		t.Errorf("deletes = %v %v", del.questions, del.quizzes)
	}
}

func TestCompensationWorker_HandleFailure(t *testing.T) {
	sub := uuid.New()
	ledger := &fakeLedger{
		live:   map[int64]bool{1: true},
		status: map[uuid.UUID]model.SubmissionStatus{},
	}
	w := NewCompensationWorker(nil, &fakeDeleter{fail: true}, ledger, zerolog.Nop())

	err := w.Handle(context.Background(), model.CompensationJob{SubmissionID: sub, EntityType: model.EntityQuiz, BackendID: 1})
	if err == nil {
		t.Fatal("expected error")
	}
	if !ledger.live[1] {
		t.Error("entity marked deleted after a failed delete")
	}
}

func TestCompensationWorker_SkipsCourse(t *testing.T) {
	del := &fakeDeleter{fail: true}
	w := NewCompensationWorker(nil, del, &fakeLedger{}, zerolog.Nop())

	if err := w.Handle(context.Background(), model.CompensationJob{EntityType: model.EntityCourse, BackendID: 3}); err != nil {
		t.Errorf("course job: %v", err)
	}
}

func TestSweepScheduler_Sweep(t *testing.T) {
	sub := uuid.New()
	ledger := &fakeLedger{orphans: []model.SubmissionEntity{
		{SubmissionID: sub, EntityType: model.EntityQuestion, BackendID: 11},
		{SubmissionID: sub, EntityType: model.EntityQuiz, BackendID: 2},
	}}
	queue := &fakeQueue{}
	s := NewSweepScheduler(nil, ledger, queue, zerolog.Nop())

	if n := s.Sweep(context.Background()); n != 2 {
		t.Fatalf("queued = %d, want 2", n)
	}
	if queue.jobs[0].BackendID != 11 || queue.jobs[1].EntityType != model.EntityQuiz || queue.jobs[1].SubmissionID != sub {
		t.Errorf("jobs = %+v", queue.jobs)
	}
	if queue.jobs[0].Attempts != 0 {
		t.Errorf("attempts not reset: %d", queue.jobs[0].Attempts)
	}
}

func TestSweepScheduler_BadSchedule(t *testing.T) {
	s := NewSweepScheduler(nil, &fakeLedger{}, &fakeQueue{}, zerolog.Nop())
	if err := s.Start(context.Background(), "every now and then"); err == nil {
		t.Error("expected schedule parse error")
	}
}
