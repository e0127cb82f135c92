package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/course-builder/internal/backend"
	"github.com/stemsi/course-builder/internal/draft"
	"github.com/stemsi/course-builder/internal/middleware"
	"github.com/stemsi/course-builder/internal/model"
	"github.com/stemsi/course-builder/internal/payload"
	"github.com/stemsi/course-builder/internal/quiz"
	"github.com/stemsi/course-builder/internal/response"
	"github.com/stemsi/course-builder/internal/service"
	"github.com/stemsi/course-builder/internal/validator"
	ws "github.com/stemsi/course-builder/internal/websocket"
)

const testSecret = "handler-test-secret"

var setupOnce sync.Once

// ─── Fakes ──────────────────────────────────────────────────────────

type memStore struct {
	mu     sync.Mutex
	drafts map[int]*draft.Draft
}

func (m *memStore) Get(_ context.Context, userID int) (*draft.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.drafts[userID]; ok {
		cp := *d
		return &cp, nil
	}
	return draft.New(), nil
}

func (m *memStore) Update(ctx context.Context, userID int, fn func(*draft.Draft) error) (*draft.Draft, error) {
	d, _ := m.Get(ctx, userID)
	if err := fn(d); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.drafts[userID] = d
	m.mu.Unlock()
	return d, nil
}

func (m *memStore) Delete(_ context.Context, userID int) error {
	m.mu.Lock()
	delete(m.drafts, userID)
	m.mu.Unlock()
	return nil
}

// fakeAPI records the bearer token each call was made with.
type fakeAPI struct {
	tokens []string
}

func (f *fakeAPI) CreateCourse(ctx context.Context, _ *payload.Form) (backend.Entity, error) {
	tok, err := backend.ContextTokenStore{}.Token(ctx)
	if err != nil {
		return backend.Entity{}, err
	}
	f.tokens = append(f.tokens, tok)
	return backend.Entity{ID: 77}, nil
}

func (f *fakeAPI) AddQuiz(context.Context, *payload.Form) (backend.Entity, error) {
	return backend.Entity{}, &backend.APIError{Op: "add quiz", Status: 400, Message: "ContentId does not exist"}
}

func (f *fakeAPI) AddQuestions(context.Context, []quiz.Question) ([]backend.Entity, error) {
	return nil, nil
}

func (f *fakeAPI) AddOptions(context.Context, []quiz.Option) ([]backend.Entity, error) {
	return nil, nil
}

func (f *fakeAPI) DeleteQuiz(context.Context, int64) error     { return nil }
func (f *fakeAPI) DeleteQuestion(context.Context, int64) error { return nil }

type memSubmissions struct {
	subs map[uuid.UUID]*model.Submission
}

func (m *memSubmissions) GetByID(_ context.Context, id uuid.UUID) (*model.Submission, error) {
	if s, ok := m.subs[id]; ok {
		return s, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memSubmissions) ListByUser(_ context.Context, userID, page, perPage int) ([]model.Submission, int64, error) {
	out := []model.Submission{}
	for _, s := range m.subs {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, int64(len(out)), nil
}

type chanSource struct {
	events chan model.ProgressEvent
}

func (s chanSource) Subscribe(context.Context, uuid.UUID) (<-chan model.ProgressEvent, func(), error) {
	return s.events, func() {}, nil
}

// ─── Harness ────────────────────────────────────────────────────────

type harness struct {
	router *gin.Engine
	auth   *service.AuthService
	store  *memStore
	api    *fakeAPI
	subs   *memSubmissions
	events chan model.ProgressEvent
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	setupOnce.Do(validator.Setup)

	h := &harness{
		auth:   service.NewAuthService(testSecret),
		store:  &memStore{drafts: map[int]*draft.Draft{}},
		api:    &fakeAPI{},
		subs:   &memSubmissions{subs: map[uuid.UUID]*model.Submission{}},
		events: make(chan model.ProgressEvent, 4),
	}

	log := zerolog.Nop()
	submissions := service.NewSubmissionService(h.api, nil, nil, nil, log)
	drafts := NewDraftHandler(service.NewDraftService(h.store, submissions, log), nil, log)
	quizzes := NewQuizHandler(submissions)
	subs := NewSubmissionHandler(h.subs)
	stream := NewWSHandler(h.subs, chanSource{events: h.events}, log, nil)

	r := gin.New()
	r.Use(response.RequestIDMiddleware(log))

	r.GET("/ws/v1/submissions/:id/stream", middleware.RequireAdminWSAuth(h.auth), stream.SubmissionStream)

	admin := r.Group("/api/v1/admin", middleware.RequireAdminJWT(h.auth))
	write := admin.Group("/draft", middleware.RequirePermission(model.PermissionCoursesWrite))
	write.GET("", drafts.Get)
	write.PUT("/basic-info", drafts.UpdateBasicInfo)
	write.PUT("/target-page", drafts.Navigate)
	write.POST("/sections", drafts.AddSection)
	write.POST("/sections/:section_id/contents", drafts.AddContent)
	write.PUT("/editing", drafts.CommitEdit)
	write.POST("/modals/:kind", drafts.OpenModal)
	write.POST("/submit", drafts.Submit)
	admin.POST("/quizzes", quizzes.Submit)
	admin.GET("/submissions", subs.List)
	admin.GET("/submissions/:id", subs.Get)

	h.router = r
	return h
}

func (h *harness) token(t *testing.T, userID int, perms ...string) string {
	t.Helper()
	if len(perms) == 0 {
		perms = []string{string(model.PermissionAll)}
	}
	tok, err := h.auth.GenerateAdminToken(userID, perms, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

type envelope struct {
	Data  json.RawMessage     `json:"data"`
	Error *response.ErrorBody `json:"error"`
}

func (h *harness) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, env
}

func errCode(env envelope) response.ErrCode {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

func fillBasicInfo(t *testing.T, h *harness, tok string) {
	t.Helper()
	code, env := h.do(t, http.MethodPut, "/api/v1/admin/draft/basic-info", tok, map[string]any{
		"name":        "Go Fundamentals",
		"description": "From zero to goroutines",
		"categoryId":  3,
	})
	if code != http.StatusOK {
		t.Fatalf("basic info: %d %+v", code, env.Error)
	}
}

// ─── Tests ──────────────────────────────────────────────────────────

func TestAuth(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name  string
		token string
		want  int
		code  response.ErrCode
	}{
		{"missing token", "", http.StatusUnauthorized, response.ErrTokenRequired},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized, response.ErrTokenInvalid},
		{"missing permission", h.token(t, 1, string(model.PermissionSubmissionsRead)), http.StatusForbidden, response.ErrPermissionDenied},
		{"allowed", h.token(t, 1, string(model.PermissionCoursesWrite)), http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := h.do(t, http.MethodGet, "/api/v1/admin/draft", tt.token, nil)
			if code != tt.want || errCode(env) != tt.code {
				t.Errorf("got %d %q, want %d %q", code, errCode(env), tt.want, tt.code)
			}
		})
	}
}

func TestNavigate(t *testing.T) {
	h := newHarness(t)
	tok := h.token(t, 1)

	code, env := h.do(t, http.MethodPut, "/api/v1/admin/draft/target-page", tok, map[string]string{"step": "courseContent"})
	if code != http.StatusConflict || errCode(env) != response.ErrStepLocked {
		t.Fatalf("locked step: %d %q", code, errCode(env))
	}

	code, env = h.do(t, http.MethodPut, "/api/v1/admin/draft/target-page", tok, map[string]string{"step": "finish"})
	if code != http.StatusBadRequest || errCode(env) != response.ErrValidation {
		t.Fatalf("unknown step: %d %q", code, errCode(env))
	}

	fillBasicInfo(t, h, tok)
	code, env = h.do(t, http.MethodPut, "/api/v1/admin/draft/target-page", tok, map[string]string{"step": "courseContent"})
	if code != http.StatusOK {
		t.Fatalf("unlocked step: %d %+v", code, env.Error)
	}

	var data struct {
		Draft      draft.Draft         `json:"draft"`
		Navigation map[draft.Step]bool `json:"navigation"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Draft.TargetPage != draft.StepCourseContent || !data.Navigation[draft.StepCourseContent] {
		t.Errorf("draft = %s, navigation = %v", data.Draft.TargetPage, data.Navigation)
	}
}

func TestContentRoutes(t *testing.T) {
	h := newHarness(t)
	tok := h.token(t, 2)

	code, env := h.do(t, http.MethodPost, "/api/v1/admin/draft/sections/nope/contents", tok,
		map[string]string{"type": "url", "contentString": "https://go.dev"})
	if code != http.StatusNotFound || errCode(env) != response.ErrSectionNotFound {
		t.Fatalf("unknown section: %d %q", code, errCode(env))
	}

	if code, _ := h.do(t, http.MethodPost, "/api/v1/admin/draft/sections", tok, nil); code != http.StatusOK {
		t.Fatalf("add section: %d", code)
	}
	sectionID := h.store.drafts[2].Sections[0].ID

	code, env = h.do(t, http.MethodPost, "/api/v1/admin/draft/sections/"+sectionID+"/contents", tok,
		map[string]string{"type": "video"})
	if code != http.StatusBadRequest || errCode(env) != response.ErrValidation {
		t.Fatalf("bad kind: %d %q", code, errCode(env))
	}

	code, env = h.do(t, http.MethodPost, "/api/v1/admin/draft/sections/"+sectionID+"/contents", tok,
		map[string]string{"type": "file"})
	if code != http.StatusBadRequest {
		t.Fatalf("json file content: %d %q", code, errCode(env))
	}

	code, _ = h.do(t, http.MethodPost, "/api/v1/admin/draft/sections/"+sectionID+"/contents", tok,
		map[string]string{"type": "url", "contentString": "https://go.dev"})
	if code != http.StatusOK {
		t.Fatalf("add content: %d", code)
	}
	if got := h.store.drafts[2].Sections[0].Contents; len(got) != 1 || got[0].Body.Kind() != draft.KindURL {
		t.Errorf("contents = %+v", got)
	}

	code, env = h.do(t, http.MethodPut, "/api/v1/admin/draft/editing", tok,
		map[string]string{"type": "url", "contentString": "https://pkg.go.dev"})
	if code != http.StatusConflict || errCode(env) != response.ErrConflict {
		t.Errorf("commit without edit: %d %q", code, errCode(env))
	}

	code, env = h.do(t, http.MethodPost, "/api/v1/admin/draft/modals/slides", tok, nil)
	if code != http.StatusBadRequest {
		t.Errorf("unknown modal: %d %q", code, errCode(env))
	}
}

func TestSubmit(t *testing.T) {
	h := newHarness(t)
	tok := h.token(t, 3)

	code, env := h.do(t, http.MethodPost, "/api/v1/admin/draft/submit", tok, nil)
	if code != http.StatusUnprocessableEntity || errCode(env) != response.ErrCourseInvalid || len(env.Error.Details) == 0 {
		t.Fatalf("invalid draft: %d %+v", code, env.Error)
	}
	if len(h.api.tokens) != 0 {
		t.Fatal("backend called for an invalid draft")
	}

	fillBasicInfo(t, h, tok)
	h.do(t, http.MethodPost, "/api/v1/admin/draft/sections", tok, nil)

	code, env = h.do(t, http.MethodPost, "/api/v1/admin/draft/submit", tok, nil)
	if code != http.StatusCreated {
		t.Fatalf("submit: %d %+v", code, env.Error)
	}

	var res service.CourseResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatal(err)
	}
	if res.Course.ID != 77 {
		t.Errorf("course id = %d", res.Course.ID)
	}
	if len(h.api.tokens) != 1 || h.api.tokens[0] != tok {
		t.Errorf("backend saw tokens %v, want the admin's token", h.api.tokens)
	}
	if _, ok := h.store.drafts[3]; ok {
		t.Error("draft kept after submission")
	}
}

func TestQuizSubmit_BackendRejected(t *testing.T) {
	h := newHarness(t)
	tok := h.token(t, 4)

	form := quiz.Form{
		ContentID: 9,
		Duration:  "5:00",
		Questions: []quiz.FormQuestion{{
			Type:         quiz.KindChoice,
			Text:         "2 + 2?",
			QuestionRate: 1,
			Content:      quiz.FormContent{Answers: []string{"3", "4"}, CorrectAnswers: []string{"4"}},
		}},
	}
	code, env := h.do(t, http.MethodPost, "/api/v1/admin/quizzes", tok, form)
	if code != http.StatusBadGateway || errCode(env) != response.ErrBackendRejected {
		t.Fatalf("got %d %+v", code, env.Error)
	}
	if len(env.Error.Details) != 1 || !strings.Contains(env.Error.Details[0], "ContentId") {
		t.Errorf("details = %v", env.Error.Details)
	}
}

func TestSubmissionOwnership(t *testing.T) {
	h := newHarness(t)
	id := uuid.New()
	h.subs.subs[id] = &model.Submission{ID: id, UserID: 5, Kind: model.SubmissionKindCourse, Status: model.SubmissionStatusSucceeded}

	code, _ := h.do(t, http.MethodGet, "/api/v1/admin/submissions/"+id.String(), h.token(t, 5), nil)
	if code != http.StatusOK {
		t.Errorf("owner: %d", code)
	}

	code, env := h.do(t, http.MethodGet, "/api/v1/admin/submissions/"+id.String(), h.token(t, 6), nil)
	if code != http.StatusNotFound || errCode(env) != response.ErrNotFound {
		t.Errorf("other admin: %d %q", code, errCode(env))
	}

	code, env = h.do(t, http.MethodGet, "/api/v1/admin/submissions/not-a-uuid", h.token(t, 5), nil)
	if code != http.StatusBadRequest || errCode(env) != response.ErrInvalidID {
		t.Errorf("bad id: %d %q", code, errCode(env))
	}

	code, env = h.do(t, http.MethodGet, "/api/v1/admin/submissions?page=0", h.token(t, 5), nil)
	if code != http.StatusOK {
		t.Errorf("list: %d %+v", code, env.Error)
	}
}

func TestSubmissionStream(t *testing.T) {
	h := newHarness(t)
	id := uuid.New()
	h.subs.subs[id] = &model.Submission{ID: id, UserID: 7, Kind: model.SubmissionKindQuiz, Status: model.SubmissionStatusPending}

	srv := httptest.NewServer(h.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/submissions/" + id.String() + "/stream?token=" + h.token(t, 7)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var snap ws.SnapshotResponse
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Event != ws.EventSnapshot || snap.Submission.ID != id {
		t.Fatalf("snapshot = %+v", snap)
	}

	h.events <- model.ProgressEvent{SubmissionID: id, Step: model.StepQuiz, State: model.StateSucceeded, EntityIDs: []int64{1}}
	h.events <- model.ProgressEvent{SubmissionID: id, Step: model.StepDone, State: model.StateSucceeded, Status: model.SubmissionStatusSucceeded}

	var progress ws.ProgressResponse
	if err := conn.ReadJSON(&progress); err != nil {
		t.Fatal(err)
	}
	if progress.Progress.Step != model.StepQuiz || len(progress.Progress.EntityIDs) != 1 {
		t.Errorf("progress = %+v", progress)
	}

	// The done step is relayed, then the stream closes with the final status.
	if err := conn.ReadJSON(&progress); err != nil || progress.Progress.Step != model.StepDone {
		t.Fatalf("done progress = %+v, %v", progress, err)
	}
	var done ws.DoneResponse
	if err := conn.ReadJSON(&done); err != nil {
		t.Fatal(err)
	}
	if done.Event != ws.EventDone || done.Status != model.SubmissionStatusSucceeded {
		t.Errorf("done = %+v", done)
	}
}

func TestSubmissionStream_OtherAdmin(t *testing.T) {
	h := newHarness(t)
	id := uuid.New()
	h.subs.subs[id] = &model.Submission{ID: id, UserID: 7, Status: model.SubmissionStatusPending}

	srv := httptest.NewServer(h.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/submissions/" + id.String() + "/stream?token=" + h.token(t, 8)
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("resp = %+v", resp)
	}
}
