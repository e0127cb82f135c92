// Package backend is the HTTP client for the course Backend API.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/stemsi/course-builder/internal/payload"
	"github.com/stemsi/course-builder/internal/quiz"
)

// ErrMissingID is returned when a create call succeeds without an entity id.
var ErrMissingID = errors.New("response has no id")

// Entity is the id of something the backend created. CorrelationID is set
// when the backend echoes the client's correlation id.
type Entity struct {
	ID            int64  `json:"id"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Client calls the Backend API. Every call resolves the bearer token first
// and fails with ErrTokenMissing without touching the network when there is none.
type Client struct {
	rc     *resty.Client
	tokens TokenStore
	log    zerolog.Logger
}

// NewClient creates a Backend API client.
func NewClient(baseURL string, timeout time.Duration, tokens TokenStore, log zerolog.Logger) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		rc:     rc,
		tokens: tokens,
		log:    log.With().Str("component", "backend_client").Logger(),
	}
}

// WithTokens returns a copy of the client using another token store.
func (c *Client) WithTokens(tokens TokenStore) *Client {
	cp := *c
	cp.tokens = tokens
	return &cp
}

func (c *Client) request(ctx context.Context, op string) (*resty.Request, error) {
	token, err := c.tokens.Token(ctx)
	if err == nil && token == "" {
		err = ErrTokenMissing
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}

	r := c.rc.R().SetContext(ctx).SetAuthToken(token)
	if key := idempotencyFrom(ctx); key != "" {
		r.SetHeader("Idempotency-Key", key)
	}
	return r, nil
}

func (c *Client) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		c.log.Error().Err(err).Str("op", op).Msg("Backend request failed")
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	c.log.Debug().
		Str("op", op).
		Int("status", resp.StatusCode()).
		Dur("took", resp.Time()).
		Msg("Backend call")

	if !resp.IsSuccess() {
		apiErr := &APIError{Op: op, Status: resp.StatusCode(), Message: errorMessage(resp.StatusCode(), resp.Body())}
		c.log.Warn().Str("op", op).Int("status", apiErr.Status).Str("message", apiErr.Message).Msg("Backend rejected request")
		return apiErr
	}
	return nil
}

func (c *Client) postForm(ctx context.Context, op, path string, form *payload.Form) (*resty.Response, error) {
	r, err := c.request(ctx, op)
	if err != nil {
		return nil, err
	}

	body, contentType, err := form.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}

	resp, err := r.SetHeader("Content-Type", contentType).SetBody(body.Bytes()).Post(path)
	if err := c.check(op, resp, err); err != nil {
		return nil, err
	}
	return resp, nil
}

// CreateCourse posts a complete course form.
func (c *Client) CreateCourse(ctx context.Context, form *payload.Form) (Entity, error) {
	const op = "create course"
	resp, err := c.postForm(ctx, op, "/Course", form)
	if err != nil {
		return Entity{}, err
	}
	e, _ := decodeEntity(resp.Body())
	return e, nil
}

// AddQuiz creates the quiz row of a quiz content item.
func (c *Client) AddQuiz(ctx context.Context, form *payload.Form) (Entity, error) {
	const op = "add quiz"
	resp, err := c.postForm(ctx, op, "/Course/AddQuiz", form)
	if err != nil {
		return Entity{}, err
	}

	e, ok := decodeEntity(resp.Body())
	if !ok {
		return Entity{}, fmt.Errorf("failed to %s: %w", op, ErrMissingID)
	}
	return e, nil
}

// AddQuestions creates question rows and returns their ids.
func (c *Client) AddQuestions(ctx context.Context, questions []quiz.Question) ([]Entity, error) {
	const op = "add questions"
	r, err := c.request(ctx, op)
	if err != nil {
		return nil, err
	}

	resp, err := r.SetBody(map[string]any{"questions": questions}).Post("/Course/AddQuestion")
	if err := c.check(op, resp, err); err != nil {
		return nil, err
	}

	out, err := decodeEntities(resp.Body(), "questions")
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return out, nil
}

// AddOptions creates option rows.
func (c *Client) AddOptions(ctx context.Context, options []quiz.Option) ([]Entity, error) {
	const op = "add options"
	r, err := c.request(ctx, op)
	if err != nil {
		return nil, err
	}

	resp, err := r.SetBody(map[string]any{"options": options}).Post("/Course/AddOption")
	if err := c.check(op, resp, err); err != nil {
		return nil, err
	}

	// Option ids are best effort; no caller depends on them.
	out, err := decodeEntities(resp.Body(), "options")
	if err != nil {
		c.log.Debug().Err(err).Str("op", op).Msg("Option ids not decoded")
		return nil, nil
	}
	return out, nil
}

// DeleteQuiz removes a quiz. A quiz that is already gone counts as deleted.
func (c *Client) DeleteQuiz(ctx context.Context, id int64) error {
	return c.delete(ctx, "delete quiz", "/Course/DeleteQuiz/", id)
}

// DeleteQuestion removes a question. A question that is already gone counts as deleted.
func (c *Client) DeleteQuestion(ctx context.Context, id int64) error {
	return c.delete(ctx, "delete question", "/Course/DeleteQuestion/", id)
}

func (c *Client) delete(ctx context.Context, op, prefix string, id int64) error {
	r, err := c.request(ctx, op)
	if err != nil {
		return err
	}

	resp, err := r.Delete(prefix + strconv.FormatInt(id, 10))
	err = c.check(op, resp, err)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.IsNotFound() {
		return nil
	}
	return err
}

// decodeEntity accepts {"id":N} or {"data":{"id":N}}.
func decodeEntity(body []byte) (Entity, bool) {
	var direct Entity
	if json.Unmarshal(body, &direct) == nil && direct.ID != 0 {
		return direct, true
	}

	var wrapped struct {
		Data Entity `json:"data"`
	}
	if json.Unmarshal(body, &wrapped) == nil && wrapped.Data.ID != 0 {
		return wrapped.Data, true
	}
	return Entity{}, false
}

// decodeEntities accepts a bare array or an object holding the array under
// key or "data".
func decodeEntities(body []byte, key string) ([]Entity, error) {
	var list []Entity
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	for _, k := range []string{key, "data"} {
		raw, ok := obj[k]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &list); err == nil {
			return list, nil
		}
	}
	return nil, fmt.Errorf("decode response: no %s array", key)
}
