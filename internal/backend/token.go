package backend

import (
	"context"
	"errors"
)

// ErrTokenMissing is returned before any request is sent when no auth token
// is available.
var ErrTokenMissing = errors.New("auth token missing")

// TokenStore supplies the bearer token and user id for Backend API calls.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	UserID(ctx context.Context) (int, error)
}

// StaticTokenStore serves a fixed service token. Used by the CLI and workers.
type StaticTokenStore struct {
	Value string
	User  int
}

func (s StaticTokenStore) Token(context.Context) (string, error) {
	if s.Value == "" {
		return "", ErrTokenMissing
	}
	return s.Value, nil
}

func (s StaticTokenStore) UserID(context.Context) (int, error) {
	return s.User, nil
}

type credentialsKey struct{}

type credentials struct {
	token  string
	userID int
}

// WithCredentials returns a context carrying the caller's bearer token and
// user id. The JWT middleware stores them per request.
func WithCredentials(ctx context.Context, token string, userID int) context.Context {
	return context.WithValue(ctx, credentialsKey{}, credentials{token: token, userID: userID})
}

// ContextTokenStore reads credentials placed by WithCredentials.
type ContextTokenStore struct{}

func (ContextTokenStore) Token(ctx context.Context) (string, error) {
	c, ok := ctx.Value(credentialsKey{}).(credentials)
	if !ok || c.token == "" {
		return "", ErrTokenMissing
	}
	return c.token, nil
}

func (ContextTokenStore) UserID(ctx context.Context) (int, error) {
	c, ok := ctx.Value(credentialsKey{}).(credentials)
	if !ok {
		return 0, ErrTokenMissing
	}
	return c.userID, nil
}

type idempotencyKey struct{}

// WithIdempotencyKey tags every request made with ctx with an Idempotency-Key header.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKey{}, key)
}

func idempotencyFrom(ctx context.Context) string {
	k, _ := ctx.Value(idempotencyKey{}).(string)
	return k
}
