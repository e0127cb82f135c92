package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// APIError is a non-2xx response from the Backend API.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("failed to %s: %s (status %d)", e.Op, e.Message, e.Status)
}

// IsNotFound reports whether the backend answered 404.
func (e *APIError) IsNotFound() bool {
	return e.Status == http.StatusNotFound
}

const maxMessageBytes = 512

// errorMessage pulls a human readable message out of an error body.
func errorMessage(status int, body []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Title   string `json:"title"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		for _, m := range []string{parsed.Message, parsed.Title, parsed.Error} {
			if m != "" {
				return m
			}
		}
	}
	if raw := strings.TrimSpace(string(body)); raw != "" {
		return truncate(raw, maxMessageBytes)
	}
	return http.StatusText(status)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
