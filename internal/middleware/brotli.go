package middleware

import (
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

const (
	brotliQuality   = 5
	brotliMinLength = 1024
)

// brotliWriter buffers the start of a body until it knows whether
// compressing is worth it, then commits to one encoding for the rest.
type brotliWriter struct {
	gin.ResponseWriter
	enc     *brotli.Writer
	pending []byte
	decided bool
}

func (w *brotliWriter) Write(p []byte) (int, error) {
	if w.decided {
		if w.enc != nil {
			return w.enc.Write(p)
		}
		return w.ResponseWriter.Write(p)
	}

	w.pending = append(w.pending, p...)
	if len(w.pending) < brotliMinLength {
		return len(p), nil
	}
	if err := w.decide(); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *brotliWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *brotliWriter) decide() error {
	w.decided = true
	if len(w.pending) >= brotliMinLength && compressible(w.Header().Get("Content-Type")) {
		h := w.Header()
		h.Set("Content-Encoding", "br")
		h.Del("Content-Length")
		w.enc = brotli.NewWriterLevel(w.ResponseWriter, brotliQuality)
	}

	buf := w.pending
	w.pending = nil
	if len(buf) == 0 {
		return nil
	}
	var err error
	if w.enc != nil {
		_, err = w.enc.Write(buf)
	} else {
		_, err = w.ResponseWriter.Write(buf)
	}
	return err
}

// Flush commits to an encoding early so streamed bodies are not held back.
func (w *brotliWriter) Flush() {
	if !w.decided {
		_ = w.decide()
	}
	if w.enc != nil {
		_ = w.enc.Flush()
	}
	w.ResponseWriter.Flush()
}

func (w *brotliWriter) finish() error {
	if !w.decided {
		if err := w.decide(); err != nil {
			return err
		}
	}
	if w.enc != nil {
		return w.enc.Close()
	}
	return nil
}

// Brotli compresses JSON and text responses of at least 1 KiB for clients
// that accept br. WebSocket upgrades and stored uploads pass through.
func Brotli() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !acceptsBrotli(c.Request) || isUpgrade(c.Request) ||
			strings.HasPrefix(c.Request.URL.Path, "/uploads/") {
			c.Next()
			return
		}

		w := &brotliWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Header("Vary", "Accept-Encoding")
		defer func() {
			if err := w.finish(); err != nil {
				_ = c.Error(err)
			}
		}()
		c.Next()
	}
}

func compressible(contentType string) bool {
	return strings.HasPrefix(contentType, "application/json") || strings.HasPrefix(contentType, "text/")
}

func isUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

func acceptsBrotli(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		if strings.EqualFold(strings.TrimSpace(enc), "br") {
			return true
		}
	}
	return false
}
