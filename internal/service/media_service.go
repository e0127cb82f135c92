package service

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/stemsi/course-builder/internal/config"
	"github.com/stemsi/course-builder/internal/draft"
)

// Sentinel errors for media uploads.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
)

// MediaKind selects which set of file types an upload accepts.
type MediaKind string

const (
	MediaImage   MediaKind = "image"
	MediaContent MediaKind = "content"
)

// Allowed image MIME types for course cover images.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Allowed MIME types for file content items.
var allowedContentTypes = map[string]string{
	"application/pdf":    ".pdf",
	"application/zip":    ".zip",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   ".docx",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": ".pptx",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         ".xlsx",
	"text/plain": ".txt",
	"video/mp4":  ".mp4",
	"audio/mpeg": ".mp3",
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// MediaService stores uploads locally until the course is submitted.
type MediaService struct {
	cfg *config.Config
}

// NewMediaService creates a new MediaService.
func NewMediaService(cfg *config.Config) *MediaService {
	return &MediaService{cfg: cfg}
}

// SaveUpload saves an uploaded file under a UUID filename and returns a
// reference the draft can hold. The original filename is kept for the
// backend's multipart part.
func (s *MediaService) SaveUpload(kind MediaKind, file multipart.File, header *multipart.FileHeader) (*draft.FileRef, error) {
	allowed := allowedContentTypes
	if kind == MediaImage {
		allowed = allowedImageTypes
	}

	contentType := header.Header.Get("Content-Type")
	ext, ok := allowed[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s (allowed: %s)",
			ErrUnsupportedFileType, contentType, strings.Join(allowedTypes(allowed), ", "))
	}

	if header.Size > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, header.Size, s.cfg.MaxUploadBytes)
	}

	dir := filepath.Join(s.cfg.UploadDir, string(kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	destPath := filepath.Join(dir, uuid.New().String()+ext)
	dst, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		_ = os.Remove(destPath)
		return nil, fmt.Errorf("write file: %w", err)
	}

	return &draft.FileRef{
		Path:        destPath,
		Filename:    filepath.Base(header.Filename),
		ContentType: contentType,
	}, nil
}

// URL returns the public path of a stored upload.
func (s *MediaService) URL(ref *draft.FileRef) string {
	rel, err := filepath.Rel(s.cfg.UploadDir, ref.Path)
	if err != nil {
		return ""
	}
	return "/uploads/" + filepath.ToSlash(rel)
}

func allowedTypes(m map[string]string) []string {
	types := make([]string, 0, len(m))
	for t := range m {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
