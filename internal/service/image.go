package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/config"
)

const imageField = "image"

// ImageStore persists recipe images and resolves their public URL.
type ImageStore interface {
	Save(ctx context.Context, data []byte, contentType, ext string) (key string, err error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// DecodeImage decodes a base64 data URI ("data:image/png;base64,...") or bare
// base64 string. The content must sniff as an image.
func DecodeImage(value string) (data []byte, contentType, ext string, err error) {
	payload := value
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ";base64,")
		if idx < 0 {
			return nil, "", "", NewFieldError(imageField, "Upload a valid image.")
		}
		payload = payload[idx+len(";base64,"):]
	}

	data, err = base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil || len(data) == 0 {
		return nil, "", "", NewFieldError(imageField, "Upload a valid image.")
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, "", "", NewFieldError(imageField, "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
	return data, mt.String(), mt.Extension(), nil
}

func newImageKey(ext string) string {
	return "recipes/images/" + uuid.New().String() + ext
}

// S3ImageStore keeps images in an S3 bucket.
type S3ImageStore struct {
	s3 *config.S3Config
}

func NewS3ImageStore(s3 *config.S3Config) *S3ImageStore {
	return &S3ImageStore{s3: s3}
}

func (s *S3ImageStore) Save(ctx context.Context, data []byte, contentType, ext string) (string, error) {
	key := newImageKey(ext)
	if err := s.s3.PutObject(ctx, key, data, contentType); err != nil {
		return "", err
	}
	return key, nil
}

func (s *S3ImageStore) Delete(ctx context.Context, key string) error {
	return s.s3.DeleteObject(ctx, key)
}

func (s *S3ImageStore) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.s3.ObjectURL(key)
}

// LocalImageStore writes images below dir and serves them from baseURL.
type LocalImageStore struct {
	dir     string
	baseURL string
}

func NewLocalImageStore(dir, baseURL string) *LocalImageStore {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalImageStore{dir: dir, baseURL: baseURL}
}

func (s *LocalImageStore) Save(_ context.Context, data []byte, _, ext string) (string, error) {
	key := newImageKey(ext)
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return key, nil
}

func (s *LocalImageStore) Delete(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

func (s *LocalImageStore) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.baseURL + key
}
