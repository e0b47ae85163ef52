package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Asset identifies one hosted image: the public URL served to clients and
// the opaque key used to delete or replace the remote object. The two
// always describe the same asset version and travel together.
type Asset struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URLFor(key string) string
	Bucket() string
}

// Store wraps an ObjectStorage backend with the upload/destroy contract
// the campground lifecycle depends on.
type Store struct {
	backend ObjectStorage
}

// NewStore constructs a Store wrapper for the provided backend.
func NewStore(backend ObjectStorage) *Store {
	return &Store{backend: backend}
}

// EnsureBucket ensures the configured bucket exists.
func (s *Store) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Upload stores the image and returns the asset addressing it. The object
// key is generated server-side; the original filename only contributes
// its extension.
func (s *Store) Upload(ctx context.Context, filename string, r io.Reader, size int64) (Asset, error) {
	key := objectKey(filename)
	if err := s.backend.Put(ctx, key, r, size, contentTypeFor(filename)); err != nil {
		return Asset{}, fmt.Errorf("upload image: %w", err)
	}
	return Asset{
		URL:      s.backend.URLFor(key),
		PublicID: key,
	}, nil
}

// Destroy removes the remote asset addressed by the given public id.
func (s *Store) Destroy(ctx context.Context, publicID string) error {
	if err := s.backend.Delete(ctx, publicID); err != nil {
		return fmt.Errorf("destroy image: %w", err)
	}
	return nil
}

// Bucket returns the configured bucket name.
func (s *Store) Bucket() string {
	return s.backend.Bucket()
}

func objectKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	now := time.Now()
	return fmt.Sprintf("campgrounds/%d/%02d/%s%s", now.Year(), now.Month(), uuid.New().String(), ext)
}

func contentTypeFor(filename string) string {
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return contentType
}
