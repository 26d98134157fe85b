// Package filestorage stores uploaded images and avatars under caller-chosen
// keys and returns the public URL of each stored object.
package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"fishtopia_backend/internal/common"
	"fishtopia_backend/internal/config"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// Terminal upload error codes.
const (
	CodeUnauthorized = "unauthorized"
	CodeCanceled     = "canceled"
	CodeUnknown      = "unknown"
)

// ProgressFunc receives the number of bytes written so far.
type ProgressFunc func(written int64)

// Storage is an object store addressed by key.
type Storage interface {
	// Upload stores the content of r under key and returns its public URL.
	Upload(ctx context.Context, key, contentType string, r io.Reader, progress ProgressFunc) (string, error)
	// Delete removes the object stored under key. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
}

// StorageError is returned by Upload and Delete.
type StorageError struct {
	Code string
	Key  string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s (%s): %v", e.Code, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ErrorCode returns the storage code carried by err, or CodeUnknown.
func ErrorCode(err error) string {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeUnknown
}

// ToAPIError maps a storage failure to the response returned to the client.
func ToAPIError(err error) *common.APIError {
	code := ErrorCode(err)
	details := map[string]string{"storage": code}
	switch code {
	case CodeUnauthorized:
		return common.ErrForbidden.WithDetails(details)
	case CodeCanceled:
		return common.ErrBadRequest.WithDetails(details)
	default:
		return common.ErrInternalServer.WithDetails(details)
	}
}

func newStorageError(key string, err error) *StorageError {
	code := CodeUnknown
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = CodeCanceled
	case isUnauthorized(err):
		code = CodeUnauthorized
	}
	return &StorageError{Code: code, Key: key, Err: err}
}

// BucketProvider opens the Cloud Storage bucket backing Firebase Storage.
type BucketProvider interface {
	Bucket(ctx context.Context) (*gcs.BucketHandle, error)
}

// New returns the backend selected by STORAGE_BACKEND.
func New(cfg *config.Config, buckets BucketProvider, logger *zap.Logger) (Storage, error) {
	switch cfg.StorageBackend {
	case "firebase":
		if buckets == nil {
			return nil, fmt.Errorf("firebase storage backend selected without a bucket provider")
		}
		bucket, err := buckets.Bucket(context.Background())
		if err != nil {
			return nil, err
		}
		return NewFirebaseStorage(bucket, logger), nil
	default:
		return NewLocalStorage(cfg.ImageStoragePath, cfg.ImagePublicBaseURL, logger)
	}
}

// ImageKey returns the key of a listing image: images/{userId}-{filename}-{uuid}.
func ImageKey(userID, filename string) string {
	base := filepath.Base(filename)
	ext := strings.ToLower(filepath.Ext(base))
	name := slug.Make(strings.TrimSuffix(base, filepath.Ext(base)))
	if name == "" {
		name = "image"
	}
	return fmt.Sprintf("images/%s-%s%s-%s", userID, name, ext, uuid.NewString())
}

// AvatarKey returns the key of a user's avatar. Uploading a new avatar overwrites the old one.
func AvatarKey(userID string) string {
	return "avatars/" + userID
}

// UploadFileHeader stores a multipart upload under key.
func UploadFileHeader(ctx context.Context, s Storage, key string, fileHeader *multipart.FileHeader, progress ProgressFunc) (string, error) {
	if fileHeader == nil {
		return "", fmt.Errorf("fileHeader cannot be nil")
	}
	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return s.Upload(ctx, key, contentType, src, progress)
}

type progressReader struct {
	r        io.Reader
	written  int64
	progress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.written += int64(n)
		p.progress(p.written)
	}
	return n, err
}

func withProgress(r io.Reader, progress ProgressFunc) io.Reader {
	if progress == nil {
		return r
	}
	return &progressReader{r: r, progress: progress}
}
