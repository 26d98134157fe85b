package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
)

// FirebaseStorage stores objects in the Firebase Storage bucket.
type FirebaseStorage struct {
	bucket *gcs.BucketHandle
	logger *zap.Logger
}

// NewFirebaseStorage creates a FirebaseStorage writing to bucket.
func NewFirebaseStorage(bucket *gcs.BucketHandle, logger *zap.Logger) *FirebaseStorage {
	return &FirebaseStorage{bucket: bucket, logger: logger.Named("firebase_storage")}
}

// Upload streams r to the object for key and returns its download URL.
func (s *FirebaseStorage) Upload(ctx context.Context, key, contentType string, r io.Reader, progress ProgressFunc) (string, error) {
	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if progress != nil {
		w.ProgressFunc = progress
	}

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		s.logger.Error("Failed to upload object", zap.String("key", key), zap.Error(err))
		return "", newStorageError(key, err)
	}
	if err := w.Close(); err != nil {
		s.logger.Error("Failed to finalize object upload", zap.String("key", key), zap.Error(err))
		return "", newStorageError(key, err)
	}

	s.logger.Info("Object uploaded", zap.String("key", key), zap.Int64("size", w.Attrs().Size))
	return downloadURL(s.bucket.BucketName(), key), nil
}

// Delete removes the object for key.
func (s *FirebaseStorage) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Object(key).Delete(ctx); err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil
		}
		s.logger.Error("Failed to delete object", zap.String("key", key), zap.Error(err))
		return newStorageError(key, err)
	}
	return nil
}

func downloadURL(bucket, key string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media", bucket, url.PathEscape(key))
}

func isUnauthorized(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden
	}
	return false
}
