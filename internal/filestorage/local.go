package filestorage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LocalStorage keeps objects on the local disk and serves them from publicBaseURL.
type LocalStorage struct {
	storagePath   string
	publicBaseURL string
	logger        *zap.Logger
}

// NewLocalStorage creates a LocalStorage rooted at storagePath.
func NewLocalStorage(storagePath, publicBaseURL string, logger *zap.Logger) (*LocalStorage, error) {
	if storagePath == "" {
		return nil, fmt.Errorf("storage path cannot be empty")
	}
	// Ensure the base storage path exists
	if err := os.MkdirAll(storagePath, os.ModePerm); err != nil {
		logger.Error("Failed to create storage path directory", zap.String("path", storagePath), zap.Error(err))
		return nil, fmt.Errorf("failed to create storage path %s: %w", storagePath, err)
	}
	logger.Info("Local file storage initialized", zap.String("storagePath", storagePath))
	return &LocalStorage{
		storagePath:   storagePath,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger.Named("local_storage"),
	}, nil
}

// Path returns the root directory, for serving the files over HTTP.
func (s *LocalStorage) Path() string {
	return s.storagePath
}

func (s *LocalStorage) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		s.logger.Warn("Rejected storage key", zap.String("key", key))
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.storagePath, clean), nil
}

// Upload writes r to the file for key. An existing file is replaced.
func (s *LocalStorage) Upload(ctx context.Context, key, contentType string, r io.Reader, progress ProgressFunc) (string, error) {
	destinationPath, err := s.resolve(key)
	if err != nil {
		return "", &StorageError{Code: CodeUnknown, Key: key, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return "", newStorageError(key, err)
	}

	if err := os.MkdirAll(filepath.Dir(destinationPath), os.ModePerm); err != nil {
		s.logger.Error("Failed to create directory for file storage", zap.String("path", destinationPath), zap.Error(err))
		return "", newStorageError(key, err)
	}

	dst, err := os.Create(destinationPath)
	if err != nil {
		s.logger.Error("Failed to create destination file", zap.String("path", destinationPath), zap.Error(err))
		return "", newStorageError(key, err)
	}

	_, copyErr := io.Copy(dst, withProgress(&contextReader{ctx: ctx, r: r}, progress))
	closeErr := dst.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		s.logger.Error("Failed to write uploaded file", zap.String("path", destinationPath), zap.Error(copyErr))
		// Remove the partially written file
		_ = os.Remove(destinationPath)
		return "", newStorageError(key, copyErr)
	}

	s.logger.Info("File saved successfully", zap.String("key", key), zap.String("contentType", contentType))
	return s.publicBaseURL + "/" + strings.TrimLeft(filepath.ToSlash(key), "/"), nil
}

// Delete removes the file for key.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return &StorageError{Code: CodeUnknown, Key: key, Err: err}
	}
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("Attempt to delete non-existent file", zap.String("path", fullPath))
			return nil
		}
		s.logger.Error("Failed to delete file", zap.String("path", fullPath), zap.Error(err))
		return newStorageError(key, err)
	}
	s.logger.Info("File deleted successfully", zap.String("key", key))
	return nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
