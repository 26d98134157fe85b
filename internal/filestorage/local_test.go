package filestorage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupLocalStorage(t *testing.T) (*LocalStorage, string) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocalStorage(dir, "http://localhost:8080/uploads/", zap.NewNop())
	require.NoError(t, err, "Failed to create LocalStorage")
	return store, dir
}

// newTestFileHeader builds a multipart.FileHeader the way gin would parse it from a request.
func newTestFileHeader(t *testing.T, fieldname, filename, content, contentType string) *multipart.FileHeader {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fieldname, filename))
	if contentType != "" {
		partHeader.Set("Content-Type", contentType)
	}

	part, err := writer.CreatePart(partHeader)
	require.NoError(t, err)
	_, err = io.Copy(part, strings.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)

	files := form.File[fieldname]
	require.NotEmpty(t, files, "No files found for fieldname %s", fieldname)
	return files[0]
}

func TestLocalStorage_UploadFileHeader_Success(t *testing.T) {
	store, dir := setupLocalStorage(t)

	fh := newTestFileHeader(t, "images", "trout.jpg", "This is a test image file.", "image/jpeg")
	key := ImageKey("u1", fh.Filename)

	var lastProgress int64
	url, err := UploadFileHeader(context.Background(), store, key, fh, func(written int64) { lastProgress = written })

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/"+key, url)
	assert.Equal(t, int64(len("This is a test image file.")), lastProgress)

	content, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, "This is a test image file.", string(content))
}

func TestLocalStorage_Upload_OverwritesAvatar(t *testing.T) {
	store, dir := setupLocalStorage(t)
	ctx := context.Background()

	_, err := store.Upload(ctx, AvatarKey("u1"), "image/png", strings.NewReader("old"), nil)
	require.NoError(t, err)
	_, err = store.Upload(ctx, AvatarKey("u1"), "image/png", strings.NewReader("new"), nil)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "avatars", "u1"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
}

func TestLocalStorage_Upload_Canceled(t *testing.T) {
	store, _ := setupLocalStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Upload(ctx, "images/x", "image/png", strings.NewReader("data"), nil)

	require.Error(t, err)
	assert.Equal(t, CodeCanceled, ErrorCode(err))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLocalStorage_Upload_RejectsTraversal(t *testing.T) {
	store, _ := setupLocalStorage(t)

	_, err := store.Upload(context.Background(), "../escape.txt", "text/plain", strings.NewReader("x"), nil)

	require.Error(t, err)
	assert.Equal(t, CodeUnknown, ErrorCode(err))
}

func TestLocalStorage_Delete(t *testing.T) {
	store, dir := setupLocalStorage(t)
	ctx := context.Background()

	_, err := store.Upload(ctx, "images/to-delete", "text/plain", strings.NewReader("x"), nil)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "images/to-delete"))
	_, err = os.Stat(filepath.Join(dir, "images", "to-delete"))
	assert.True(t, os.IsNotExist(err), "File should not exist after deletion")

	assert.NoError(t, store.Delete(ctx, "images/to-delete"), "Deleting a missing object is a no-op")
}

func TestLocalStorage_Delete_PathTraversal(t *testing.T) {
	store, dir := setupLocalStorage(t)

	outside := filepath.Join(filepath.Dir(dir), "dummy_outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("dummy"), 0o644))

	err := store.Delete(context.Background(), "../dummy_outside.txt")
	require.Error(t, err)

	_, statErr := os.Stat(outside)
	assert.NoError(t, statErr, "External file should still exist.")
}

func TestUploadFileHeader_NilHeader(t *testing.T) {
	store, _ := setupLocalStorage(t)

	_, err := UploadFileHeader(context.Background(), store, "images/x", nil, nil)
	assert.EqualError(t, err, "fileHeader cannot be nil")
}

func TestImageKey(t *testing.T) {
	key := ImageKey("u1", "My Trout Photo.JPG")

	assert.True(t, strings.HasPrefix(key, "images/u1-my-trout-photo.jpg-"), key)
	assert.Len(t, strings.TrimPrefix(key, "images/u1-my-trout-photo.jpg-"), 36)
	assert.NotEqual(t, key, ImageKey("u1", "My Trout Photo.JPG"))
	assert.Equal(t, "avatars/u1", AvatarKey("u1"))
}
