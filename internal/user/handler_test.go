package user

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fishtopia_backend/internal/common"
	"fishtopia_backend/internal/events/eventstest"
	"fishtopia_backend/internal/filestorage"
	"fishtopia_backend/internal/platform/database/dbtest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type userAPIResponse struct {
	Status string `json:"status"`
	Data   User   `json:"data"`
}

func setupUserRouter(t *testing.T) (*gin.Engine, Repository, string) {
	gin.SetMode(gin.TestMode)

	repo := NewGORMRepository(dbtest.New(t, &User{}))
	uploadDir := t.TempDir()
	store, err := filestorage.NewLocalStorage(uploadDir, "http://cdn.test", zap.NewNop())
	require.NoError(t, err)

	identity := new(MockIdentityProvider)
	identity.On("UpdateProfile", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewService(repo, identity, store, &eventstest.Recorder{}, zap.NewNop())

	fakeAuth := func(c *gin.Context) {
		if uid := c.GetHeader("X-Test-User"); uid != "" {
			c.Set(common.ActorContextKey, &common.Actor{UserID: uid, DisplayName: "Alice", Email: "alice@example.com"})
		}
		c.Next()
	}

	router := gin.New()
	NewHandler(svc, zap.NewNop()).RegisterRoutes(router.Group("/api/v1"), fakeAuth)
	return router, repo, uploadDir
}

func TestHandler_GetMe_CreatesProfileOnFirstCall(t *testing.T) {
	router, repo, _ := setupUserRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("X-Test-User", "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp userAPIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.Data.ID)
	assert.Equal(t, "Alice", resp.Data.Name)

	stored, err := repo.FindByID(req.Context(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", stored.Email)
}

func TestHandler_GetMe_RequiresActor(t *testing.T) {
	router, _, _ := setupUserRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_UpdateMe_ValidationError(t *testing.T) {
	router, repo, _ := setupUserRouter(t)
	require.NoError(t, repo.Create(httptest.NewRequest(http.MethodGet, "/", nil).Context(), &User{ID: "u1", Name: "Alice"}))

	body := bytes.NewBufferString(`{"name": "` + strings.Repeat("a", 101) + `"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/users/me", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

func TestHandler_UploadAvatar(t *testing.T) {
	router, repo, uploadDir := setupUserRouter(t)
	ctx := httptest.NewRequest(http.MethodGet, "/", nil).Context()
	require.NoError(t, repo.Create(ctx, &User{ID: "u1", Name: "Alice"}))

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("avatar", "me.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/me/avatar", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Test-User", "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp userAPIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "http://cdn.test/avatars/u1", resp.Data.AvatarURL)

	content, err := os.ReadFile(filepath.Join(uploadDir, "avatars", "u1"))
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(content))
}

func TestHandler_GetUserByID_NotFound(t *testing.T) {
	router, _, _ := setupUserRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
