package listing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"fishtopia_backend/internal/common"
	"fishtopia_backend/internal/config"
	"fishtopia_backend/internal/events/eventstest"
	"fishtopia_backend/internal/filestorage"
	"fishtopia_backend/internal/platform/database/dbtest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type listingAPIResponse struct {
	Status string  `json:"status"`
	Data   Listing `json:"data"`
}

type listingHandlerTestSuite struct {
	router   *gin.Engine
	repo     Repository
	recorder *eventstest.Recorder
}

func setupListingRouter(t *testing.T) *listingHandlerTestSuite {
	gin.SetMode(gin.TestMode)

	ts := &listingHandlerTestSuite{
		repo:     NewGORMRepository(dbtest.New(t, &Listing{}, &Like{})),
		recorder: &eventstest.Recorder{},
	}
	store, err := filestorage.NewLocalStorage(t.TempDir(), "http://cdn.test", zap.NewNop())
	require.NoError(t, err)
	cfg := &config.Config{MaxListingImages: 6, RecentListingsLimit: 5}
	svc := NewService(ts.repo, store, ts.recorder, nil, cfg, zap.NewNop())

	fakeAuth := func(c *gin.Context) {
		if uid := c.GetHeader("X-Test-User"); uid != "" {
			c.Set(common.ActorContextKey, &common.Actor{UserID: uid, DisplayName: "Alice"})
		}
		c.Next()
	}

	ts.router = gin.New()
	NewHandler(svc, zap.NewNop()).RegisterRoutes(ts.router.Group("/api/v1"), fakeAuth)
	return ts
}

// listingForm builds a multipart listing form with the given number of PNG images.
func listingForm(t *testing.T, fields map[string]string, images int) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	for i := 0; i < images; i++ {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="fish-%d.png"`, i))
		h.Set("Content-Type", "image/png")
		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("png bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func (ts *listingHandlerTestSuite) post(body *bytes.Buffer, contentType, uid string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", body)
	req.Header.Set("Content-Type", contentType)
	if uid != "" {
		req.Header.Set("X-Test-User", uid)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

var troutForm = map[string]string{
	"title":       "Rainbow trout",
	"name":        "Trout",
	"description": "Caught at dawn",
	"country":     "Norway",
}

func TestHandler_CreateListing(t *testing.T) {
	ts := setupListingRouter(t)

	body, contentType := listingForm(t, troutForm, 2)
	rec := ts.post(body, contentType, "u1")

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp listingAPIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.Data.UserRef)
	assert.Equal(t, "Rainbow trout", resp.Data.Title)
	require.Len(t, resp.Data.ImgURLs, 2)

	stored, err := ts.repo.FindByID(context.Background(), resp.Data.ID)
	require.NoError(t, err)
	assert.Equal(t, "Norway", stored.Country)
	assert.Len(t, ts.recorder.Events(), 1)
}

func TestHandler_CreateListing_TooManyImages(t *testing.T) {
	ts := setupListingRouter(t)

	body, contentType := listingForm(t, troutForm, 7)
	rec := ts.post(body, contentType, "u1")

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	var apiErr common.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	assert.Contains(t, apiErr.Details, "images")

	listings, err := ts.repo.List(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Empty(t, listings)
	assert.Empty(t, ts.recorder.Events())
}

func TestHandler_CreateListing_MissingRequiredField(t *testing.T) {
	ts := setupListingRouter(t)

	body, contentType := listingForm(t, map[string]string{"name": "Trout", "description": "no title"}, 1)
	rec := ts.post(body, contentType, "u1")

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	var apiErr common.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Contains(t, apiErr.Details, "title")
}

func TestHandler_CreateListing_RequiresActor(t *testing.T) {
	ts := setupListingRouter(t)

	body, contentType := listingForm(t, troutForm, 0)
	rec := ts.post(body, contentType, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
