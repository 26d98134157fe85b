package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	platformes "fishtopia_backend/internal/platform/elasticsearch"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
}

func newFakeES(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*ElasticIndex, *[]recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var seen []recordedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: string(body)})
		mu.Unlock()
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewElasticIndex(&platformes.ESClientWrapper{Client: client}, "false", zap.NewNop()), &seen
}

func TestElasticIndex_UpsertSendsFullRecord(t *testing.T) {
	idx, seen := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"result":"updated"}`))
	})

	err := idx.Upsert(context.Background(), ListingsIndex, "l1", map[string]interface{}{"title": "Trout", ObjectIDField: "l1"}, 0)
	require.NoError(t, err)

	require.Len(t, *seen, 1)
	req := (*seen)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/listings/_doc/l1", req.Path)
	assert.JSONEq(t, `{"title":"Trout","objectID":"l1"}`, req.Body)
	assert.NotContains(t, req.Query, "version_type")
}

func TestElasticIndex_VersionedWritesUseExternalVersion(t *testing.T) {
	idx, seen := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"result":"updated"}`))
	})
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, ListingsIndex, "l1", map[string]interface{}{"title": "Trout"}, 1700000000000000001))
	require.NoError(t, idx.Delete(ctx, ListingsIndex, "l1", 1700000000000000002))

	require.Len(t, *seen, 2)
	for _, req := range *seen {
		assert.Contains(t, req.Query, "version_type=external")
	}
	assert.Contains(t, (*seen)[0].Query, "version=1700000000000000001")
	assert.Contains(t, (*seen)[1].Query, "version=1700000000000000002")
}

func TestElasticIndex_StaleVersionIsSkipped(t *testing.T) {
	idx, _ := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":{"type":"version_conflict_engine_exception"},"status":409}`))
	})
	ctx := context.Background()

	assert.NoError(t, idx.Upsert(ctx, ListingsIndex, "l1", map[string]interface{}{"title": "Trout"}, 5))
	assert.NoError(t, idx.Delete(ctx, ListingsIndex, "l1", 5))
	assert.Error(t, idx.Upsert(ctx, ListingsIndex, "l1", map[string]interface{}{"title": "Trout"}, 0), "unversioned conflicts are real errors")
}

func TestElasticIndex_DeleteMissingIsNoop(t *testing.T) {
	idx, _ := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	})

	assert.NoError(t, idx.Delete(context.Background(), UsersIndex, "ghost", 0))
}

func TestElasticIndex_DeleteServerErrorSurfaces(t *testing.T) {
	idx, _ := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad"}`))
	})

	assert.Error(t, idx.Delete(context.Background(), UsersIndex, "u1", 0))
}

func TestElasticIndex_SearchParsesHitsAndHighlights(t *testing.T) {
	idx, seen := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"hits": {
				"total": {"value": 1},
				"hits": [{
					"_id": "l1",
					"_score": 1.5,
					"_source": {"title": "Brown Trout", "userRef": "u1"},
					"highlight": {"title": ["Brown <em>Trout</em>"]}
				}]
			}
		}`))
	})

	res, err := idx.Search(context.Background(), ListingsIndex, Query{Text: "trout", Page: 1, PageSize: 10})
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.Total)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "l1", res.Hits[0].ObjectID)
	assert.Equal(t, []string{"Brown <em>Trout</em>"}, res.Hits[0].Highlights["title"])

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte((*seen)[0].Body), &body))
	mm := body["query"].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.ElementsMatch(t, []interface{}{"title", "description", "name"}, mm["fields"])
}

func TestElasticIndex_BulkUpsertCountsItemErrors(t *testing.T) {
	idx, seen := newFakeES(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":true,"items":[
			{"index":{"_id":"u1","status":201}},
			{"index":{"_id":"u2","status":400,"error":{"type":"mapper_parsing_exception"}}}
		]}`))
	})

	n, err := idx.BulkUpsert(context.Background(), UsersIndex, []Document{
		{ID: "u1", Body: map[string]interface{}{"name": "Ana"}},
		{ID: "u2", Body: map[string]interface{}{"name": "Bo"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	lines := strings.Split(strings.TrimSpace((*seen)[0].Body), "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[1], `"objectID":"u1"`)
}
