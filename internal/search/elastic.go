package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	platformes "fishtopia_backend/internal/platform/elasticsearch"
)

// ElasticIndex implements Index on Elasticsearch.
type ElasticIndex struct {
	client  *platformes.ESClientWrapper
	refresh string
	logger  *zap.Logger
}

// NewElasticIndex creates an ElasticIndex. refresh is passed to write
// requests ("false", "true" or "wait_for").
func NewElasticIndex(client *platformes.ESClientWrapper, refresh string, logger *zap.Logger) *ElasticIndex {
	return &ElasticIndex{client: client, refresh: refresh, logger: logger.Named("elastic_index")}
}

// externalVersion maps a change version onto Elasticsearch external versioning.
func externalVersion(version int64) (*int, string) {
	if version <= 0 {
		return nil, ""
	}
	v := int(version)
	return &v, "external"
}

func (e *ElasticIndex) Upsert(ctx context.Context, index, id string, record map[string]interface{}, version int64) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding %s/%s: %w", index, id, err)
	}

	v, versionType := externalVersion(version)
	res, err := esapi.IndexRequest{
		Index:       index,
		DocumentID:  id,
		Body:        bytes.NewReader(body),
		Refresh:     e.refresh,
		Version:     v,
		VersionType: versionType,
	}.Do(ctx, e.client.Client)
	if err != nil {
		return fmt.Errorf("indexing %s/%s: %w", index, id, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusConflict && v != nil {
		e.logger.Debug("Skipped stale search upsert", zap.String("index", index), zap.String("id", id), zap.Int64("version", version))
		return nil
	}
	if res.IsError() {
		return fmt.Errorf("indexing %s/%s: %s", index, id, res.String())
	}
	return nil
}

func (e *ElasticIndex) Delete(ctx context.Context, index, id string, version int64) error {
	v, versionType := externalVersion(version)
	res, err := esapi.DeleteRequest{
		Index:       index,
		DocumentID:  id,
		Refresh:     e.refresh,
		Version:     v,
		VersionType: versionType,
	}.Do(ctx, e.client.Client)
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", index, id, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.StatusCode == http.StatusConflict && v != nil {
		e.logger.Debug("Skipped stale search delete", zap.String("index", index), zap.String("id", id), zap.Int64("version", version))
		return nil
	}
	if res.IsError() {
		return fmt.Errorf("deleting %s/%s: %s", index, id, res.String())
	}
	return nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID     string                 `json:"_id"`
			Status int                    `json:"status"`
			Error  map[string]interface{} `json:"error,omitempty"`
		} `json:"index"`
	} `json:"items"`
}

func (e *ElasticIndex) BulkUpsert(ctx context.Context, index string, docs []Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	var body strings.Builder
	for _, d := range docs {
		doc, err := json.Marshal(withObjectID(d.ID, d.Body))
		if err != nil {
			e.logger.Error("Failed to encode document for bulk indexing", zap.String("index", index), zap.String("id", d.ID), zap.Error(err))
			continue
		}
		meta, _ := json.Marshal(map[string]interface{}{"index": map[string]string{"_index": index, "_id": d.ID}})
		body.Write(meta)
		body.WriteByte('\n')
		body.Write(doc)
		body.WriteByte('\n')
	}

	res, err := esapi.BulkRequest{
		Body:    strings.NewReader(body.String()),
		Refresh: e.refresh,
	}.Do(ctx, e.client.Client)
	if err != nil {
		return 0, fmt.Errorf("bulk indexing %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, fmt.Errorf("bulk indexing %s: %s", index, res.String())
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decoding bulk response for %s: %w", index, err)
	}

	synced := 0
	for _, item := range parsed.Items {
		if item.Index.Error != nil {
			e.logger.Error("Failed to index document in bulk batch",
				zap.String("index", index),
				zap.String("id", item.Index.ID),
				zap.Int("status", item.Index.Status),
				zap.Any("error", item.Index.Error),
			)
			continue
		}
		synced++
	}
	return synced, nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID        string                 `json:"_id"`
			Score     float64                `json:"_score"`
			Source    map[string]interface{} `json:"_source"`
			Highlight map[string][]string    `json:"highlight"`
		} `json:"hits"`
	} `json:"hits"`
}

func buildSearchBody(index string, q Query) map[string]interface{} {
	attrs := SearchableAttributes[index]
	body := map[string]interface{}{
		"from": (q.Page - 1) * q.PageSize,
		"size": q.PageSize,
	}

	if strings.TrimSpace(q.Text) == "" {
		body["query"] = map[string]interface{}{"match_all": map[string]interface{}{}}
		body["sort"] = []interface{}{map[string]interface{}{"timestamp": map[string]string{"order": "desc", "unmapped_type": "date"}}}
		return body
	}

	body["query"] = map[string]interface{}{
		"multi_match": map[string]interface{}{
			"query":     q.Text,
			"fields":    attrs,
			"fuzziness": "AUTO",
		},
	}
	fields := make(map[string]interface{}, len(attrs))
	for _, a := range attrs {
		fields[a] = map[string]interface{}{}
	}
	body["highlight"] = map[string]interface{}{
		"pre_tags":  []string{"<em>"},
		"post_tags": []string{"</em>"},
		"fields":    fields,
	}
	return body
}

func (e *ElasticIndex) Search(ctx context.Context, index string, q Query) (*Result, error) {
	q = normalizeQuery(q)
	raw, err := json.Marshal(buildSearchBody(index, q))
	if err != nil {
		return nil, fmt.Errorf("encoding search for %s: %w", index, err)
	}

	res, err := esapi.SearchRequest{
		Index: []string{index},
		Body:  bytes.NewReader(raw),
	}.Do(ctx, e.client.Client)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("searching %s: %s", index, res.String())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding search response for %s: %w", index, err)
	}

	result := &Result{Total: parsed.Hits.Total.Value, Hits: make([]Hit, 0, len(parsed.Hits.Hits))}
	for _, h := range parsed.Hits.Hits {
		result.Hits = append(result.Hits, Hit{
			ObjectID:   h.ID,
			Score:      h.Score,
			Record:     h.Source,
			Highlights: h.Highlight,
		})
	}
	return result, nil
}

func normalizeQuery(q Query) Query {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = 20
	}
	return q
}
