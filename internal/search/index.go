// Package search keeps the listings and users search indexes in step with
// the primary store and answers free-text queries against them.
//
// The indexes are a projection and never authoritative. Writers publish
// change events after their write commits and the Mirror applies them
// asynchronously, so a query issued right after a write can return the
// previous state of the document.
package search

import (
	"context"

	platformes "fishtopia_backend/internal/platform/elasticsearch"
)

// Index names, shared with the Elasticsearch mappings.
const (
	ListingsIndex = platformes.ListingsIndexName
	UsersIndex    = platformes.UsersIndexName
)

// ObjectIDField is the record key field, equal to the source document id.
const ObjectIDField = "objectID"

// SearchableAttributes lists the attributes matched and highlighted per index.
var SearchableAttributes = map[string][]string{
	ListingsIndex: {"title", "description", "name"},
	UsersIndex:    {"name", "email"},
}

// Query is a free-text search request.
type Query struct {
	Text     string
	Page     int
	PageSize int
}

// Hit is one ranked record with highlighted fragments per matched attribute.
type Hit struct {
	ObjectID   string                 `json:"objectID"`
	Score      float64                `json:"score"`
	Record     map[string]interface{} `json:"record"`
	Highlights map[string][]string    `json:"highlights,omitempty"`
}

// Result is a page of hits.
type Result struct {
	Hits  []Hit `json:"hits"`
	Total int64 `json:"total"`
}

// Document is a source document handed to a bulk reindex.
type Document struct {
	ID   string
	Body map[string]interface{}
}

// Index is the search engine boundary.
//
// Upsert and Delete take the version of the change they apply. A positive
// version is compared with the last version applied to the same id and the
// write is skipped unless it is newer, so events delivered out of order
// cannot resurrect or roll back a record. Version 0 writes unconditionally.
type Index interface {
	// Upsert fully overwrites the record keyed by id.
	Upsert(ctx context.Context, index, id string, record map[string]interface{}, version int64) error
	// Delete removes the record keyed by id. Deleting an absent record succeeds.
	Delete(ctx context.Context, index, id string, version int64) error
	// BulkUpsert overwrites many records and returns how many succeeded.
	BulkUpsert(ctx context.Context, index string, docs []Document) (int, error)
	Search(ctx context.Context, index string, q Query) (*Result, error)
}

func withObjectID(id string, doc map[string]interface{}) map[string]interface{} {
	record := make(map[string]interface{}, len(doc)+1)
	for k, v := range doc {
		record[k] = v
	}
	record[ObjectIDField] = id
	return record
}
