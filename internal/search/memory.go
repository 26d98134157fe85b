package search

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// MemoryIndex is an in-process Index used when no search cluster is
// configured and in tests. Matching is a case-insensitive substring match
// on the searchable attributes.
type MemoryIndex struct {
	mu      sync.RWMutex
	records map[string]map[string]map[string]interface{}
	// versions keeps the last applied version per id, deletes included.
	versions map[string]map[string]int64
}

// NewMemoryIndex creates an empty MemoryIndex.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		records:  make(map[string]map[string]map[string]interface{}),
		versions: make(map[string]map[string]int64),
	}
}

// admit reports whether a write at version may be applied and records it.
// Callers hold m.mu.
func (m *MemoryIndex) admit(index, id string, version int64) bool {
	if version <= 0 {
		return true
	}
	if m.versions[index] == nil {
		m.versions[index] = make(map[string]int64)
	}
	if last, ok := m.versions[index][id]; ok && version <= last {
		return false
	}
	m.versions[index][id] = version
	return true
}

func (m *MemoryIndex) Upsert(_ context.Context, index, id string, record map[string]interface{}, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.admit(index, id, version) {
		return nil
	}
	if m.records[index] == nil {
		m.records[index] = make(map[string]map[string]interface{})
	}
	m.records[index][id] = withObjectID(id, record)
	return nil
}

func (m *MemoryIndex) Delete(_ context.Context, index, id string, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.admit(index, id, version) {
		return nil
	}
	delete(m.records[index], id)
	return nil
}

func (m *MemoryIndex) BulkUpsert(ctx context.Context, index string, docs []Document) (int, error) {
	for _, d := range docs {
		if err := m.Upsert(ctx, index, d.ID, d.Body, 0); err != nil {
			return 0, err
		}
	}
	return len(docs), nil
}

// Get returns a copy of one record, for inspection.
func (m *MemoryIndex) Get(index, id string) (map[string]interface{}, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[index][id]
	if !ok {
		return nil, false
	}
	return withObjectID(id, r), true
}

// Len returns the number of records in index.
func (m *MemoryIndex) Len(index string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records[index])
}

func (m *MemoryIndex) Search(_ context.Context, index string, q Query) (*Result, error) {
	q = normalizeQuery(q)
	text := strings.TrimSpace(q.Text)

	var pattern *regexp.Regexp
	if text != "" {
		var err error
		pattern, err = regexp.Compile("(?i)" + regexp.QuoteMeta(text))
		if err != nil {
			return nil, fmt.Errorf("compiling query: %w", err)
		}
	}

	m.mu.RLock()
	hits := make([]Hit, 0)
	for id, record := range m.records[index] {
		hit := Hit{ObjectID: id, Record: withObjectID(id, record)}
		if pattern != nil {
			for _, attr := range SearchableAttributes[index] {
				s, ok := record[attr].(string)
				if !ok || !pattern.MatchString(s) {
					continue
				}
				if hit.Highlights == nil {
					hit.Highlights = make(map[string][]string)
				}
				hit.Highlights[attr] = []string{pattern.ReplaceAllString(s, "<em>$0</em>")}
				hit.Score += float64(len(pattern.FindAllStringIndex(s, -1)))
			}
			if hit.Score == 0 {
				continue
			}
		}
		hits = append(hits, hit)
	}
	m.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		ti, _ := hits[i].Record["timestamp"].(string)
		tj, _ := hits[j].Record["timestamp"].(string)
		if ti != tj {
			return ti > tj
		}
		return hits[i].ObjectID < hits[j].ObjectID
	})

	total := int64(len(hits))
	start := (q.Page - 1) * q.PageSize
	if start > len(hits) {
		start = len(hits)
	}
	end := start + q.PageSize
	if end > len(hits) {
		end = len(hits)
	}
	return &Result{Hits: hits[start:end], Total: total}, nil
}
