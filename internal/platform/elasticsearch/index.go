package elasticsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

const (
	ListingsIndexName = "listings"
	UsersIndexName    = "users"
)

func textWithKeyword() map[string]interface{} {
	return map[string]interface{}{
		"type": "text",
		"fields": map[string]interface{}{
			"keyword": map[string]interface{}{"type": "keyword", "ignore_above": 256},
		},
	}
}

// Records are full document projections, so mappings stay dynamic and only
// pin the searchable and filterable fields.
func listingsMapping() map[string]interface{} {
	return map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"objectID":    map[string]interface{}{"type": "keyword"},
				"userRef":     map[string]interface{}{"type": "keyword"},
				"title":       textWithKeyword(),
				"name":        textWithKeyword(),
				"description": map[string]interface{}{"type": "text"},
				"country":     map[string]interface{}{"type": "keyword"},
				"risk":        map[string]interface{}{"type": "keyword"},
				"imgUrls":     map[string]interface{}{"type": "keyword", "index": false},
				"likedBy":     map[string]interface{}{"type": "keyword"},
				"likes":       map[string]interface{}{"type": "integer"},
				"timestamp":   map[string]interface{}{"type": "date"},
			},
		},
	}
}

func usersMapping() map[string]interface{} {
	return map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"objectID":  map[string]interface{}{"type": "keyword"},
				"name":      textWithKeyword(),
				"email":     textWithKeyword(),
				"avatarUrl": map[string]interface{}{"type": "keyword", "index": false},
				"timestamp": map[string]interface{}{"type": "date"},
			},
		},
	}
}

// EnsureIndexes creates the listings and users indexes when missing.
func EnsureIndexes(ctx context.Context, client *ESClientWrapper, logger *zap.Logger) error {
	if err := createIndexIfNotExists(ctx, client, logger, ListingsIndexName, listingsMapping()); err != nil {
		return err
	}
	return createIndexIfNotExists(ctx, client, logger, UsersIndexName, usersMapping())
}

func createIndexIfNotExists(ctx context.Context, client *ESClientWrapper, logger *zap.Logger, index string, mapping map[string]interface{}) error {
	log := logger.Named("elasticsearch_index_setup").With(zap.String("index_name", index))

	res, err := esapi.IndicesExistsRequest{Index: []string{index}}.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("error checking if index %s exists: %w", index, err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		log.Info("Index already exists")
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("error checking if index %s exists: status %s", index, res.Status())
	}

	body, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("error marshalling %s mapping to JSON: %w", index, err)
	}

	createRes, err := esapi.IndicesCreateRequest{
		Index: index,
		Body:  strings.NewReader(string(body)),
	}.Do(ctx, client.Client)
	if err != nil {
		return fmt.Errorf("error creating index %s: %w", index, err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		var errorBody map[string]interface{}
		if err := json.NewDecoder(createRes.Body).Decode(&errorBody); err == nil {
			log.Error("Failed to create index", zap.String("status", createRes.Status()), zap.Any("error_details", errorBody))
		}
		return fmt.Errorf("failed to create index %s: status %s", index, createRes.Status())
	}

	log.Info("Index created successfully")
	return nil
}
