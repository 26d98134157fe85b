package app

import (
	"context"

	"fishtopia_backend/internal/events"
	"fishtopia_backend/internal/listing"
	"fishtopia_backend/internal/search"
	"fishtopia_backend/internal/user"

	"go.uber.org/zap"
)

// toDocuments projects rows the same way change events do, so a reindexed
// record is identical to a mirrored one.
func toDocuments[T any](collection string, rows []T, id func(T) string) ([]search.Document, error) {
	docs := make([]search.Document, 0, len(rows))
	for _, row := range rows {
		ev, err := events.Upserted(collection, id(row), row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, search.Document{ID: ev.DocumentID, Body: ev.Document})
	}
	return docs, nil
}

// ListingSource pages listings for the reindexer.
func ListingSource(repo listing.Repository) search.SourceFunc {
	return func(ctx context.Context, offset, limit int) ([]search.Document, error) {
		rows, err := repo.List(ctx, offset, limit)
		if err != nil {
			return nil, err
		}
		return toDocuments(events.CollectionListings, rows, func(l listing.Listing) string { return l.ID })
	}
}

// UserSource pages user profiles for the reindexer.
func UserSource(repo user.Repository) search.SourceFunc {
	return func(ctx context.Context, offset, limit int) ([]search.Document, error) {
		rows, err := repo.List(ctx, offset, limit)
		if err != nil {
			return nil, err
		}
		return toDocuments(events.CollectionUsers, rows, func(u user.User) string { return u.ID })
	}
}

// NewReindexer builds a reindexer fed by the listing and user tables.
func NewReindexer(index search.Index, listings listing.Repository, users user.Repository, batchSize int, logger *zap.Logger) *search.Reindexer {
	r := search.NewReindexer(index, batchSize, logger)
	r.AddSource(search.ListingsIndex, ListingSource(listings))
	r.AddSource(search.UsersIndex, UserSource(users))
	return r
}
