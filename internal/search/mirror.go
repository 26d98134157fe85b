package search

import (
	"context"
	"fmt"

	"fishtopia_backend/internal/events"

	"go.uber.org/zap"
)

// Mirror applies listing and user change events to the search indexes.
// Each event yields exactly one upsert or delete keyed by the document id.
// Both are idempotent, so redelivery is harmless.
type Mirror struct {
	index  Index
	logger *zap.Logger
}

// NewMirror creates a Mirror writing to index.
func NewMirror(index Index, logger *zap.Logger) *Mirror {
	return &Mirror{index: index, logger: logger.Named("search_mirror")}
}

// Register subscribes the mirror to the listing and user change feeds.
func (m *Mirror) Register(sub events.Subscriber) error {
	if err := sub.Subscribe(events.CollectionListings, m.HandleListingChange); err != nil {
		return fmt.Errorf("subscribing mirror to listings: %w", err)
	}
	if err := sub.Subscribe(events.CollectionUsers, m.HandleUserChange); err != nil {
		return fmt.Errorf("subscribing mirror to users: %w", err)
	}
	return nil
}

// HandleListingChange mirrors one listing write.
func (m *Mirror) HandleListingChange(ctx context.Context, ev events.ChangeEvent) error {
	return m.apply(ctx, ListingsIndex, ev)
}

// HandleUserChange mirrors one user profile write.
func (m *Mirror) HandleUserChange(ctx context.Context, ev events.ChangeEvent) error {
	return m.apply(ctx, UsersIndex, ev)
}

func (m *Mirror) apply(ctx context.Context, index string, ev events.ChangeEvent) error {
	if ev.DocumentID == "" {
		return fmt.Errorf("change event for %s has no document id", index)
	}

	var version int64
	if !ev.OccurredAt.IsZero() {
		version = ev.OccurredAt.UnixNano()
	}

	if !ev.Exists {
		if err := m.index.Delete(ctx, index, ev.DocumentID, version); err != nil {
			m.logger.Error("Failed to delete search record", zap.String("index", index), zap.String("objectID", ev.DocumentID), zap.Error(err))
			return err
		}
		m.logger.Debug("Deleted search record", zap.String("index", index), zap.String("objectID", ev.DocumentID))
		return nil
	}

	if err := m.index.Upsert(ctx, index, ev.DocumentID, withObjectID(ev.DocumentID, ev.Document), version); err != nil {
		m.logger.Error("Failed to upsert search record", zap.String("index", index), zap.String("objectID", ev.DocumentID), zap.Error(err))
		return err
	}
	m.logger.Debug("Upserted search record", zap.String("index", index), zap.String("objectID", ev.DocumentID))
	return nil
}
