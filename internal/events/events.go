// Package events carries document change notifications from the services
// that write listings and user profiles to the consumers that mirror them,
// such as the search index.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"fishtopia_backend/internal/config"

	"go.uber.org/zap"
)

// Collections whose changes are published.
const (
	CollectionListings = "listings"
	CollectionUsers    = "users"
)

// ErrBusClosed is returned when publishing on a closed bus.
var ErrBusClosed = errors.New("change feed is closed")

var lastOccurred atomic.Int64

// occurredNow returns the current time, strictly after any time it returned
// before in this process. OccurredAt doubles as the event version.
func occurredNow() time.Time {
	for {
		now := time.Now().UnixNano()
		last := lastOccurred.Load()
		if now <= last {
			now = last + 1
		}
		if lastOccurred.CompareAndSwap(last, now) {
			return time.Unix(0, now).UTC()
		}
	}
}

// ChangeEvent describes the state of one document after a write. Exists is
// false when the write removed the document.
type ChangeEvent struct {
	Collection string                 `json:"collection"`
	DocumentID string                 `json:"documentId"`
	Exists     bool                   `json:"exists"`
	Document   map[string]interface{} `json:"document,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
}

// Upserted builds the event for a created or updated document. doc is
// projected through its JSON form so the payload carries the wire field names.
func Upserted(collection, id string, doc interface{}) (ChangeEvent, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return ChangeEvent{}, fmt.Errorf("encoding %s/%s: %w", collection, id, err)
	}
	fields := make(map[string]interface{})
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ChangeEvent{}, fmt.Errorf("projecting %s/%s: %w", collection, id, err)
	}
	return ChangeEvent{
		Collection: collection,
		DocumentID: id,
		Exists:     true,
		Document:   fields,
		OccurredAt: occurredNow(),
	}, nil
}

// Deleted builds the event for a removed document.
func Deleted(collection, id string) ChangeEvent {
	return ChangeEvent{
		Collection: collection,
		DocumentID: id,
		Exists:     false,
		OccurredAt: occurredNow(),
	}
}

// Handler consumes one change event.
type Handler func(ctx context.Context, ev ChangeEvent) error

// Publisher emits change events.
type Publisher interface {
	Publish(ctx context.Context, ev ChangeEvent) error
}

// Subscriber registers handlers per collection. Subscribe shares the work
// among all instances; Broadcast delivers every event to this instance.
type Subscriber interface {
	Subscribe(collection string, h Handler) error
	Broadcast(collection string, h Handler) error
}

// Bus is both ends of the change feed.
type Bus interface {
	Publisher
	Subscriber
	Close() error
}

// New returns a NATS bus when NATS_URL is set and an in-process bus otherwise.
func New(cfg *config.Config, logger *zap.Logger) (Bus, error) {
	if cfg.NatsURL == "" {
		logger.Info("NATS_URL not set, using in-process change feed")
		return NewLocalBus(logger), nil
	}
	return NewNATSBus(NATSConfig{
		URL:           cfg.NatsURL,
		SubjectPrefix: cfg.NatsSubjectPrefix,
		QueueGroup:    cfg.NatsQueueGroup,
		MaxReconnects: 10,
		ReconnectWait: 2 * time.Second,
	}, logger)
}

// Emit publishes an upsert event for doc and logs instead of failing.
// Writers call it after their write committed; the mirror is best-effort.
func Emit(ctx context.Context, pub Publisher, logger *zap.Logger, collection, id string, doc interface{}) {
	if pub == nil {
		return
	}
	ev, err := Upserted(collection, id, doc)
	if err != nil {
		logger.Error("Failed to build change event", zap.String("collection", collection), zap.String("id", id), zap.Error(err))
		return
	}
	publish(ctx, pub, logger, ev)
}

// EmitDeleted publishes a delete event and logs instead of failing.
func EmitDeleted(ctx context.Context, pub Publisher, logger *zap.Logger, collection, id string) {
	if pub == nil {
		return
	}
	publish(ctx, pub, logger, Deleted(collection, id))
}

func publish(ctx context.Context, pub Publisher, logger *zap.Logger, ev ChangeEvent) {
	if err := pub.Publish(ctx, ev); err != nil {
		logger.Error("Failed to publish change event",
			zap.String("collection", ev.Collection),
			zap.String("id", ev.DocumentID),
			zap.Bool("exists", ev.Exists),
			zap.Error(err),
		)
	}
}
