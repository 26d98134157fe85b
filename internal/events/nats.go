package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSConfig configures the NATS change feed.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	QueueGroup    string
	MaxReconnects int
	ReconnectWait time.Duration
}

// NATSBus publishes change events to "<prefix>.<collection>" and consumes
// them through a queue group, so each event is handled by one replica.
type NATSBus struct {
	conn    *nats.Conn
	cfg     NATSConfig
	logger  *zap.Logger
	mu      sync.Mutex
	subs    []*nats.Subscription
	timeout time.Duration
}

// NewNATSBus connects to NATS.
func NewNATSBus(cfg NATSConfig, logger *zap.Logger) (*NATSBus, error) {
	log := logger.Named("nats_bus")
	opts := []nats.Option{
		nats.Name("fishtopia-backend"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", cfg.URL, err)
	}
	log.Info("Connected to NATS", zap.String("url", conn.ConnectedUrl()))

	return &NATSBus{conn: conn, cfg: cfg, logger: log, timeout: 30 * time.Second}, nil
}

// Subject returns the subject used for a collection.
func (b *NATSBus) Subject(collection string) string {
	return b.cfg.SubjectPrefix + "." + collection
}

func (b *NATSBus) Publish(_ context.Context, ev ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding change event: %w", err)
	}
	if err := b.conn.Publish(b.Subject(ev.Collection), data); err != nil {
		return fmt.Errorf("publishing to %s: %w", b.Subject(ev.Collection), err)
	}
	return nil
}

func (b *NATSBus) Subscribe(collection string, h Handler) error {
	return b.subscribe(collection, b.cfg.QueueGroup, h)
}

// Broadcast subscribes outside the queue group so every instance sees each event.
func (b *NATSBus) Broadcast(collection string, h Handler) error {
	return b.subscribe(collection, "", h)
}

func (b *NATSBus) subscribe(collection, queue string, h Handler) error {
	subject := b.Subject(collection)
	cb := func(msg *nats.Msg) {
		var ev ChangeEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			b.logger.Error("Dropping undecodable change event", zap.String("subject", msg.Subject), zap.Error(err))
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		if err := h(ctx, ev); err != nil {
			b.logger.Warn("Change handler failed",
				zap.String("subject", msg.Subject),
				zap.String("id", ev.DocumentID),
				zap.Error(err),
			)
		}
	}

	var (
		sub *nats.Subscription
		err error
	)
	if queue == "" {
		sub, err = b.conn.Subscribe(subject, cb)
	} else {
		sub, err = b.conn.QueueSubscribe(subject, queue, cb)
	}
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", subject, err)
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	b.logger.Info("Subscribed to change feed", zap.String("subject", subject), zap.String("queue", queue))
	return nil
}

// Close drains subscriptions and closes the connection.
func (b *NATSBus) Close() error {
	if b.conn == nil {
		return nil
	}
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
		return fmt.Errorf("draining NATS connection: %w", err)
	}
	return nil
}
