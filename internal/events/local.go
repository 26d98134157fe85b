package events

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// localShards is the number of delivery workers per subscription.
const localShards = 8

// LocalBus delivers events to in-process handlers on background workers,
// so publishers never wait for consumers. Each subscription shards events
// by document id: events for one document are handled one at a time in
// publish order, unrelated documents run concurrently.
type LocalBus struct {
	mu       sync.RWMutex
	subs     map[string][]*localSubscription
	wg       sync.WaitGroup
	logger   *zap.Logger
	timeout  time.Duration
	closed   bool
	stopOnce sync.Once
}

type localSubscription struct {
	handler Handler
	shards  []*localShard
}

// localShard is an unbounded FIFO drained by a single goroutine.
type localShard struct {
	mu    sync.Mutex
	queue []ChangeEvent
	wake  chan struct{}
	done  chan struct{}
}

// NewLocalBus creates an empty LocalBus.
func NewLocalBus(logger *zap.Logger) *LocalBus {
	return &LocalBus{
		subs:    make(map[string][]*localSubscription),
		logger:  logger.Named("local_bus"),
		timeout: 30 * time.Second,
	}
}

func (b *LocalBus) Subscribe(collection string, h Handler) error {
	sub := &localSubscription{handler: h, shards: make([]*localShard, localShards)}
	for i := range sub.shards {
		shard := &localShard{wake: make(chan struct{}, 1), done: make(chan struct{})}
		sub.shards[i] = shard
		go b.run(collection, h, shard)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[collection] = append(b.subs[collection], sub)
	return nil
}

// Broadcast is Subscribe: a single process is every instance.
func (b *LocalBus) Broadcast(collection string, h Handler) error {
	return b.Subscribe(collection, h)
}

func (b *LocalBus) Publish(_ context.Context, ev ChangeEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	idx := shardFor(ev.DocumentID)
	for _, sub := range b.subs[ev.Collection] {
		b.wg.Add(1)
		sub.shards[idx].push(ev)
	}
	return nil
}

func shardFor(documentID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(documentID))
	return int(h.Sum32() % localShards)
}

func (s *localShard) push(ev ChangeEvent) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *localShard) pop() (ChangeEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return ChangeEvent{}, false
	}
	ev := s.queue[0]
	s.queue[0] = ChangeEvent{}
	s.queue = s.queue[1:]
	return ev, true
}

func (b *LocalBus) run(collection string, h Handler, shard *localShard) {
	for {
		select {
		case <-shard.wake:
		case <-shard.done:
			return
		}
		for {
			ev, ok := shard.pop()
			if !ok {
				break
			}
			b.deliver(collection, h, ev)
		}
	}
}

func (b *LocalBus) deliver(collection string, h Handler, ev ChangeEvent) {
	defer b.wg.Done()
	// Detached from the request context: the write already succeeded.
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	if err := h(ctx, ev); err != nil {
		b.logger.Warn("Change handler failed",
			zap.String("collection", collection),
			zap.String("id", ev.DocumentID),
			zap.Error(err),
		)
	}
}

// Wait blocks until every delivered event has been handled.
func (b *LocalBus) Wait() {
	b.wg.Wait()
}

// Close refuses further events, waits for in-flight deliveries and stops the workers.
func (b *LocalBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	b.wg.Wait()
	b.stopOnce.Do(func() {
		b.mu.RLock()
		defer b.mu.RUnlock()
		for _, subs := range b.subs {
			for _, sub := range subs {
				for _, shard := range sub.shards {
					close(shard.done)
				}
			}
		}
	})
	return nil
}
