package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sampleDoc struct {
	ID      string   `json:"id"`
	UserRef string   `json:"userRef"`
	ImgURLs []string `json:"imgUrls"`
}

func TestUpserted_ProjectsWireFieldNames(t *testing.T) {
	ev, err := Upserted(CollectionListings, "l1", sampleDoc{ID: "l1", UserRef: "u1", ImgURLs: []string{"a"}})
	require.NoError(t, err)

	assert.True(t, ev.Exists)
	assert.Equal(t, "l1", ev.DocumentID)
	assert.Equal(t, "u1", ev.Document["userRef"])
	assert.Equal(t, []interface{}{"a"}, ev.Document["imgUrls"])
}

func TestDeleted(t *testing.T) {
	ev := Deleted(CollectionUsers, "u1")
	assert.False(t, ev.Exists)
	assert.Nil(t, ev.Document)
}

func TestChangeEvents_OccurredAtIncreases(t *testing.T) {
	prev := Deleted(CollectionListings, "l1").OccurredAt
	for i := 0; i < 1000; i++ {
		next := Deleted(CollectionListings, "l1").OccurredAt
		require.True(t, next.After(prev))
		prev = next
	}
}

func TestLocalBus_DeliversToCollectionHandlers(t *testing.T) {
	bus := NewLocalBus(zap.NewNop())

	var mu sync.Mutex
	var got []string
	require.NoError(t, bus.Subscribe(CollectionListings, func(_ context.Context, ev ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev.DocumentID)
		return nil
	}))
	require.NoError(t, bus.Subscribe(CollectionUsers, func(_ context.Context, ev ChangeEvent) error {
		return errors.New("should not be called for listings")
	}))

	require.NoError(t, bus.Publish(context.Background(), Deleted(CollectionListings, "l1")))
	require.NoError(t, bus.Publish(context.Background(), Deleted(CollectionListings, "l2")))
	bus.Wait()

	assert.ElementsMatch(t, []string{"l1", "l2"}, got)
}

func TestLocalBus_PreservesOrderPerDocument(t *testing.T) {
	bus := NewLocalBus(zap.NewNop())
	t.Cleanup(func() { _ = bus.Close() })

	var mu sync.Mutex
	state := make(map[string]ChangeEvent)
	require.NoError(t, bus.Subscribe(CollectionListings, func(_ context.Context, ev ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		state[ev.DocumentID] = ev
		return nil
	}))

	ctx := context.Background()
	const n = 2000
	for i := 0; i < n; i++ {
		created := fmt.Sprintf("created-%d", i)
		ev, err := Upserted(CollectionListings, created, sampleDoc{ID: created})
		require.NoError(t, err)
		require.NoError(t, bus.Publish(ctx, ev))
		require.NoError(t, bus.Publish(ctx, Deleted(CollectionListings, created)))

		edited := fmt.Sprintf("edited-%d", i)
		first, err := Upserted(CollectionListings, edited, sampleDoc{ID: edited, UserRef: "old"})
		require.NoError(t, err)
		second, err := Upserted(CollectionListings, edited, sampleDoc{ID: edited, UserRef: "new"})
		require.NoError(t, err)
		require.NoError(t, bus.Publish(ctx, first))
		require.NoError(t, bus.Publish(ctx, second))
	}
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, state, 2*n)
	for i := 0; i < n; i++ {
		assert.False(t, state[fmt.Sprintf("created-%d", i)].Exists, "delete handled last for created-%d", i)
		assert.Equal(t, "new", state[fmt.Sprintf("edited-%d", i)].Document["userRef"], "latest upsert handled last for edited-%d", i)
	}
}

func TestLocalBus_PublishAfterClose(t *testing.T) {
	bus := NewLocalBus(zap.NewNop())
	require.NoError(t, bus.Subscribe(CollectionUsers, func(context.Context, ChangeEvent) error { return nil }))
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(context.Background(), Deleted(CollectionUsers, "u1")), ErrBusClosed)
	assert.NoError(t, bus.Close())
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, ChangeEvent) error {
	f.calls++
	return errors.New("broker down")
}

func TestEmit_SwallowsPublishErrors(t *testing.T) {
	pub := &failingPublisher{}

	Emit(context.Background(), pub, zap.NewNop(), CollectionUsers, "u1", sampleDoc{ID: "u1"})
	EmitDeleted(context.Background(), pub, zap.NewNop(), CollectionUsers, "u1")

	assert.Equal(t, 2, pub.calls)
}
