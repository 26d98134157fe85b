package friend

import (
	"context"
	"sync"
	"testing"
	"time"

	"fishtopia_backend/internal/common"
	"fishtopia_backend/internal/platform/database/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRequest_ConcurrentAcceptsResolveOnce(t *testing.T) {
	repo := NewGORMRepository(dbtest.New(t, &FriendRequest{}, &Friendship{}))
	ctx := context.Background()
	require.NoError(t, repo.CreateRequest(ctx, &FriendRequest{
		ID: "r1", SenderID: "u1", ReceiverID: "u2", Status: StatusPending, Timestamp: time.Now().UTC(),
	}))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.ResolveRequest(ctx, "r1", StatusAccepted)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if assert.ErrorIs(t, err, common.ErrConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 4, conflicts)

	forward, err := repo.ListFriends(ctx, "u1")
	require.NoError(t, err)
	backward, err := repo.ListFriends(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, forward, 1)
	assert.Len(t, backward, 1)
}

func TestResolveRequest_Missing(t *testing.T) {
	repo := NewGORMRepository(dbtest.New(t, &FriendRequest{}, &Friendship{}))

	_, err := repo.ResolveRequest(context.Background(), "nope", StatusRejected)

	assert.ErrorIs(t, err, common.ErrNotFound)
}
