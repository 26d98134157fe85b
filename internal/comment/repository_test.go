package comment

import (
	"context"
	"testing"
	"time"

	"fishtopia_backend/internal/common"
	"fishtopia_backend/internal/listing"
	"fishtopia_backend/internal/platform/database/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) Repository {
	t.Helper()
	db := dbtest.New(t, &listing.Listing{}, &listing.Like{}, &Comment{}, &Reply{})
	for _, id := range []string{"l1", "l2"} {
		require.NoError(t, db.Create(&listing.Listing{ID: id, UserRef: "owner", Title: "Trout", Name: "Trout", Description: "x", Timestamp: time.Now().UTC()}).Error)
	}
	return NewGORMRepository(db)
}

func seedComment(t *testing.T, repo Repository, id, listingID, userID string, at time.Time) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &Comment{
		ID: id, ListingRef: listingID, UserID: userID, Text: "text " + id, Timestamp: at,
	}))
}

func TestListByListing_NewestFirstWithRepliesInOrder(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	seedComment(t, repo, "c1", "l1", "u1", base)
	seedComment(t, repo, "c2", "l1", "u2", base.Add(time.Minute))
	seedComment(t, repo, "c3", "l2", "u2", base.Add(2*time.Minute))

	require.NoError(t, repo.AddReply(ctx, &Reply{ID: "r2", CommentID: "c1", UserID: "u3", Text: "second", Timestamp: base.Add(20 * time.Second)}))
	require.NoError(t, repo.AddReply(ctx, &Reply{ID: "r1", CommentID: "c1", UserID: "u2", Text: "first", Timestamp: base.Add(10 * time.Second)}))

	comments, err := repo.ListByListing(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "c2", comments[0].ID)
	assert.Equal(t, "c1", comments[1].ID)
	assert.Empty(t, comments[0].Replies)

	ordered := comments[1].OrderedReplies()
	require.Len(t, ordered, 2)
	assert.Equal(t, "r1", ordered[0].ID)
	assert.Equal(t, "r2", ordered[1].ID)
}

func TestListByUser_Paginates(t *testing.T) {
	repo := newTestRepository(t)
	base := time.Now().UTC()
	for i, id := range []string{"a", "b", "c"} {
		seedComment(t, repo, id, "l1", "u1", base.Add(time.Duration(i)*time.Second))
	}
	seedComment(t, repo, "other", "l1", "u2", base)

	comments, pagination, err := repo.ListByUser(context.Background(), "u1", 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, pagination.TotalItems)
	require.Len(t, comments, 2)
	assert.Equal(t, "c", comments[0].ID)
	assert.Equal(t, "b", comments[1].ID)
}

func TestDeleteForListing_RemovesCommentsAndReplies(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seedComment(t, repo, "c1", "l1", "u1", now)
	seedComment(t, repo, "c2", "l2", "u1", now)
	require.NoError(t, repo.AddReply(ctx, &Reply{ID: "r1", CommentID: "c1", UserID: "u2", Text: "x", Timestamp: now}))
	require.NoError(t, repo.AddReply(ctx, &Reply{ID: "r2", CommentID: "c2", UserID: "u2", Text: "y", Timestamp: now}))

	require.NoError(t, repo.DeleteForListing(ctx, "l1"))

	count, err := repo.CountByListing(ctx, "l1")
	require.NoError(t, err)
	assert.Zero(t, count)

	kept, err := repo.FindByID(ctx, "c2")
	require.NoError(t, err)
	assert.Contains(t, kept.Replies, "r2")

	assert.ErrorIs(t, repo.DeleteReply(ctx, "c1", "r1"), common.ErrNotFound)
}

func TestCreate_RequiresExistingListing(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	err := repo.Create(ctx, &Comment{ID: "c1", ListingRef: "deleted", UserID: "u1", Text: "hi", Timestamp: time.Now().UTC()})

	assert.ErrorIs(t, err, common.ErrNotFound)
	count, err := repo.CountByListing(ctx, "deleted")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUpdateText_Missing(t *testing.T) {
	repo := newTestRepository(t)

	err := repo.UpdateText(context.Background(), "nope", "x")

	assert.ErrorIs(t, err, common.ErrNotFound)
}
