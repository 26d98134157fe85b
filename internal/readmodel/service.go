// Package readmodel composes the documents the pages render: listings with
// their owner and comment count, comments with relative times, and profiles
// relative to the viewer. Each referenced lookup is an independent read, so
// composed fields may reflect slightly different moments.
package readmodel

import (
	"context"
	"errors"
	"time"

	"fishtopia_backend/internal/comment"
	"fishtopia_backend/internal/common"
	"fishtopia_backend/internal/listing"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// ListingSource reads listings.
type ListingSource interface {
	GetListing(ctx context.Context, id string) (*listing.Listing, error)
	ListRecent(ctx context.Context, limit int) ([]listing.Listing, error)
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]listing.Listing, *common.Pagination, error)
}

// CommentSource reads comments.
type CommentSource interface {
	ListForListing(ctx context.Context, listingID string) ([]comment.Comment, error)
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]comment.Comment, *common.Pagination, error)
	CountForListing(ctx context.Context, listingID string) (int64, error)
}

// FriendSource answers relation questions between two users.
type FriendSource interface {
	AreFriends(ctx context.Context, a, b string) (bool, error)
	HasPendingRequest(ctx context.Context, senderID, receiverID string) (bool, error)
}

// Service builds the composed read models.
type Service interface {
	Listing(ctx context.Context, viewer *common.Actor, id string) (*ListingView, error)
	RecentListings(ctx context.Context, viewer *common.Actor, limit int) ([]ListingView, error)
	UserListings(ctx context.Context, viewer *common.Actor, userID string, page, pageSize int) ([]ListingView, *common.Pagination, error)
	ListingComments(ctx context.Context, listingID string) ([]CommentView, error)
	Profile(ctx context.Context, viewer *common.Actor, userID string, page, pageSize int) (*ProfileView, error)
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	listings ListingSource
	comments CommentSource
	friends  FriendSource
	users    UserLookup
	owners   *OwnerResolver
	now      func() time.Time
	logger   *zap.Logger
}

// NewService creates a read model service.
func NewService(listings ListingSource, comments CommentSource, friends FriendSource, users UserLookup, owners *OwnerResolver, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		listings: listings,
		comments: comments,
		friends:  friends,
		users:    users,
		owners:   owners,
		now:      time.Now,
		logger:   logger.Named("readmodel_service"),
	}
}

func (s *ServiceImplementation) relative(t time.Time) string {
	return humanize.RelTime(t, s.now(), "ago", "from now")
}

func (s *ServiceImplementation) listingView(ctx context.Context, viewer *common.Actor, l listing.Listing) ListingView {
	owner := s.owners.Owner(ctx, l.UserRef)
	count, err := s.comments.CountForListing(ctx, l.ID)
	if err != nil {
		// A failed count renders as zero rather than failing the page.
		s.logger.Warn("Failed to count comments", zap.String("listingID", l.ID), zap.Error(err))
	}
	if l.LikedBy == nil {
		l.LikedBy = []string{}
	}
	return ListingView{
		Listing:            l,
		OwnerName:          owner.Name,
		OwnerAvatar:        owner.AvatarURL,
		CommentsCount:      count,
		LikedByCurrentUser: l.LikedByUser(viewer.ID()),
	}
}

func (s *ServiceImplementation) listingViews(ctx context.Context, viewer *common.Actor, listings []listing.Listing) []ListingView {
	views := make([]ListingView, 0, len(listings))
	for _, l := range listings {
		views = append(views, s.listingView(ctx, viewer, l))
	}
	return views
}

func (s *ServiceImplementation) Listing(ctx context.Context, viewer *common.Actor, id string) (*ListingView, error) {
	l, err := s.listings.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}
	view := s.listingView(ctx, viewer, *l)
	return &view, nil
}

func (s *ServiceImplementation) RecentListings(ctx context.Context, viewer *common.Actor, limit int) ([]ListingView, error) {
	listings, err := s.listings.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return s.listingViews(ctx, viewer, listings), nil
}

func (s *ServiceImplementation) UserListings(ctx context.Context, viewer *common.Actor, userID string, page, pageSize int) ([]ListingView, *common.Pagination, error) {
	listings, pagination, err := s.listings.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, nil, err
	}
	return s.listingViews(ctx, viewer, listings), pagination, nil
}

func (s *ServiceImplementation) commentView(c comment.Comment) CommentView {
	ordered := c.OrderedReplies()
	replies := make([]ReplyView, 0, len(ordered))
	for _, r := range ordered {
		replies = append(replies, ReplyView{Reply: r, RelativeTime: s.relative(r.Timestamp)})
	}
	return CommentView{
		Comment:      c,
		RelativeTime: s.relative(c.Timestamp),
		Replies:      replies,
	}
}

func (s *ServiceImplementation) commentViews(comments []comment.Comment) []CommentView {
	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, s.commentView(c))
	}
	return views
}

func (s *ServiceImplementation) ListingComments(ctx context.Context, listingID string) ([]CommentView, error) {
	comments, err := s.comments.ListForListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	return s.commentViews(comments), nil
}

// Profile composes a user's profile page. A missing profile renders with the
// default name and avatar.
func (s *ServiceImplementation) Profile(ctx context.Context, viewer *common.Actor, userID string, page, pageSize int) (*ProfileView, error) {
	view := &ProfileView{Profile: ProfileSummary{ID: userID}}

	u, err := s.users.GetByID(ctx, userID)
	switch {
	case err == nil:
		view.Profile.Name = u.Name
		view.Profile.AvatarURL = u.AvatarURL
		ts := u.Timestamp
		view.Profile.Timestamp = &ts
	case errors.Is(err, common.ErrNotFound):
	default:
		return nil, err
	}
	defaults := s.owners.withDefaults(Owner{Name: view.Profile.Name, AvatarURL: view.Profile.AvatarURL})
	view.Profile.Name, view.Profile.AvatarURL = defaults.Name, defaults.AvatarURL

	listings, pagination, err := s.UserListings(ctx, viewer, userID, page, pageSize)
	if err != nil {
		return nil, err
	}
	view.Listings, view.ListingsPage = listings, pagination

	comments, _, err := s.comments.ListByUser(ctx, userID, 1, pageSize)
	if err != nil {
		return nil, err
	}
	view.Comments = s.commentViews(comments)

	if viewer.ID() != "" && !viewer.Is(userID) {
		if view.IsFriend, err = s.friends.AreFriends(ctx, viewer.ID(), userID); err != nil {
			return nil, err
		}
		if view.HasPendingRequest, err = s.friends.HasPendingRequest(ctx, viewer.ID(), userID); err != nil {
			return nil, err
		}
	}
	return view, nil
}
