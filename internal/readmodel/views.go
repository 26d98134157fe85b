package readmodel

import (
	"time"

	"fishtopia_backend/internal/comment"
	"fishtopia_backend/internal/common"
	"fishtopia_backend/internal/listing"
)

// ListingView is a listing composed with its owner and comment count.
type ListingView struct {
	listing.Listing
	OwnerName          string `json:"ownerName"`
	OwnerAvatar        string `json:"ownerAvatar"`
	CommentsCount      int64  `json:"commentsCount"`
	LikedByCurrentUser bool   `json:"likedByCurrentUser"`
}

// ReplyView is a reply with its relative time.
type ReplyView struct {
	comment.Reply
	RelativeTime string `json:"relativeTime"`
}

// CommentView is a comment with relative times and its replies in order.
type CommentView struct {
	comment.Comment
	RelativeTime string      `json:"relativeTime"`
	Replies      []ReplyView `json:"replies"`
}

// ProfileSummary is the public part of a user profile.
type ProfileSummary struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	AvatarURL string     `json:"avatarUrl"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// ProfileView is a user's profile page relative to the viewer.
type ProfileView struct {
	Profile           ProfileSummary     `json:"profile"`
	Listings          []ListingView      `json:"listings"`
	ListingsPage      *common.Pagination `json:"listingsPagination"`
	Comments          []CommentView      `json:"comments"`
	IsFriend          bool               `json:"isFriend"`
	HasPendingRequest bool               `json:"hasPendingRequest"`
}
