package app

import (
	"fishtopia_backend/internal/comment"
	"fishtopia_backend/internal/friend"
	"fishtopia_backend/internal/listing"
	"fishtopia_backend/internal/notification"
	"fishtopia_backend/internal/user"
)

// Models returns every table backing a collection, in migration order.
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&listing.Listing{},
		&listing.Like{},
		&comment.Comment{},
		&comment.Reply{},
		&notification.Notification{},
		&friend.FriendRequest{},
		&friend.Friendship{},
	}
}
