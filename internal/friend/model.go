package friend

import "time"

// RequestStatus is the state of a friend request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusRejected RequestStatus = "rejected"
)

// FriendRequest moves from pending to accepted or rejected exactly once.
type FriendRequest struct {
	ID         string        `gorm:"type:varchar(64);primaryKey" json:"id"`
	SenderID   string        `gorm:"column:sender_id;type:varchar(128);not null;index:idx_friend_requests_pair" json:"senderId"`
	ReceiverID string        `gorm:"column:receiver_id;type:varchar(128);not null;index:idx_friend_requests_pair;index" json:"receiverId"`
	Status     RequestStatus `gorm:"type:varchar(16);not null;default:pending;index" json:"status"`
	Timestamp  time.Time     `gorm:"not null" json:"timestamp"`
}

// TableName specifies the table name for GORM.
func (FriendRequest) TableName() string {
	return "friendRequests"
}

// Friendship is one direction of a friendship. Accepting a request writes
// both directions so a lookup from either side is a single equality match.
type Friendship struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	User1     string    `gorm:"column:user1;type:varchar(128);not null;uniqueIndex:idx_friends_pair" json:"user1"`
	User2     string    `gorm:"column:user2;type:varchar(128);not null;uniqueIndex:idx_friends_pair" json:"user2"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
}

// TableName specifies the table name for GORM.
func (Friendship) TableName() string {
	return "friends"
}

// --- DTOs ---

// SendRequest is the body of POST /friends/requests.
type SendRequest struct {
	ReceiverID string `json:"receiverId" binding:"required"`
}

// StatusResponse describes the relation between the viewer and another user.
type StatusResponse struct {
	UserID            string `json:"userId"`
	IsFriend          bool   `json:"isFriend"`
	HasPendingRequest bool   `json:"hasPendingRequest"`
}
