package notification

import (
	"time"
)

// NotificationType classifies an inbox entry. Entries written without a type have none.
type NotificationType string

const (
	TypeComment               NotificationType = "comment"
	TypeFriendRequest         NotificationType = "friend_request"
	TypeFriendRequestAccepted NotificationType = "friend_request_accepted"
)

// Notification is one inbox entry. The optional fields are nil unless the
// writer supplied them and are left out of the JSON document.
type Notification struct {
	ID        string            `gorm:"type:varchar(64);primaryKey" json:"id"`
	UserRef   string            `gorm:"column:user_ref;type:varchar(128);not null;index:idx_inbox_user_read" json:"userRef"`
	Message   string            `gorm:"type:text;not null" json:"message"`
	IsRead    bool              `gorm:"column:is_read;not null;index:idx_inbox_user_read" json:"isRead"`
	Timestamp time.Time         `gorm:"not null;index" json:"timestamp"`
	Type      *NotificationType `gorm:"type:varchar(64)" json:"type,omitempty"`
	RequestID *string           `gorm:"column:request_id;type:varchar(64)" json:"requestId,omitempty"`
	SenderID  *string           `gorm:"column:sender_id;type:varchar(128)" json:"senderId,omitempty"`
	Href      *string           `gorm:"type:text" json:"href,omitempty"`
}

// TableName specifies the table name for GORM.
func (Notification) TableName() string {
	return "inboxes"
}

// NotifyOptions carries the optional fields of a notification. Empty values are not stored.
type NotifyOptions struct {
	Type      NotificationType
	RequestID string
	SenderID  string
	Href      string
}

// UnreadCountResponse is the body of the unread badge endpoint.
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
