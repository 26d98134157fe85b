package comment

import (
	"sort"
	"time"
)

// Comment is a comment on a listing. The author fields are a snapshot taken
// when the comment was posted and are not refreshed when the profile changes.
type Comment struct {
	ID         string           `gorm:"type:varchar(64);primaryKey" json:"id"`
	ListingRef string           `gorm:"column:listing_ref;type:varchar(64);not null;index" json:"listingRef"`
	UserID     string           `gorm:"column:user_id;type:varchar(128);not null;index" json:"userId"`
	FullName   string           `gorm:"column:full_name;type:varchar(255)" json:"fullName"`
	AvatarURL  string           `gorm:"column:avatar_url;type:text" json:"avatarUrl"`
	Text       string           `gorm:"type:text;not null" json:"text"`
	Timestamp  time.Time        `gorm:"not null;index" json:"timestamp"`
	ReplyList  []Reply          `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE" json:"-"`
	Replies    map[string]Reply `gorm:"-" json:"replies"`
}

// TableName specifies the table name for GORM.
func (Comment) TableName() string {
	return "comments"
}

// Reply is one entry of a comment's replies, keyed by its generated id.
type Reply struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	CommentID string    `gorm:"column:comment_id;type:varchar(64);not null;index" json:"-"`
	UserID    string    `gorm:"column:user_id;type:varchar(128);not null" json:"userId"`
	FullName  string    `gorm:"column:full_name;type:varchar(255)" json:"fullName"`
	AvatarURL string    `gorm:"column:avatar_url;type:text" json:"avatarUrl"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
}

// TableName specifies the table name for GORM.
func (Reply) TableName() string {
	return "comment_replies"
}

// OrderedReplies returns the replies in insertion order.
func (c *Comment) OrderedReplies() []Reply {
	out := make([]Reply, 0, len(c.Replies))
	for _, r := range c.Replies {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func (c *Comment) indexReplies() {
	c.Replies = make(map[string]Reply, len(c.ReplyList))
	for _, r := range c.ReplyList {
		c.Replies[r.ID] = r
	}
	c.ReplyList = nil
}

// --- DTOs ---

// TextRequest is the body of comment and reply writes.
type TextRequest struct {
	Text string `json:"text" binding:"required,max=5000"`
}
