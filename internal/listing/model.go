// File: internal/listing/model.go
package listing

import (
	"time"

	"fishtopia_backend/internal/common"
)

// Listing is a fish species record posted by a user.
// LikedBy is stored in the listing_likes table and always has Likes entries.
type Listing struct {
	ID                 string            `gorm:"type:varchar(64);primaryKey" json:"id"`
	UserRef            string            `gorm:"column:user_ref;type:varchar(128);not null;index" json:"userRef"`
	Title              string            `gorm:"type:varchar(255);not null" json:"title"`
	Name               string            `gorm:"type:varchar(255)" json:"name"`
	Country            string            `gorm:"type:varchar(100)" json:"country"`
	Risk               string            `gorm:"type:varchar(100)" json:"risk"`
	Length             string            `gorm:"type:varchar(50)" json:"length"`
	Weight             string            `gorm:"type:varchar(50)" json:"weight"`
	Description        string            `gorm:"type:text" json:"description"`
	ImgURLs            common.StringList `gorm:"column:img_urls;type:text" json:"imgUrls"`
	Latitude           *float64          `json:"latitude,omitempty"`
	Longitude          *float64          `json:"longitude,omitempty"`
	GeolocationEnabled bool              `gorm:"column:geolocation_enabled;not null" json:"geolocationEnabled"`
	Likes              int               `gorm:"not null" json:"likes"`
	LikedBy            []string          `gorm:"-" json:"likedBy"`
	Timestamp          time.Time         `gorm:"not null;index" json:"timestamp"`
}

// TableName specifies the table name for GORM.
func (Listing) TableName() string {
	return "listings"
}

// Like records that a user likes a listing. The pair is unique.
type Like struct {
	ListingID string    `gorm:"primaryKey;type:varchar(64)"`
	UserID    string    `gorm:"primaryKey;type:varchar(128)"`
	Timestamp time.Time `gorm:"not null"`
}

// TableName specifies the table name for GORM.
func (Like) TableName() string {
	return "listing_likes"
}

// LikedByUser reports whether userID is in LikedBy.
func (l *Listing) LikedByUser(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range l.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// --- DTOs ---

// CreateListingRequest holds the form fields of a new listing. Images travel
// as multipart files under the "images" field.
type CreateListingRequest struct {
	Title              string   `form:"title" json:"title" binding:"required,max=255"`
	Name               string   `form:"name" json:"name" binding:"required,max=255"`
	Country            string   `form:"country" json:"country" binding:"omitempty,max=100"`
	Risk               string   `form:"risk" json:"risk" binding:"omitempty,max=100"`
	Length             string   `form:"length" json:"length" binding:"omitempty,max=50"`
	Weight             string   `form:"weight" json:"weight" binding:"omitempty,max=50"`
	Description        string   `form:"description" json:"description" binding:"required"`
	Latitude           *float64 `form:"latitude" json:"latitude" binding:"omitempty,latitude"`
	Longitude          *float64 `form:"longitude" json:"longitude" binding:"omitempty,longitude"`
	GeolocationEnabled bool     `form:"geolocationEnabled" json:"geolocationEnabled"`
}

// UpdateListingRequest holds the editable fields. Nil fields are left unchanged.
// New images, when sent, replace the current ones.
type UpdateListingRequest struct {
	Title              *string  `form:"title" json:"title" binding:"omitempty,min=1,max=255"`
	Name               *string  `form:"name" json:"name" binding:"omitempty,min=1,max=255"`
	Country            *string  `form:"country" json:"country" binding:"omitempty,max=100"`
	Risk               *string  `form:"risk" json:"risk" binding:"omitempty,max=100"`
	Length             *string  `form:"length" json:"length" binding:"omitempty,max=50"`
	Weight             *string  `form:"weight" json:"weight" binding:"omitempty,max=50"`
	Description        *string  `form:"description" json:"description"`
	Latitude           *float64 `form:"latitude" json:"latitude" binding:"omitempty,latitude"`
	Longitude          *float64 `form:"longitude" json:"longitude" binding:"omitempty,longitude"`
	GeolocationEnabled *bool    `form:"geolocationEnabled" json:"geolocationEnabled"`
}

// LikeResult is the state of a listing's likes after a toggle.
type LikeResult struct {
	ListingID string `json:"listingId"`
	Liked     bool   `json:"liked"`
	Likes     int    `json:"likes"`
}
