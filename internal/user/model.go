// File: internal/user/model.go
package user

import (
	"time"
)

// User is the profile document of an identity. ID is the identity provider's subject id.
type User struct {
	ID        string    `gorm:"type:varchar(128);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);index" json:"email"`
	AvatarURL string    `gorm:"column:avatar_url;type:text" json:"avatarUrl"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// --- DTOs (Data Transfer Objects) for API requests/responses ---

// SignUpRequest defines the structure for creating a new account.
type SignUpRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// UpdateProfileRequest holds the profile fields a user may edit.
type UpdateProfileRequest struct {
	Name *string `json:"name,omitempty" binding:"omitempty,min=1,max=100"`
}

// PasswordResetRequest asks for a reset link for an email address.
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// PasswordResetResponse carries the generated reset link.
type PasswordResetResponse struct {
	Link string `json:"link"`
}
