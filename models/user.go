package models

import "time"

// User represents a registered account.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:128;index" json:"email,omitempty"`
	Password  string    `gorm:"size:128;not null" json:"-"` // bcrypt hash
	AvatarURL string    `gorm:"size:1024" json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
