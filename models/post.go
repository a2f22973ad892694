package models

import "time"

// Post types supported by the feed.
const (
	PostTypeText = "text"
	PostTypeLink = "link"
	PostTypeReel = "reel"
)

// Processing lifecycle states for reel posts. Transitions are forward only:
// PENDING -> PROCESSING -> READY or FAILED.
const (
	ProcessingPending    = "PENDING"
	ProcessingInProgress = "PROCESSING"
	ProcessingReady      = "READY"
	ProcessingFailed     = "FAILED"
)

// Post represents a feed post created by a user. Reel posts carry video
// processing state mutated only by the transcode worker.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Type      string    `gorm:"size:16;not null;default:'text';index" json:"type"`
	Title     string    `gorm:"size:255" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Link post fields
	LinkURL      string `gorm:"size:1024" json:"link_url,omitempty"`
	LinkMetadata string `gorm:"type:text" json:"link_metadata,omitempty"` // JSON snapshot of the resolved preview

	// Reel post fields
	VideoURL         string `gorm:"size:1024" json:"video_url,omitempty"`    // canonical delivery URL
	OriginalURL      string `gorm:"size:1024" json:"original_url,omitempty"` // raw upload, preserved after processing
	ProcessedURL     string `gorm:"size:1024" json:"processed_url,omitempty"`
	ProcessingStatus string `gorm:"size:16;index" json:"processing_status,omitempty"`
	Resolution       string `gorm:"size:16" json:"resolution,omitempty"`
	WatermarkApplied bool   `json:"watermark_applied,omitempty"`

	User User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
}
