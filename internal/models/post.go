package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Reaction kinds a post accepts
const (
	ReactionLikes    = "likes"
	ReactionLove     = "love"
	ReactionDislikes = "dislikes"
	ReactionAnger    = "anger"
)

// ValidReaction reports whether kind names a reaction counter
func ValidReaction(kind string) bool {
	switch kind {
	case ReactionLikes, ReactionLove, ReactionDislikes, ReactionAnger:
		return true
	}
	return false
}

// MediaAttachment describes one uploaded file attached to a post
type MediaAttachment struct {
	URL  string `json:"url"`
	Type string `json:"type"` // image, video, audio
	Size int64  `json:"size"`
}

// Post represents a shared update with optional media
type Post struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Content string            `gorm:"type:text" json:"content"`
	Media   []MediaAttachment `gorm:"type:jsonb;serializer:json" json:"media,omitempty"`

	// Reaction counters
	Likes    int `gorm:"default:0" json:"likes"`
	Love     int `gorm:"default:0" json:"love"`
	Dislikes int `gorm:"default:0" json:"dislikes"`
	Anger    int `gorm:"default:0" json:"anger"`

	// User IDs that have seen this post
	Impressions pq.StringArray `gorm:"type:text[]" json:"impressions"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}
