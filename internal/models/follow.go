package models

import (
	"time"

	"gorm.io/gorm"
)

// Follow is a directed edge in the follow graph
type Follow struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	FollowerID string `gorm:"not null;uniqueIndex:idx_follows_pair,priority:1" json:"follower_id"`
	FolloweeID string `gorm:"not null;uniqueIndex:idx_follows_pair,priority:2;index" json:"followee_id"`

	Follower User `gorm:"foreignKey:FollowerID" json:"-"`
	Followee User `gorm:"foreignKey:FolloweeID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}
