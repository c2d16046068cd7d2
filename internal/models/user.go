package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StringArray is a custom type for PostgreSQL text[] that implements Scanner and Valuer
type StringArray []string

// Scan implements the sql.Scanner interface for reading from database
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	// PostgreSQL returns text[] as a string like "{value1,value2,value3}"
	str, ok := value.(string)
	if !ok {
		// Try []byte
		if bytes, ok := value.([]byte); ok {
			str = string(bytes)
		} else {
			*a = nil
			return nil
		}
	}

	// Remove the curly braces
	str = strings.TrimPrefix(str, "{")
	str = strings.TrimSuffix(str, "}")

	if str == "" {
		*a = []string{}
		return nil
	}

	// Split by comma (simple case - doesn't handle quoted values with commas)
	*a = strings.Split(str, ",")
	return nil
}

// Value implements the driver.Valuer interface for writing to database
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	if len(a) == 0 {
		return "{}", nil
	}
	return "{" + strings.Join(a, ",") + "}", nil
}

// SocialLinks stores a user's external profile links
type SocialLinks struct {
	Twitter   string `json:"twitter,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
	Website   string `json:"website,omitempty"`
}

// User represents a Voisoc member account
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`

	FirstName  string `gorm:"not null" json:"first_name"`
	MiddleName string `json:"middle_name,omitempty"`
	LastName   string `gorm:"not null" json:"last_name"`
	Country    string `json:"country"`

	// Auth fields
	PasswordHash     string  `gorm:"type:text;not null" json:"-"`
	EmailVerified    bool    `gorm:"default:false" json:"email_verified"`
	EmailVerifyToken *string `gorm:"type:text" json:"-"`
	IsAdmin          bool    `gorm:"default:false" json:"-"`

	// Profile data
	Headline    string       `gorm:"type:text" json:"headline"`
	About       string       `gorm:"type:text" json:"about"`
	Location    string       `gorm:"type:text" json:"location"`
	Website     string       `json:"website"`
	AvatarURL   string       `json:"avatar_url"`
	Interests   StringArray  `gorm:"type:text[]" json:"interests"`
	SocialLinks *SocialLinks `gorm:"type:jsonb;serializer:json" json:"social_links"`

	// Cached social stats; source of truth is the follows table
	FollowerCount  int `gorm:"default:0" json:"follower_count"`
	FollowingCount int `gorm:"default:0" json:"following_count"`
	PostCount      int `gorm:"default:0" json:"post_count"`

	// Activity tracking
	LastActiveAt *time.Time `json:"last_active_at"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Session mirrors a Redis login session so sessions survive a cache flush
type Session struct {
	ID        string         `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string         `gorm:"not null;index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"-"`
	Token     string         `gorm:"type:text;not null" json:"-"`
	UserAgent string         `json:"user_agent,omitempty"`
	ClientIP  string         `json:"client_ip,omitempty"`
	ExpiresAt time.Time      `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// PasswordReset is a single-use reset token
type PasswordReset struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// PublicProfile is the user shape exposed to other members
type PublicProfile struct {
	ID             string      `json:"id"`
	Username       string      `json:"username"`
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	Country        string      `json:"country"`
	Headline       string      `json:"headline"`
	About          string      `json:"about"`
	Location       string      `json:"location"`
	Website        string      `json:"website"`
	AvatarURL      string      `json:"avatar_url"`
	Interests      StringArray `json:"interests"`
	FollowerCount  int         `json:"follower_count"`
	FollowingCount int         `json:"following_count"`
	PostCount      int         `json:"post_count"`
	CreatedAt      time.Time   `json:"created_at"`
}

// PublicProfile strips auth and contact fields from a User
func (u *User) PublicProfile() *PublicProfile {
	return &PublicProfile{
		ID:             u.ID,
		Username:       u.Username,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Country:        u.Country,
		Headline:       u.Headline,
		About:          u.About,
		Location:       u.Location,
		Website:        u.Website,
		AvatarURL:      u.AvatarURL,
		Interests:      u.Interests,
		FollowerCount:  u.FollowerCount,
		FollowingCount: u.FollowingCount,
		PostCount:      u.PostCount,
		CreatedAt:      u.CreatedAt,
	}
}

// FullName joins the user's name parts, skipping an empty middle name
func (u *User) FullName() string {
	parts := []string{u.FirstName}
	if u.MiddleName != "" {
		parts = append(parts, u.MiddleName)
	}
	parts = append(parts, u.LastName)
	return strings.Join(parts, " ")
}

// BeforeCreate hooks for GORM
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	return nil
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = generateUUID()
	}
	return nil
}

func (p *PasswordReset) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

func generateUUID() string {
	return uuid.New().String()
}
