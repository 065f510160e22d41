package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// User represents an IncomingClass member stored in PostgreSQL
type User struct {
	ID                  uint           `json:"id" gorm:"primaryKey"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"-"`
	DeletedAt           gorm.DeletedAt `json:"-" gorm:"index"`
	Name                string         `json:"name"`
	Email               string         `json:"email" gorm:"uniqueIndex"` // Ensure email is unique across all users
	Password            string         `json:"-"`                        // Store hashed password, ignore for JSON serialization
	FirebaseUID         string         `json:"firebase_uid,omitempty" gorm:"uniqueIndex"`
	College             string         `json:"college" gorm:"index"`
	Hometown            string         `json:"hometown"`
	AvatarURL           string         `json:"avatar_url"`
	Bio                 string         `json:"bio"`
	SubstancePreference string         `json:"substance_preference"` // one of "sober", "social", "party"
	PersonalityTags     []string       `json:"personality_tags" gorm:"serializer:json"`
	ProfileCompleted    bool           `json:"profile_completed"`
	Subscribed          bool           `json:"subscribed"`
}

// UserCompact is the author shape embedded in feed responses
type UserCompact struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	College   string `json:"college"`
}

// ToCompact converts a User into its feed author representation
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:        u.ID,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
		College:   u.College,
	}
}

// HasCompleteProfile reports whether every onboarding step has been filled in.
// The profile wizard collects name, college, hometown, a substance preference
// and at least one personality tag.
func (u *User) HasCompleteProfile() bool {
	return u.Name != "" &&
		u.College != "" &&
		u.Hometown != "" &&
		u.SubstancePreference != "" &&
		len(u.PersonalityTags) > 0
}

// SignupRequest defines the request body for local registration
type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// SignInRequest defines the request body for local authentication
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest defines the request body for the profile wizard steps.
// All fields are optional; each call updates the provided subset.
type UpdateProfileRequest struct {
	Name                string   `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	College             string   `json:"college,omitempty" validate:"omitempty,max=120"`
	Hometown            string   `json:"hometown,omitempty" validate:"omitempty,max=120"`
	AvatarURL           string   `json:"avatar_url,omitempty" validate:"omitempty,url"`
	Bio                 string   `json:"bio,omitempty" validate:"omitempty,max=500"`
	SubstancePreference string   `json:"substance_preference,omitempty" validate:"omitempty,oneof=sober social party"`
	PersonalityTags     []string `json:"personality_tags,omitempty" validate:"omitempty,max=10,dive,min=1,max=30"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
