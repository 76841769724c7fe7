package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is a profile row in PostgreSQL. FirebaseUID links the row to the
// external identity subject; all graph edges are keyed by the internal ID.
type User struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	FirebaseUID string  `json:"firebase_uid,omitempty" gorm:"uniqueIndex"`
	Email       string  `json:"email" gorm:"uniqueIndex"`
	Password    string  `json:"-"` // hashed, only set for local accounts
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Username    *string `json:"username" gorm:"index"`
	Bio         string  `json:"bio"`
	WebsiteURL  string  `json:"website_url"`
	Location    string  `json:"location"`
	// ImageRef holds either a full URL or an opaque storage handle.
	// storage.ParseMediaRef disambiguates at the read boundary.
	ImageRef       string `json:"image_ref"`
	FollowersCount int    `json:"followers_count" gorm:"default:0"`
	IsPrivate      bool   `json:"is_private" gorm:"default:false"`
	PushToken      string `json:"push_token,omitempty"`

	// Education attributes, free text.
	College  string `json:"college,omitempty"`
	Course   string `json:"course,omitempty"`
	Branch   string `json:"branch,omitempty"`
	Semester string `json:"semester,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserCompact is the creator payload inlined into feed items.
type UserCompact struct {
	ID             uint    `json:"id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Username       *string `json:"username"`
	ImageURL       string  `json:"image_url,omitempty"`
	FollowersCount int     `json:"followers_count"`
	IsPrivate      bool    `json:"is_private"`
}

// ToCompact strips a user down to the fields feed items embed. The image
// reference is passed through unresolved; callers resolve it for display.
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:             u.ID,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Username:       u.Username,
		ImageURL:       u.ImageRef,
		FollowersCount: u.FollowersCount,
		IsPrivate:      u.IsPrivate,
	}
}

// SyncUserRequest is sent after a provider-side sign-in to upsert the profile.
type SyncUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name,omitempty" validate:"omitempty,max=50"`
	LastName  string `json:"last_name,omitempty" validate:"omitempty,max=50"`
	ImageRef  string `json:"image_ref,omitempty"`
}

type CreateLocalUserRequest struct {
	FirstName string `json:"first_name" validate:"required,min=1,max=50"`
	LastName  string `json:"last_name,omitempty" validate:"omitempty,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest patches the caller's own profile. Pointer fields
// distinguish "not sent" from "clear".
type UpdateProfileRequest struct {
	FirstName  *string `json:"first_name,omitempty" validate:"omitempty,max=50"`
	LastName   *string `json:"last_name,omitempty" validate:"omitempty,max=50"`
	Username   *string `json:"username,omitempty" validate:"omitempty,min=2,max=30"`
	Bio        *string `json:"bio,omitempty" validate:"omitempty,max=200"`
	WebsiteURL *string `json:"website_url,omitempty" validate:"omitempty,max=200"`
	Location   *string `json:"location,omitempty" validate:"omitempty,max=100"`
	ImageRef   *string `json:"image_ref,omitempty"`
	IsPrivate  *bool   `json:"is_private,omitempty"`
	PushToken  *string `json:"push_token,omitempty"`
	College    *string `json:"college,omitempty" validate:"omitempty,max=100"`
	Course     *string `json:"course,omitempty" validate:"omitempty,max=100"`
	Branch     *string `json:"branch,omitempty" validate:"omitempty,max=20"`
	Semester   *string `json:"semester,omitempty" validate:"omitempty,max=20"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
