package models

import "time"

// Like represents a like on a post. Uniqueness per (user, post) is enforced
// both by the toggle logic and by the composite unique index.
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_user_post_like"`
	PostID    string    `json:"post_id" gorm:"index;uniqueIndex:idx_user_post_like"` // MongoDB ObjectID as string
	CreatedAt time.Time `json:"created_at"`
}
