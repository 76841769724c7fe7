package models

import "time"

// SavedPost represents a bookmarked post. Same toggle semantics as Like
// but with no counter side effect on the post.
type SavedPost struct {
	ID      uint      `json:"id" gorm:"primaryKey"`
	UserID  uint      `json:"user_id" gorm:"index;uniqueIndex:idx_user_post_save"`
	PostID  string    `json:"post_id" gorm:"index;uniqueIndex:idx_user_post_save"`
	SavedAt time.Time `json:"saved_at" gorm:"autoCreateTime"`
}
