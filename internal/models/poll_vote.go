package models

import "time"

// PollVote records a user's single vote on a poll post. At most one row
// exists per (user, poll); re-voting the same option deletes the row and
// voting a different option updates OptionIndex in place.
type PollVote struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	PollID      string    `json:"poll_id" gorm:"index;uniqueIndex:idx_user_poll_vote"`
	UserID      uint      `json:"user_id" gorm:"index;uniqueIndex:idx_user_poll_vote"`
	OptionIndex int       `json:"option_index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
