package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is the unified content entity stored in MongoDB. Top-level posts,
// comments and nested replies share this document shape:
//
//   - ParentPostID set    => the document is a comment on that post
//   - ParentCommentID set => the document is a reply to that comment
//
// Lifecycle flags form a state machine: draft -> scheduled -> posted, or
// draft -> posted directly. IsPosted and IsScheduled are never both true.
type Post struct {
	ID              primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	UserID          uint                `json:"user_id" bson:"user_id"`
	ParentPostID    *primitive.ObjectID `json:"parent_post_id,omitempty" bson:"parent_post_id,omitempty"`
	ParentCommentID *primitive.ObjectID `json:"parent_comment_id,omitempty" bson:"parent_comment_id,omitempty"`
	Content         string              `json:"content" bson:"content"`
	WebsiteURL      string              `json:"website_url,omitempty" bson:"website_url,omitempty"`
	// MediaRefs are stored raw (URL or storage handle) and resolved to
	// displayable URLs at read time.
	MediaRefs []string `json:"media_refs,omitempty" bson:"media_refs,omitempty"`

	LikeCount    int `json:"like_count" bson:"like_count"`
	CommentCount int `json:"comment_count" bson:"comment_count"`
	RetweetCount int `json:"retweet_count" bson:"retweet_count"`

	ScheduledFor *time.Time `json:"scheduled_for,omitempty" bson:"scheduled_for,omitempty"`
	IsScheduled  bool       `json:"is_scheduled" bson:"is_scheduled"`
	IsPosted     bool       `json:"is_posted" bson:"is_posted"`
	IsDraft      bool       `json:"is_draft" bson:"is_draft"`

	// Poll fields. Duration and multiple-choice are stored but not
	// enforced on the vote path.
	IsPoll             bool     `json:"is_poll,omitempty" bson:"is_poll,omitempty"`
	PollQuestion       string   `json:"poll_question,omitempty" bson:"poll_question,omitempty"`
	PollOptions        []string `json:"poll_options,omitempty" bson:"poll_options,omitempty"`
	PollDurationHours  int      `json:"poll_duration_hours,omitempty" bson:"poll_duration_hours,omitempty"`
	PollMultipleChoice bool     `json:"poll_multiple_choice,omitempty" bson:"poll_multiple_choice,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// PollSpec carries poll fields on create/draft requests.
type PollSpec struct {
	Question       string   `json:"question" validate:"required,min=1,max=280"`
	Options        []string `json:"options" validate:"required,min=2,max=6,dive,min=1,max=80"`
	DurationHours  int      `json:"duration_hours,omitempty" validate:"omitempty,oneof=24 72 168"`
	MultipleChoice bool     `json:"multiple_choice,omitempty"`
}

// CreatePostRequest creates a post, comment or reply. ScheduledFor is a
// unix-millisecond timestamp; a future value schedules the post instead of
// publishing it immediately.
type CreatePostRequest struct {
	Content         string    `json:"content" validate:"omitempty,max=500"`
	MediaRefs       []string  `json:"media_refs,omitempty" validate:"omitempty,max=4"`
	WebsiteURL      string    `json:"website_url,omitempty" validate:"omitempty,max=200"`
	ParentPostID    string    `json:"parent_post_id,omitempty"`
	ParentCommentID string    `json:"parent_comment_id,omitempty"`
	ScheduledFor    int64     `json:"scheduled_for,omitempty"`
	Poll            *PollSpec `json:"poll,omitempty"`
}

// SaveDraftRequest upserts a draft. DraftID selects an existing draft to
// patch in place; when absent a new draft is inserted.
type SaveDraftRequest struct {
	DraftID      string    `json:"draft_id,omitempty"`
	Content      string    `json:"content" validate:"omitempty,max=500"`
	MediaRefs    []string  `json:"media_refs,omitempty" validate:"omitempty,max=4"`
	WebsiteURL   string    `json:"website_url,omitempty" validate:"omitempty,max=200"`
	ParentPostID string    `json:"parent_post_id,omitempty"`
	Poll         *PollSpec `json:"poll,omitempty"`
}

// VotePollRequest casts, retracts or moves the caller's vote.
type VotePollRequest struct {
	OptionIndex int `json:"option_index" validate:"min=0"`
}
