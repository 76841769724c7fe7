package models

import "gorm.io/gorm"

// Follow request states. Accepted and rejected are terminal.
const (
	FollowRequestPending  = "pending"
	FollowRequestAccepted = "accepted"
	FollowRequestRejected = "rejected"
)

// FollowRequest is the approval gate for following a private account.
// At most one pending request exists per ordered (sender, receiver) pair.
type FollowRequest struct {
	gorm.Model
	SenderID   uint   `json:"sender_id" gorm:"index"`
	ReceiverID uint   `json:"receiver_id" gorm:"index"`
	Status     string `json:"status" gorm:"type:varchar(20);default:'pending'"`
}

// FollowRequestView inlines the sender's profile for the pending-requests list.
type FollowRequestView struct {
	ID        uint        `json:"id"`
	Sender    UserCompact `json:"sender"`
	CreatedAt int64       `json:"created_at"`
}
