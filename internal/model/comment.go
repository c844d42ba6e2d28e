package model

import "time"

// Comment is a user comment on a memory. The comments table is the single
// source of truth; counts are computed per query, never denormalized.
type Comment struct {
	ID         int       `json:"id"`
	MemoryID   int       `json:"memory_id"`
	UserEmail  string    `json:"user_email"`
	UserName   string    `json:"user_name"`
	UserAvatar string    `json:"user_avatar,omitempty"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// AddCommentRequest is the payload for posting a comment.
type AddCommentRequest struct {
	Text string `json:"text" binding:"required,min=1,max=1000"`
}
