package model

import (
	"time"

	"github.com/google/uuid"
)

// Comment is one node of a question's discussion tree. Top-level comments
// may carry a 1-5 star rating; replies reference their parent and never
// nest deeper than one level.
type Comment struct {
	ID              uuid.UUID  `json:"id"`
	QuestionID      uuid.UUID  `json:"question_id"`
	UserID          int        `json:"user_id"`
	UserName        string     `json:"user_name,omitempty"`
	Content         string     `json:"content"`
	Rating          *int       `json:"rating,omitempty"`
	ParentCommentID *uuid.UUID `json:"parent_comment_id"`
	ReplyCount      int        `json:"reply_count"`
	Replies         []Comment  `json:"replies,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// CreateCommentRequest is the payload for posting a comment or reply.
type CreateCommentRequest struct {
	QuestionID      uuid.UUID  `json:"question_id" binding:"required"`
	Content         string     `json:"content" binding:"required,min=1,max=2000"`
	ParentCommentID *uuid.UUID `json:"parent_comment_id" binding:"omitempty"`
	Rating          *int       `json:"rating" binding:"omitempty,min=1,max=5"`
}
