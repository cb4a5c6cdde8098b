package model

import (
	"time"

	"github.com/google/uuid"
)

// Lesson is a study unit within a subject.
type Lesson struct {
	ID            uuid.UUID `json:"id"`
	SubjectID     uuid.UUID `json:"subject_id"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	AttachmentURL *string   `json:"attachment_url,omitempty"`
	OrderNum      int       `json:"order_num"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateLessonRequest is the payload for adding a lesson to a subject.
type CreateLessonRequest struct {
	Title         string  `json:"title" binding:"required,min=2,max=255"`
	Body          string  `json:"body" binding:"required"`
	AttachmentURL *string `json:"attachment_url" binding:"omitempty,url"`
	OrderNum      int     `json:"order_num" binding:"min=0"`
}

// UpdateLessonRequest is the payload for updating a lesson.
type UpdateLessonRequest struct {
	Title         string  `json:"title" binding:"required,min=2,max=255"`
	Body          string  `json:"body" binding:"required"`
	AttachmentURL *string `json:"attachment_url" binding:"omitempty,url"`
	OrderNum      int     `json:"order_num" binding:"min=0"`
}
