package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the possible states of an exam.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "DRAFT"
	ExamStatusPublished ExamStatus = "PUBLISHED"
	ExamStatusArchived  ExamStatus = "ARCHIVED"
)

// ExamType labels how an exam is meant to be taken.
type ExamType string

const (
	ExamTypeMockTest  ExamType = "MOCK_TEST"
	ExamTypePractice  ExamType = "PRACTICE"
	ExamTypePastPaper ExamType = "PAST_PAPER"
)

// Exam represents a mock test or practice set.
type Exam struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	SubjectID       uuid.UUID  `json:"subject_id"`
	SubjectName     string     `json:"subject_name,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	ExamType        ExamType   `json:"exam_type"`
	QuestionCount   int        `json:"question_count"`
	Status          ExamStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title           string    `json:"title" binding:"required,min=3,max=255"`
	SubjectID       uuid.UUID `json:"subject_id" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"required,min=1,max=480"`
	ExamType        string    `json:"exam_type" binding:"required,oneof=MOCK_TEST PRACTICE PAST_PAPER"`
}

// UpdateExamRequest is the payload for updating an existing exam.
type UpdateExamRequest struct {
	Title           string     `json:"title" binding:"omitempty,min=3,max=255"`
	SubjectID       *uuid.UUID `json:"subject_id" binding:"omitempty"`
	DurationMinutes int        `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	ExamType        string     `json:"exam_type" binding:"omitempty,oneof=MOCK_TEST PRACTICE PAST_PAPER"`
}

// ExamPayload is the Redis-cached question set for a published exam.
// Questions carry correct answers and explanations: this is a review-style
// practice product, and grading is still re-done server-side on submit.
type ExamPayload struct {
	ExamID          uuid.UUID  `json:"exam_id"`
	Title           string     `json:"title"`
	SubjectName     string     `json:"subject_name"`
	DurationMinutes int        `json:"duration_minutes"`
	ExamType        ExamType   `json:"exam_type"`
	Questions       []Question `json:"questions"`
}
