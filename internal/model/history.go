package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionResult records the outcome of one question within a submission.
type QuestionResult struct {
	QuestionID       uuid.UUID `json:"question_id"`
	SelectedAnswer   string    `json:"selected_answer"`
	CorrectAnswer    string    `json:"correct_answer"`
	IsCorrect        bool      `json:"is_correct"`
	TimeSpentSeconds int       `json:"time_spent_seconds"`
}

// ExamHistory is the persisted record of one graded exam submission.
// It is write-once: constructed at submit time and never mutated.
type ExamHistory struct {
	ID               uuid.UUID        `json:"id"`
	ExamID           uuid.UUID        `json:"exam_id"`
	ExamTitle        string           `json:"exam_title,omitempty"`
	SubjectName      string           `json:"subject_name,omitempty"`
	UserID           int              `json:"user_id"`
	Score            int              `json:"score"`
	CorrectCount     int              `json:"correct_count"`
	IncorrectCount   int              `json:"incorrect_count"`
	UnansweredCount  int              `json:"unanswered_count"`
	TotalQuestions   int              `json:"total_questions"`
	TimeTakenSeconds int              `json:"time_taken_seconds"`
	Results          []QuestionResult `json:"results,omitempty"`
	SubmittedAt      time.Time        `json:"submitted_at"`
}

// SubmittedAnswer is one entry of a client-assembled submission.
type SubmittedAnswer struct {
	QuestionID       uuid.UUID `json:"question_id" binding:"required"`
	SelectedAnswer   string    `json:"selected_answer"`
	TimeSpentSeconds int       `json:"time_spent_seconds" binding:"min=0"`
}

// SubmitHistoryRequest is the payload for POST /exam-history.
// Correctness and score claimed by the client are ignored; the server
// re-grades against the stored answer key.
type SubmitHistoryRequest struct {
	ExamID           uuid.UUID         `json:"exam_id" binding:"required"`
	TimeTakenSeconds int               `json:"time_taken_seconds" binding:"min=0"`
	Answers          []SubmittedAnswer `json:"answers" binding:"dive"`
}
