package model

import (
	"github.com/google/uuid"
)

// Question represents a single exam question.
type Question struct {
	ID            uuid.UUID `json:"id"`
	ExamID        uuid.UUID `json:"exam_id"`
	Text          string    `json:"text"`
	Options       []string  `json:"options"`
	CorrectAnswer string    `json:"correct_answer"`
	Explanation   *string   `json:"explanation,omitempty"`
	ImageURL      *string   `json:"image_url,omitempty"`
	Formula       *string   `json:"formula,omitempty"`
	Difficulty    *string   `json:"difficulty,omitempty"`
	Chapter       *string   `json:"chapter,omitempty"`
	GradeLevel    *string   `json:"grade_level,omitempty"`
	OrderNum      int       `json:"order_num"`
}

// AddQuestionRequest is the payload for adding a question to an exam.
type AddQuestionRequest struct {
	Text          string   `json:"text" binding:"required,min=1,max=4000"`
	Options       []string `json:"options" binding:"required,min=2,max=8,dive,required"`
	CorrectAnswer string   `json:"correct_answer" binding:"required,max=500"`
	Explanation   *string  `json:"explanation" binding:"omitempty,max=4000"`
	ImageURL      *string  `json:"image_url" binding:"omitempty,url"`
	Formula       *string  `json:"formula" binding:"omitempty,max=1000"`
	Difficulty    *string  `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Chapter       *string  `json:"chapter" binding:"omitempty,max=200"`
	GradeLevel    *string  `json:"grade_level" binding:"omitempty,max=50"`
	OrderNum      int      `json:"order_num" binding:"min=0"`
}

// ReplaceQuestionsRequest is the payload for bulk replacing an exam's questions.
type ReplaceQuestionsRequest struct {
	Questions []AddQuestionRequest `json:"questions" binding:"dive"`
}
