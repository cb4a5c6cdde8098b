package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/prepdesk/prepdesk-backend/internal/model"
	"github.com/prepdesk/prepdesk-backend/internal/repository"
)

// ErrQuestionNotFound is returned when an operation targets a question id
// that does not exist.
var ErrQuestionNotFound = errors.New("question not found")

// QuestionService handles question bank management.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	examService  *ExamService
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questionRepo *repository.QuestionRepository, examService *ExamService) *QuestionService {
	return &QuestionService{questionRepo: questionRepo, examService: examService}
}

// ListByExam retrieves an exam's questions in order.
func (s *QuestionService) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	return s.questionRepo.ListByExam(ctx, examID)
}

// GetByID retrieves one question.
func (s *QuestionService) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return s.questionRepo.GetByID(ctx, id)
}

// Add inserts a question into an exam and refreshes the exam cache.
func (s *QuestionService) Add(ctx context.Context, examID uuid.UUID, req *model.AddQuestionRequest) (*model.Question, error) {
	q := fromAddRequest(examID, req)
	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	if err := s.examService.refreshIfPublished(ctx, examID); err != nil {
		return nil, err
	}
	return q, nil
}

// ReplaceAll swaps an exam's full question set.
func (s *QuestionService) ReplaceAll(ctx context.Context, examID uuid.UUID, req *model.ReplaceQuestionsRequest) ([]model.Question, error) {
	questions := make([]model.Question, 0, len(req.Questions))
	for i := range req.Questions {
		questions = append(questions, *fromAddRequest(examID, &req.Questions[i]))
	}
	if err := s.questionRepo.ReplaceAll(ctx, examID, questions); err != nil {
		return nil, fmt.Errorf("replace questions: %w", err)
	}
	if err := s.examService.refreshIfPublished(ctx, examID); err != nil {
		return nil, err
	}
	return questions, nil
}

// Update modifies a question and refreshes the exam cache.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, req *model.AddQuestionRequest) error {
	existing, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get question: %w", err)
	}
	if existing == nil {
		return ErrQuestionNotFound
	}

	q := fromAddRequest(existing.ExamID, req)
	if err := s.questionRepo.Update(ctx, id, q); err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	return s.examService.refreshIfPublished(ctx, existing.ExamID)
}

// Delete removes a question and refreshes the exam cache.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID) error {
	existing, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get question: %w", err)
	}
	if existing == nil {
		return ErrQuestionNotFound
	}
	if err := s.questionRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return s.examService.refreshIfPublished(ctx, existing.ExamID)
}

func fromAddRequest(examID uuid.UUID, req *model.AddQuestionRequest) *model.Question {
	return &model.Question{
		ExamID:        examID,
		Text:          req.Text,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Explanation:   req.Explanation,
		ImageURL:      req.ImageURL,
		Formula:       req.Formula,
		Difficulty:    req.Difficulty,
		Chapter:       req.Chapter,
		GradeLevel:    req.GradeLevel,
		OrderNum:      req.OrderNum,
	}
}
