package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/prepdesk/prepdesk-backend/internal/model"
	"github.com/prepdesk/prepdesk-backend/internal/repository"
	"github.com/rs/zerolog"
)

// CatalogService handles subjects and lessons.
type CatalogService struct {
	subjectRepo *repository.SubjectRepository
	lessonRepo  *repository.LessonRepository
	log         zerolog.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(
	subjectRepo *repository.SubjectRepository,
	lessonRepo *repository.LessonRepository,
	log zerolog.Logger,
) *CatalogService {
	return &CatalogService{
		subjectRepo: subjectRepo,
		lessonRepo:  lessonRepo,
		log:         log.With().Str("component", "catalog_service").Logger(),
	}
}

// ListSubjects returns all subjects with counts.
func (s *CatalogService) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	return s.subjectRepo.List(ctx)
}

// GetSubject retrieves one subject.
func (s *CatalogService) GetSubject(ctx context.Context, id uuid.UUID) (*model.Subject, error) {
	return s.subjectRepo.GetByID(ctx, id)
}

// CreateSubject inserts a subject.
func (s *CatalogService) CreateSubject(ctx context.Context, req *model.CreateSubjectRequest) (*model.Subject, error) {
	subject := &model.Subject{Name: req.Name, Description: req.Description}
	if err := s.subjectRepo.Create(ctx, subject); err != nil {
		return nil, fmt.Errorf("create subject: %w", err)
	}
	return subject, nil
}

// UpdateSubject modifies a subject.
func (s *CatalogService) UpdateSubject(ctx context.Context, id uuid.UUID, req *model.UpdateSubjectRequest) error {
	return s.subjectRepo.Update(ctx, id, req)
}

// DeleteSubject removes a subject and everything under it.
func (s *CatalogService) DeleteSubject(ctx context.Context, id uuid.UUID) error {
	return s.subjectRepo.Delete(ctx, id)
}

// ListLessons returns a subject's lessons in display order.
func (s *CatalogService) ListLessons(ctx context.Context, subjectID uuid.UUID) ([]model.Lesson, error) {
	return s.lessonRepo.ListBySubject(ctx, subjectID)
}

// GetLesson retrieves one lesson.
func (s *CatalogService) GetLesson(ctx context.Context, id uuid.UUID) (*model.Lesson, error) {
	return s.lessonRepo.GetByID(ctx, id)
}

// CreateLesson inserts a lesson under a subject. The subject must exist.
func (s *CatalogService) CreateLesson(ctx context.Context, subjectID uuid.UUID, req *model.CreateLessonRequest) (*model.Lesson, error) {
	if _, err := s.subjectRepo.GetByID(ctx, subjectID); err != nil {
		return nil, fmt.Errorf("get subject: %w", err)
	}

	lesson := &model.Lesson{
		SubjectID:     subjectID,
		Title:         req.Title,
		Body:          req.Body,
		AttachmentURL: req.AttachmentURL,
		OrderNum:      req.OrderNum,
	}
	if err := s.lessonRepo.Create(ctx, lesson); err != nil {
		return nil, fmt.Errorf("create lesson: %w", err)
	}
	return lesson, nil
}

// UpdateLesson modifies a lesson.
func (s *CatalogService) UpdateLesson(ctx context.Context, id uuid.UUID, req *model.UpdateLessonRequest) error {
	return s.lessonRepo.Update(ctx, id, req)
}

// DeleteLesson removes a lesson.
func (s *CatalogService) DeleteLesson(ctx context.Context, id uuid.UUID) error {
	return s.lessonRepo.Delete(ctx, id)
}
