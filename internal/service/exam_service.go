package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/prepdesk/prepdesk-backend/internal/config"
	"github.com/prepdesk/prepdesk-backend/internal/model"
	"github.com/prepdesk/prepdesk-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrExamNotPublished is returned when a payload is requested for an exam
// that is not in PUBLISHED status.
var ErrExamNotPublished = errors.New("exam is not published")

// ErrNoQuestions guards publishing or starting an exam with an empty
// question bank.
var ErrNoQuestions = errors.New("exam has no questions")

// ExamService handles exam catalog logic and the Redis payload cache.
type ExamService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "exam_service").Logger(),
	}
}

// GetByID retrieves exam metadata.
func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.examRepo.GetByID(ctx, id)
}

// List retrieves exams with optional filters.
func (s *ExamService) List(ctx context.Context, page, perPage int, subjectID *uuid.UUID, status *model.ExamStatus) ([]model.Exam, int64, error) {
	return s.examRepo.List(ctx, page, perPage, subjectID, status)
}

// Create inserts a new draft exam.
func (s *ExamService) Create(ctx context.Context, req *model.CreateExamRequest) (*model.Exam, error) {
	exam := &model.Exam{
		Title:           req.Title,
		SubjectID:       req.SubjectID,
		DurationMinutes: req.DurationMinutes,
		ExamType:        model.ExamType(req.ExamType),
	}
	if err := s.examRepo.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}
	return exam, nil
}

// Update modifies exam metadata and refreshes the cache if published.
func (s *ExamService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateExamRequest) error {
	if err := s.examRepo.Update(ctx, id, req); err != nil {
		return fmt.Errorf("update exam: %w", err)
	}
	return s.refreshIfPublished(ctx, id)
}

// Publish transitions an exam to PUBLISHED and warms its cache. An exam
// without questions cannot be published.
func (s *ExamService) Publish(ctx context.Context, id uuid.UUID) error {
	questions, err := s.questionRepo.ListByExam(ctx, id)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	if err := s.examRepo.SetStatus(ctx, id, model.ExamStatusPublished); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return s.warmCache(ctx, id)
}

// Archive transitions an exam to ARCHIVED and drops its cache entries.
func (s *ExamService) Archive(ctx context.Context, id uuid.UUID) error {
	if err := s.examRepo.SetStatus(ctx, id, model.ExamStatusArchived); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	s.invalidateCache(ctx, id)
	return nil
}

// Delete removes an exam and its cache entries.
func (s *ExamService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.examRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	s.invalidateCache(ctx, id)
	return nil
}

// GetPayload returns the question payload of a published exam, preferring
// the Redis cache and self-healing from PostgreSQL on a miss.
func (s *ExamService) GetPayload(ctx context.Context, examID uuid.UUID) (*model.ExamPayload, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.ExamPayloadKey(examID.String())).Result()
	if err == nil {
		payload := &model.ExamPayload{}
		if err := json.Unmarshal([]byte(raw), payload); err == nil {
			return payload, nil
		}
		// Corrupt cache entry, rebuild below.
		s.log.Warn().Str("exam_id", examID.String()).Msg("Corrupt payload cache entry")
	} else if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("payload cache: %w", err)
	}

	payload, err := s.buildPayload(ctx, examID)
	if err != nil {
		return nil, err
	}
	if err := s.warmCache(ctx, examID); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Cache self-heal failed")
	}
	return payload, nil
}

// GetAnswerKey returns the question id → correct answer map for an exam,
// preferring the Redis hash and falling back to PostgreSQL.
func (s *ExamService) GetAnswerKey(ctx context.Context, examID uuid.UUID) (map[uuid.UUID]string, error) {
	cached, err := s.rdb.HGetAll(ctx, config.CacheKey.ExamAnswerKey(examID.String())).Result()
	if err == nil && len(cached) > 0 {
		key := make(map[uuid.UUID]string, len(cached))
		for qid, answer := range cached {
			id, parseErr := uuid.Parse(qid)
			if parseErr != nil {
				continue
			}
			key[id] = answer
		}
		return key, nil
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("answer key cache: %w", err)
	}

	return s.questionRepo.AnswerKey(ctx, examID)
}

// PrewarmAllCaches loads every published exam into Redis. Called before the
// server accepts traffic to avoid a thundering herd on lazy loading.
func (s *ExamService) PrewarmAllCaches(ctx context.Context) error {
	exams, err := s.examRepo.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("list published: %w", err)
	}

	for _, exam := range exams {
		if err := s.warmCache(ctx, exam.ID); err != nil {
			s.log.Warn().Err(err).Str("exam_id", exam.ID.String()).Msg("Prewarm failed")
			continue
		}
	}

	s.log.Info().Int("exams", len(exams)).Msg("Exam caches prewarmed")
	return nil
}

func (s *ExamService) buildPayload(ctx context.Context, examID uuid.UUID) (*model.ExamPayload, error) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if exam.Status != model.ExamStatusPublished {
		return nil, ErrExamNotPublished
	}

	questions, err := s.questionRepo.ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	return &model.ExamPayload{
		ExamID:          exam.ID,
		Title:           exam.Title,
		SubjectName:     exam.SubjectName,
		DurationMinutes: exam.DurationMinutes,
		ExamType:        exam.ExamType,
		Questions:       questions,
	}, nil
}

// warmCache writes the payload JSON, duration, and answer-key hash to Redis.
func (s *ExamService) warmCache(ctx context.Context, examID uuid.UUID) error {
	payload, err := s.buildPayload(ctx, examID)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	id := examID.String()
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.ExamPayloadKey(id), raw, 0)
	pipe.Set(ctx, config.CacheKey.ExamDurationKey(id), payload.DurationMinutes, 0)
	answerKey := make(map[string]string, len(payload.Questions))
	for _, q := range payload.Questions {
		answerKey[q.ID.String()] = q.CorrectAnswer
	}
	if len(answerKey) > 0 {
		pipe.Del(ctx, config.CacheKey.ExamAnswerKey(id))
		pipe.HSet(ctx, config.CacheKey.ExamAnswerKey(id), answerKey)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}

func (s *ExamService) invalidateCache(ctx context.Context, examID uuid.UUID) {
	id := examID.String()
	s.rdb.Del(ctx,
		config.CacheKey.ExamPayloadKey(id),
		config.CacheKey.ExamDurationKey(id),
		config.CacheKey.ExamAnswerKey(id),
	)
}

func (s *ExamService) refreshIfPublished(ctx context.Context, id uuid.UUID) error {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil // Exam gone; nothing to refresh
	}
	if exam.Status != model.ExamStatusPublished {
		return nil
	}
	return s.warmCache(ctx, id)
}
