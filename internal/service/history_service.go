package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prepdesk/prepdesk-backend/internal/model"
	"github.com/prepdesk/prepdesk-backend/internal/repository"
	"github.com/prepdesk/prepdesk-backend/internal/session"
	"github.com/rs/zerolog"
)

// History validation errors surfaced to handlers.
var (
	ErrUnknownSubmittedQuestion = errors.New("submission references a question outside the exam")
	ErrHistoryNotFound          = errors.New("exam history not found")
	ErrNotRecordOwner           = errors.New("record belongs to another user")
)

// HistoryService grades and stores exam submissions. Records posted by
// clients are never trusted: the answer set is validated against the exam
// and re-graded against the stored answer key before anything is written.
type HistoryService struct {
	historyRepo    *repository.HistoryRepository
	questionRepo   *repository.QuestionRepository
	examService    *ExamService
	sessionService *SessionService
	log            zerolog.Logger
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(
	historyRepo *repository.HistoryRepository,
	questionRepo *repository.QuestionRepository,
	examService *ExamService,
	sessionService *SessionService,
	log zerolog.Logger,
) *HistoryService {
	return &HistoryService{
		historyRepo:    historyRepo,
		questionRepo:   questionRepo,
		examService:    examService,
		sessionService: sessionService,
		log:            log.With().Str("component", "history_service").Logger(),
	}
}

// Record stores a graded attempt for the user. If a live session exists for
// the exam the submission is routed through it, so the session's own answer
// state and single-flight guard apply. Otherwise the client-assembled
// answers are re-graded server side and written directly.
func (s *HistoryService) Record(ctx context.Context, userID int, req *model.SubmitHistoryRequest) (*model.ExamHistory, error) {
	if s.sessionService != nil {
		rec, err := s.sessionService.Submit(ctx, req.ExamID, userID)
		switch {
		case err == nil:
			return rec, nil
		case errors.Is(err, session.ErrAlreadyCompleted):
			// Duplicate submit for the same attempt: hand back the stored
			// record instead of failing, so client retries are harmless.
			stored, lookupErr := s.historyRepo.GetLatestByExamAndUser(ctx, req.ExamID, userID)
			if lookupErr == nil && stored != nil {
				return stored, nil
			}
			return nil, err
		case errors.Is(err, ErrNoActiveSession), errors.Is(err, session.ErrNotStarted):
			// No live session; fall through to the standalone path.
		default:
			return nil, err
		}
	}
	return s.recordStandalone(ctx, userID, req)
}

func (s *HistoryService) recordStandalone(ctx context.Context, userID int, req *model.SubmitHistoryRequest) (*model.ExamHistory, error) {
	exam, err := s.examService.GetByID(ctx, req.ExamID)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamStatusPublished {
		return nil, ErrExamNotPublished
	}

	questions, err := s.questionRepo.ListByExam(ctx, req.ExamID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	valid := make(map[uuid.UUID]struct{}, len(questions))
	for _, q := range questions {
		valid[q.ID] = struct{}{}
	}

	answers := make(map[uuid.UUID]string, len(req.Answers))
	times := make(map[uuid.UUID]time.Duration, len(req.Answers))
	for _, a := range req.Answers {
		if _, ok := valid[a.QuestionID]; !ok {
			return nil, ErrUnknownSubmittedQuestion
		}
		answers[a.QuestionID] = a.SelectedAnswer
		times[a.QuestionID] = time.Duration(a.TimeSpentSeconds) * time.Second
	}

	timeTaken := time.Duration(req.TimeTakenSeconds) * time.Second
	if max := time.Duration(exam.DurationMinutes) * time.Minute; timeTaken > max {
		timeTaken = max
	}

	record := session.Grade(req.ExamID, userID, questions, answers, times, timeTaken)
	record.SubmittedAt = time.Now()

	if err := s.historyRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("persist history: %w", err)
	}
	s.log.Info().
		Str("exam_id", req.ExamID.String()).
		Int("user_id", userID).
		Int("score", record.Score).
		Msg("Standalone submission recorded")
	return record, nil
}

// GetByID returns one record with per-question results. Users can only read
// their own records; admins can read any.
func (s *HistoryService) GetByID(ctx context.Context, id uuid.UUID, requesterID int, isAdmin bool) (*model.ExamHistory, error) {
	rec, err := s.historyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrHistoryNotFound
	}
	if rec.UserID != requesterID && !isAdmin {
		return nil, ErrNotRecordOwner
	}
	return rec, nil
}

// ListByUser returns the user's attempts newest first, without the
// per-question result detail.
func (s *HistoryService) ListByUser(ctx context.Context, userID, page, perPage int) ([]model.ExamHistory, int64, error) {
	return s.historyRepo.ListByUser(ctx, userID, page, perPage)
}
