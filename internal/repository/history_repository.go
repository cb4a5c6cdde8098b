package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepdesk/prepdesk-backend/internal/model"
)

// HistoryRepository handles exam history data access.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// Create inserts a single graded submission record.
func (r *HistoryRepository) Create(ctx context.Context, h *model.ExamHistory) error {
	results, err := json.Marshal(h.Results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO exam_history
		   (id, exam_id, user_id, score, correct_count, incorrect_count,
		    unanswered_count, total_questions, time_taken_seconds, results, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO NOTHING`,
		h.ID, h.ExamID, h.UserID, h.Score, h.CorrectCount, h.IncorrectCount,
		h.UnansweredCount, h.TotalQuestions, h.TimeTakenSeconds, results, h.SubmittedAt)
	return err
}

// BulkCreate inserts a batch of records in one round trip using UNNEST.
func (r *HistoryRepository) BulkCreate(ctx context.Context, batch []*model.ExamHistory) error {
	n := len(batch)
	ids := make([]uuid.UUID, 0, n)
	examIDs := make([]uuid.UUID, 0, n)
	userIDs := make([]int, 0, n)
	scores := make([]int, 0, n)
	corrects := make([]int, 0, n)
	incorrects := make([]int, 0, n)
	unanswereds := make([]int, 0, n)
	totals := make([]int, 0, n)
	times := make([]int, 0, n)
	results := make([]string, 0, n)
	submittedAts := make([]time.Time, 0, n)

	for _, h := range batch {
		raw, err := json.Marshal(h.Results)
		if err != nil {
			return fmt.Errorf("encode results: %w", err)
		}
		ids = append(ids, h.ID)
		examIDs = append(examIDs, h.ExamID)
		userIDs = append(userIDs, h.UserID)
		scores = append(scores, h.Score)
		corrects = append(corrects, h.CorrectCount)
		incorrects = append(incorrects, h.IncorrectCount)
		unanswereds = append(unanswereds, h.UnansweredCount)
		totals = append(totals, h.TotalQuestions)
		times = append(times, h.TimeTakenSeconds)
		results = append(results, string(raw))
		submittedAts = append(submittedAts, h.SubmittedAt)
	}

	query := `
		INSERT INTO exam_history
		  (id, exam_id, user_id, score, correct_count, incorrect_count,
		   unanswered_count, total_questions, time_taken_seconds, results, submitted_at)
		SELECT u.id, u.exam_id, u.user_id, u.score, u.correct_count, u.incorrect_count,
		       u.unanswered_count, u.total_questions, u.time_taken_seconds,
		       u.results::jsonb, u.submitted_at
		FROM UNNEST(
			$1::uuid[], $2::uuid[], $3::int[], $4::int[], $5::int[], $6::int[],
			$7::int[], $8::int[], $9::int[], $10::text[], $11::timestamptz[]
		) AS u (id, exam_id, user_id, score, correct_count, incorrect_count,
		        unanswered_count, total_questions, time_taken_seconds, results, submitted_at)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		ids, examIDs, userIDs, scores, corrects, incorrects,
		unanswereds, totals, times, results, submittedAts)
	return err
}

// GetByID retrieves one submission with its per-question results, or nil if
// no record exists.
func (r *HistoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamHistory, error) {
	h := &model.ExamHistory{}
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT h.id, h.exam_id, e.title, s.name, h.user_id, h.score,
		        h.correct_count, h.incorrect_count, h.unanswered_count,
		        h.total_questions, h.time_taken_seconds, h.results, h.submitted_at
		 FROM exam_history h
		 JOIN exams e ON h.exam_id = e.id
		 JOIN subjects s ON e.subject_id = s.id
		 WHERE h.id = $1`, id,
	).Scan(&h.ID, &h.ExamID, &h.ExamTitle, &h.SubjectName, &h.UserID, &h.Score,
		&h.CorrectCount, &h.IncorrectCount, &h.UnansweredCount,
		&h.TotalQuestions, &h.TimeTakenSeconds, &raw, &h.SubmittedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &h.Results); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return h, nil
}

// GetLatestByExamAndUser retrieves the user's most recent submission for an
// exam, or nil if none exists.
func (r *HistoryRepository) GetLatestByExamAndUser(ctx context.Context, examID uuid.UUID, userID int) (*model.ExamHistory, error) {
	h := &model.ExamHistory{}
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT h.id, h.exam_id, e.title, s.name, h.user_id, h.score,
		        h.correct_count, h.incorrect_count, h.unanswered_count,
		        h.total_questions, h.time_taken_seconds, h.results, h.submitted_at
		 FROM exam_history h
		 JOIN exams e ON h.exam_id = e.id
		 JOIN subjects s ON e.subject_id = s.id
		 WHERE h.exam_id = $1 AND h.user_id = $2
		 ORDER BY h.submitted_at DESC
		 LIMIT 1`, examID, userID,
	).Scan(&h.ID, &h.ExamID, &h.ExamTitle, &h.SubjectName, &h.UserID, &h.Score,
		&h.CorrectCount, &h.IncorrectCount, &h.UnansweredCount,
		&h.TotalQuestions, &h.TimeTakenSeconds, &raw, &h.SubmittedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &h.Results); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return h, nil
}

// ListByUser retrieves a user's submissions, newest first, without the
// per-question detail.
func (r *HistoryRepository) ListByUser(ctx context.Context, userID, page, perPage int) ([]model.ExamHistory, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_history WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT h.id, h.exam_id, e.title, s.name, h.user_id, h.score,
		        h.correct_count, h.incorrect_count, h.unanswered_count,
		        h.total_questions, h.time_taken_seconds, h.submitted_at
		 FROM exam_history h
		 JOIN exams e ON h.exam_id = e.id
		 JOIN subjects s ON e.subject_id = s.id
		 WHERE h.user_id = $1
		 ORDER BY h.submitted_at DESC
		 LIMIT $2 OFFSET $3`, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.ExamHistory
	for rows.Next() {
		var h model.ExamHistory
		if err := rows.Scan(&h.ID, &h.ExamID, &h.ExamTitle, &h.SubjectName, &h.UserID, &h.Score,
			&h.CorrectCount, &h.IncorrectCount, &h.UnansweredCount,
			&h.TotalQuestions, &h.TimeTakenSeconds, &h.SubmittedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, h)
	}
	return out, total, rows.Err()
}
