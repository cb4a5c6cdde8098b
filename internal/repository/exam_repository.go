package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepdesk/prepdesk-backend/internal/model"
)

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

const examColumns = `e.id, e.title, e.subject_id, s.name, e.duration_minutes, e.exam_type,
		        (SELECT COUNT(*) FROM questions q WHERE q.exam_id = e.id),
		        e.status, e.created_at, e.updated_at`

// GetByID retrieves an exam with its subject name and question count.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+examColumns+`
		 FROM exams e JOIN subjects s ON e.subject_id = s.id
		 WHERE e.id = $1`, id,
	).Scan(&e.ID, &e.Title, &e.SubjectID, &e.SubjectName, &e.DurationMinutes,
		&e.ExamType, &e.QuestionCount, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// List retrieves exams with optional subject/status filters and pagination.
func (r *ExamRepository) List(ctx context.Context, page, perPage int, subjectID *uuid.UUID, status *model.ExamStatus) ([]model.Exam, int64, error) {
	baseQuery := ` FROM exams e JOIN subjects s ON e.subject_id = s.id WHERE 1=1`
	args := []any{}

	if subjectID != nil {
		args = append(args, *subjectID)
		baseQuery += fmt.Sprintf(" AND e.subject_id = $%d", len(args))
	}
	if status != nil {
		args = append(args, *status)
		baseQuery += fmt.Sprintf(" AND e.status = $%d", len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + examColumns + baseQuery +
		fmt.Sprintf(" ORDER BY e.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.SubjectID, &e.SubjectName, &e.DurationMinutes,
			&e.ExamType, &e.QuestionCount, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, err
		}
		exams = append(exams, e)
	}
	return exams, total, rows.Err()
}

// ListPublished retrieves every published exam. Used for cache prewarming.
func (r *ExamRepository) ListPublished(ctx context.Context) ([]model.Exam, error) {
	status := model.ExamStatusPublished
	exams, _, err := r.List(ctx, 1, 10000, nil, &status)
	return exams, err
}

// Create inserts a new exam in DRAFT status.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (title, subject_id, duration_minutes, exam_type, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		e.Title, e.SubjectID, e.DurationMinutes, e.ExamType, model.ExamStatusDraft,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// Update modifies exam fields, keeping existing values for empty inputs.
func (r *ExamRepository) Update(ctx context.Context, id uuid.UUID, req *model.UpdateExamRequest) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams
		 SET title = COALESCE(NULLIF($1, ''), title),
		     subject_id = COALESCE($2, subject_id),
		     duration_minutes = CASE WHEN $3 > 0 THEN $3 ELSE duration_minutes END,
		     exam_type = COALESCE(NULLIF($4, ''), exam_type),
		     updated_at = NOW()
		 WHERE id = $5`,
		req.Title, req.SubjectID, req.DurationMinutes, req.ExamType, id)
	return err
}

// SetStatus transitions an exam's lifecycle state.
func (r *ExamRepository) SetStatus(ctx context.Context, id uuid.UUID, status model.ExamStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exams SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	return err
}

// Delete removes an exam. Questions cascade via FK.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	return err
}
