package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepdesk/prepdesk-backend/internal/model"
)

// LessonRepository handles lesson data access.
type LessonRepository struct {
	pool *pgxpool.Pool
}

// NewLessonRepository creates a new LessonRepository.
func NewLessonRepository(pool *pgxpool.Pool) *LessonRepository {
	return &LessonRepository{pool: pool}
}

// ListBySubject retrieves a subject's lessons in display order.
func (r *LessonRepository) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]model.Lesson, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, subject_id, title, body, attachment_url, order_num, created_at, updated_at
		 FROM lessons
		 WHERE subject_id = $1
		 ORDER BY order_num ASC, created_at ASC`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lessons []model.Lesson
	for rows.Next() {
		var l model.Lesson
		if err := rows.Scan(&l.ID, &l.SubjectID, &l.Title, &l.Body,
			&l.AttachmentURL, &l.OrderNum, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

// GetByID retrieves a single lesson.
func (r *LessonRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Lesson, error) {
	l := &model.Lesson{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, subject_id, title, body, attachment_url, order_num, created_at, updated_at
		 FROM lessons WHERE id = $1`, id,
	).Scan(&l.ID, &l.SubjectID, &l.Title, &l.Body,
		&l.AttachmentURL, &l.OrderNum, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Create inserts a new lesson under a subject.
func (r *LessonRepository) Create(ctx context.Context, l *model.Lesson) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO lessons (subject_id, title, body, attachment_url, order_num)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		l.SubjectID, l.Title, l.Body, l.AttachmentURL, l.OrderNum,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

// Update modifies an existing lesson.
func (r *LessonRepository) Update(ctx context.Context, id uuid.UUID, req *model.UpdateLessonRequest) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE lessons
		 SET title = $1, body = $2, attachment_url = $3, order_num = $4, updated_at = NOW()
		 WHERE id = $5`,
		req.Title, req.Body, req.AttachmentURL, req.OrderNum, id)
	return err
}

// Delete removes a lesson.
func (r *LessonRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	return err
}
