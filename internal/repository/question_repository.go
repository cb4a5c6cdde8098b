package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepdesk/prepdesk-backend/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `id, exam_id, text, options, correct_answer, explanation,
		 image_url, formula, difficulty, chapter, grade_level, order_num`

func scanQuestion(row pgx.Row) (*model.Question, error) {
	q := &model.Question{}
	var options []byte
	err := row.Scan(&q.ID, &q.ExamID, &q.Text, &options, &q.CorrectAnswer, &q.Explanation,
		&q.ImageURL, &q.Formula, &q.Difficulty, &q.Chapter, &q.GradeLevel, &q.OrderNum)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(options, &q.Options); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	return q, nil
}

// GetByID retrieves a single question, or nil if it does not exist.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q, err := scanQuestion(r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return q, err
}

// ListByExam retrieves an exam's questions in order.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+`
		 FROM questions
		 WHERE exam_id = $1
		 ORDER BY order_num ASC, id ASC`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// AnswerKey returns the question id → correct answer map for an exam.
func (r *QuestionRepository) AnswerKey(ctx context.Context, examID uuid.UUID) (map[uuid.UUID]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, correct_answer FROM questions WHERE exam_id = $1`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	key := make(map[uuid.UUID]string)
	for rows.Next() {
		var id uuid.UUID
		var answer string
		if err := rows.Scan(&id, &answer); err != nil {
			return nil, err
		}
		key[id] = answer
	}
	return key, rows.Err()
}

// Create inserts a new question into an exam.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (exam_id, text, options, correct_answer, explanation,
		                        image_url, formula, difficulty, chapter, grade_level, order_num)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		q.ExamID, q.Text, options, q.CorrectAnswer, q.Explanation,
		q.ImageURL, q.Formula, q.Difficulty, q.Chapter, q.GradeLevel, q.OrderNum,
	).Scan(&q.ID)
}

// ReplaceAll swaps an exam's entire question set inside one transaction.
func (r *QuestionRepository) ReplaceAll(ctx context.Context, examID uuid.UUID, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE exam_id = $1`, examID); err != nil {
		return err
	}

	for i := range questions {
		q := &questions[i]
		options, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("encode options: %w", err)
		}
		err = tx.QueryRow(ctx,
			`INSERT INTO questions (exam_id, text, options, correct_answer, explanation,
			                        image_url, formula, difficulty, chapter, grade_level, order_num)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 RETURNING id`,
			examID, q.Text, options, q.CorrectAnswer, q.Explanation,
			q.ImageURL, q.Formula, q.Difficulty, q.Chapter, q.GradeLevel, q.OrderNum,
		).Scan(&q.ID)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Update modifies an existing question.
func (r *QuestionRepository) Update(ctx context.Context, id uuid.UUID, q *model.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE questions
		 SET text = $1, options = $2, correct_answer = $3, explanation = $4,
		     image_url = $5, formula = $6, difficulty = $7, chapter = $8,
		     grade_level = $9, order_num = $10
		 WHERE id = $11`,
		q.Text, options, q.CorrectAnswer, q.Explanation,
		q.ImageURL, q.Formula, q.Difficulty, q.Chapter, q.GradeLevel, q.OrderNum, id)
	return err
}

// Delete removes a question. Comments cascade via FK.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return err
}
