package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepdesk/prepdesk-backend/internal/model"
)

// CommentRepository handles question comment data access. Comments are
// stored flat; the service layer assembles the reply tree.
type CommentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(pool *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{pool: pool}
}

const commentColumns = `c.id, c.question_id, c.user_id, u.name, c.content,
		 c.rating, c.parent_comment_id, c.created_at`

func scanComment(row pgx.Row) (*model.Comment, error) {
	c := &model.Comment{}
	err := row.Scan(&c.ID, &c.QuestionID, &c.UserID, &c.UserName, &c.Content,
		&c.Rating, &c.ParentCommentID, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetByID retrieves a single comment, or nil if it does not exist.
func (r *CommentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Comment, error) {
	c, err := scanComment(r.pool.QueryRow(ctx,
		`SELECT `+commentColumns+`
		 FROM question_comments c JOIN users u ON c.user_id = u.id
		 WHERE c.id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// ListByQuestion retrieves every comment of a question, oldest first.
func (r *CommentRepository) ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]model.Comment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+commentColumns+`
		 FROM question_comments c JOIN users u ON c.user_id = u.id
		 WHERE c.question_id = $1
		 ORDER BY c.created_at ASC, c.id ASC`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

// Create inserts a comment or reply.
func (r *CommentRepository) Create(ctx context.Context, c *model.Comment) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO question_comments (question_id, user_id, content, rating, parent_comment_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		c.QuestionID, c.UserID, c.Content, c.Rating, c.ParentCommentID,
	).Scan(&c.ID, &c.CreatedAt)
}

// CountReplies returns the number of direct replies to a comment.
func (r *CommentRepository) CountReplies(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM question_comments WHERE parent_comment_id = $1`, id).Scan(&n)
	return n, err
}

// Delete removes a comment. Replies cascade via FK.
func (r *CommentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM question_comments WHERE id = $1`, id)
	return err
}
