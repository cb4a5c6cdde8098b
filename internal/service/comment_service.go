package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prepdesk/prepdesk-backend/internal/model"
	"github.com/prepdesk/prepdesk-backend/internal/repository"
	"github.com/rs/zerolog"
)

// Comment validation errors surfaced to handlers.
var (
	ErrCommentNotFound   = errors.New("comment not found")
	ErrParentNotFound    = errors.New("parent comment not found")
	ErrParentIsReply     = errors.New("cannot reply to a reply")
	ErrParentMismatch    = errors.New("parent comment belongs to a different question")
	ErrRatingOnReply     = errors.New("replies cannot carry a rating")
	ErrNotCommentOwner   = errors.New("comment belongs to another user")
	ErrRepliesNeedDetach = errors.New("comment has replies")
)

// CommentService manages the one-level discussion tree under each question.
type CommentService struct {
	commentRepo  *repository.CommentRepository
	questionRepo *repository.QuestionRepository
	log          zerolog.Logger
}

// NewCommentService creates a new CommentService.
func NewCommentService(commentRepo *repository.CommentRepository, questionRepo *repository.QuestionRepository, log zerolog.Logger) *CommentService {
	return &CommentService{
		commentRepo:  commentRepo,
		questionRepo: questionRepo,
		log:          log.With().Str("component", "comment_service").Logger(),
	}
}

// ListByQuestion returns the question's comments as a tree: top-level
// comments oldest first, each with its replies nested oldest first.
func (s *CommentService) ListByQuestion(ctx context.Context, questionID uuid.UUID) ([]model.Comment, error) {
	flat, err := s.commentRepo.ListByQuestion(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return BuildTree(flat), nil
}

// BuildTree assembles a flat, created_at-ordered comment list into the
// nested shape. Replies whose parent is missing from the slice are dropped.
func BuildTree(flat []model.Comment) []model.Comment {
	tree := make([]model.Comment, 0, len(flat))
	index := make(map[uuid.UUID]int, len(flat))

	for _, c := range flat {
		if c.ParentCommentID == nil {
			c.Replies = []model.Comment{}
			tree = append(tree, c)
			index[c.ID] = len(tree) - 1
		}
	}
	for _, c := range flat {
		if c.ParentCommentID == nil {
			continue
		}
		if i, ok := index[*c.ParentCommentID]; ok {
			tree[i].Replies = append(tree[i].Replies, c)
			tree[i].ReplyCount++
		}
	}
	return tree
}

// Create posts a comment or reply. Ratings are accepted on top-level
// comments only, replies must point at a top-level comment of the same
// question, so the tree never exceeds one level.
func (s *CommentService) Create(ctx context.Context, userID int, req *model.CreateCommentRequest) (*model.Comment, error) {
	question, err := s.questionRepo.GetByID(ctx, req.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	if question == nil {
		return nil, ErrQuestionNotFound
	}

	if req.ParentCommentID != nil {
		if req.Rating != nil {
			return nil, ErrRatingOnReply
		}
		parent, err := s.commentRepo.GetByID(ctx, *req.ParentCommentID)
		if err != nil {
			return nil, fmt.Errorf("load parent: %w", err)
		}
		if parent == nil {
			return nil, ErrParentNotFound
		}
		if parent.ParentCommentID != nil {
			return nil, ErrParentIsReply
		}
		if parent.QuestionID != req.QuestionID {
			return nil, ErrParentMismatch
		}
	}

	comment := &model.Comment{
		ID:              uuid.New(),
		QuestionID:      req.QuestionID,
		UserID:          userID,
		Content:         req.Content,
		Rating:          req.Rating,
		ParentCommentID: req.ParentCommentID,
		CreatedAt:       time.Now(),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// Delete removes a comment. Only the author or an admin may delete; a
// top-level comment that has replies requires the confirm flag, in which
// case the replies are removed with it. The reply count is returned so the
// caller can build the confirmation prompt.
func (s *CommentService) Delete(ctx context.Context, id uuid.UUID, requesterID int, isAdmin, confirm bool) (int, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("load comment: %w", err)
	}
	if comment == nil {
		return 0, ErrCommentNotFound
	}
	if comment.UserID != requesterID && !isAdmin {
		return 0, ErrNotCommentOwner
	}

	replies := 0
	if comment.ParentCommentID == nil {
		replies, err = s.commentRepo.CountReplies(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("count replies: %w", err)
		}
		if replies > 0 && !confirm {
			return replies, ErrRepliesNeedDetach
		}
	}

	if err := s.commentRepo.Delete(ctx, id); err != nil {
		return replies, fmt.Errorf("delete comment: %w", err)
	}
	s.log.Info().
		Str("comment_id", id.String()).
		Int("replies_removed", replies).
		Msg("Comment deleted")
	return replies, nil
}
