package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prepdesk/prepdesk-backend/internal/middleware"
	"github.com/prepdesk/prepdesk-backend/internal/model"
	"github.com/prepdesk/prepdesk-backend/internal/response"
	"github.com/prepdesk/prepdesk-backend/internal/service"
	"github.com/prepdesk/prepdesk-backend/internal/validator"
)

// CommentHandler handles question discussion endpoints.
type CommentHandler struct {
	commentService *service.CommentService
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// ListComments godoc
// GET /api/v1/questions/:question_id/comments
// Returns the comment tree: top-level comments with nested replies, both
// oldest first.
func (h *CommentHandler) ListComments(c *gin.Context) {
	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	comments, err := h.commentService.ListByQuestion(c.Request.Context(), questionID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"comments": comments})
}

// CreateComment godoc
// POST /api/v1/question-comments
func (h *CommentHandler) CreateComment(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateCommentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	comment, err := h.commentService.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRatingOnReply):
			response.Fail(c, http.StatusBadRequest, response.ErrRatingOnReply)
		case errors.Is(err, service.ErrParentIsReply), errors.Is(err, service.ErrParentMismatch):
			response.Fail(c, http.StatusBadRequest, response.ErrParentMismatch)
		case errors.Is(err, service.ErrParentNotFound), errors.Is(err, service.ErrQuestionNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"comment": comment})
}

// DeleteComment godoc
// DELETE /api/v1/question-comments/:id?confirm=true
// Deleting a top-level comment that has replies requires confirm=true; the
// 409 response carries the reply count for the confirmation prompt.
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	confirm := c.Query("confirm") == "true"
	replies, err := h.commentService.Delete(c.Request.Context(), id, claims.UserID, claims.IsAdmin(), confirm)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCommentNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrNotCommentOwner):
			response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		case errors.Is(err, service.ErrRepliesNeedDetach):
			response.FailWithFields(c, http.StatusConflict, response.ErrHasReplies, map[string]string{
				"reply_count": strconv.Itoa(replies),
			})
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"replies_removed": replies})
}
