package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prepdesk/prepdesk-backend/internal/middleware"
	"github.com/prepdesk/prepdesk-backend/internal/model"
	"github.com/prepdesk/prepdesk-backend/internal/response"
	"github.com/prepdesk/prepdesk-backend/internal/service"
	"github.com/prepdesk/prepdesk-backend/internal/session"
	"github.com/prepdesk/prepdesk-backend/internal/validator"
)

// HistoryHandler handles exam history endpoints.
type HistoryHandler struct {
	historyService *service.HistoryService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(historyService *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

// SubmitHistory godoc
// POST /api/v1/exam-history
// Records a graded attempt. The submission is re-graded server side; any
// score the client claims is ignored.
func (h *HistoryHandler) SubmitHistory(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitHistoryRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	record, err := h.historyService.Record(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownSubmittedQuestion):
			response.Fail(c, http.StatusBadRequest, response.ErrQuestionNotInExam)
		case errors.Is(err, service.ErrExamNotPublished):
			response.Fail(c, http.StatusForbidden, response.ErrExamNotPublished)
		case errors.Is(err, session.ErrAlreadyCompleted):
			response.Fail(c, http.StatusConflict, response.ErrSessionCompleted)
		case errors.Is(err, session.ErrSubmitInFlight):
			response.Fail(c, http.StatusConflict, response.ErrSubmitInFlight)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, record)
}

// ListMyHistory godoc
// GET /api/v1/exam-history
func (h *HistoryHandler) ListMyHistory(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, perPage := pageParams(c)
	records, total, err := h.historyService.ListByUser(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"history": records}, paginationOf(page, perPage, total))
}

// GetHistory godoc
// GET /api/v1/exam-history/:id
// Full record with per-question results. Owner or admin only.
func (h *HistoryHandler) GetHistory(c *gin.Context) {
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

	record, err := h.historyService.GetByID(c.Request.Context(), id, claims.UserID, claims.IsAdmin())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrHistoryNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrNotRecordOwner):
			response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, record)
}
