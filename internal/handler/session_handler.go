package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prepdesk/prepdesk-backend/internal/middleware"
	"github.com/prepdesk/prepdesk-backend/internal/response"
	"github.com/prepdesk/prepdesk-backend/internal/service"
	"github.com/prepdesk/prepdesk-backend/internal/session"
	"github.com/prepdesk/prepdesk-backend/internal/validator"
)

// SessionHandler drives a live timed exam attempt over REST. The WebSocket
// stream in ws_handler.go serves the same operations for clients that keep
// a connection open.
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

type answerRequest struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Answer     string    `json:"answer"`
}

type flagRequest struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
}

type navigateRequest struct {
	Index int `json:"index" binding:"min=0"`
}

// StartSession godoc
// POST /api/v1/exams/:exam_id/session/start
// Idempotent: re-starting an in-progress session returns its current state.
func (h *SessionHandler) StartSession(c *gin.Context) {
	examID, userID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	state, err := h.sessionService.Start(c.Request.Context(), examID, userID)
	if err != nil {
		h.failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// GetSessionState godoc
// GET /api/v1/exams/:exam_id/session
func (h *SessionHandler) GetSessionState(c *gin.Context) {
	examID, userID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	state, err := h.sessionService.State(c.Request.Context(), examID, userID)
	if err != nil {
		h.failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// SetAnswer godoc
// PUT /api/v1/exams/:exam_id/session/answer
func (h *SessionHandler) SetAnswer(c *gin.Context) {
	examID, userID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	var req answerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.sessionService.SetAnswer(c.Request.Context(), examID, userID, req.QuestionID, req.Answer); err != nil {
		h.failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ToggleFlag godoc
// PUT /api/v1/exams/:exam_id/session/flag
func (h *SessionHandler) ToggleFlag(c *gin.Context) {
	examID, userID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	var req flagRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	flagged, err := h.sessionService.ToggleFlag(c.Request.Context(), examID, userID, req.QuestionID)
	if err != nil {
		h.failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"flagged": flagged})
}

// Navigate godoc
// PUT /api/v1/exams/:exam_id/session/navigate
func (h *SessionHandler) Navigate(c *gin.Context) {
	examID, userID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	var req navigateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.sessionService.Navigate(c.Request.Context(), examID, userID, req.Index)
	if err != nil {
		h.failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// SubmitSession godoc
// POST /api/v1/exams/:exam_id/session/submit
// Grades the session and returns the record. Exactly one submit wins.
func (h *SessionHandler) SubmitSession(c *gin.Context) {
	examID, userID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	record, err := h.sessionService.Submit(c.Request.Context(), examID, userID)
	if err != nil {
		h.failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, record)
}

// ResetSession godoc
// POST /api/v1/exams/:exam_id/session/reset
// Clears a completed session so the exam can be retaken.
func (h *SessionHandler) ResetSession(c *gin.Context) {
	examID, userID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	if err := h.sessionService.Reset(c.Request.Context(), examID, userID); err != nil {
		h.failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

func (h *SessionHandler) sessionScope(c *gin.Context) (uuid.UUID, int, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return uuid.Nil, 0, false
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, 0, false
	}
	return examID, claims.UserID, true
}

func (h *SessionHandler) failSession(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoActiveSession), errors.Is(err, session.ErrNotStarted):
		response.Fail(c, http.StatusConflict, response.ErrSessionNotStarted)
	case errors.Is(err, session.ErrAlreadyCompleted):
		response.Fail(c, http.StatusConflict, response.ErrSessionCompleted)
	case errors.Is(err, session.ErrAlreadyStarted):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case errors.Is(err, session.ErrSubmitInFlight):
		response.Fail(c, http.StatusConflict, response.ErrSubmitInFlight)
	case errors.Is(err, session.ErrUnknownQuestion):
		response.Fail(c, http.StatusBadRequest, response.ErrQuestionNotInExam)
	case errors.Is(err, session.ErrIndexOutOfRange):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	case errors.Is(err, service.ErrExamNotPublished):
		response.Fail(c, http.StatusForbidden, response.ErrExamNotPublished)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
