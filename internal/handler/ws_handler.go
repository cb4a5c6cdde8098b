package handler

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prepdesk/prepdesk-backend/internal/middleware"
	"github.com/prepdesk/prepdesk-backend/internal/service"
	ws "github.com/prepdesk/prepdesk-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a live exam session: answers, flags, and navigation in,
// countdown ticks and the graded result out.
type WSHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/exams/:exam_id/stream?token=...
// Requires an in-progress session; the REST start endpoint creates one.
func (h *WSHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exam ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	userID := claims.UserID
	ctx := c.Request.Context()

	state, err := h.sessionService.State(ctx, examID, userID)
	if err != nil {
		ws.WriteError(conn, "no active session for this exam")
		return
	}

	wsLog := h.log.With().
		Int("user_id", userID).
		Str("exam_id", examID.String()).
		Logger()
	wsLog.Info().Msg("Session stream connected")

	var writeMu sync.Mutex
	write := func(event ws.Event, data interface{}) {
		writeMu.Lock()
		defer writeMu.Unlock()
		ws.WriteEvent(conn, event, data)
	}
	writeErr := func(msg string) {
		writeMu.Lock()
		defer writeMu.Unlock()
		ws.WriteError(conn, msg)
	}

	write(ws.EventState, state)

	// Push the authoritative countdown every few seconds so the client
	// clock cannot drift.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				st, err := h.sessionService.State(ctx, examID, userID)
				if err != nil {
					return
				}
				write(ws.EventTick, ws.TickData{RemainingSeconds: st.RemainingSeconds})
			}
		}
	}()

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionAnswer:
			qid, err := uuid.Parse(msg.QID)
			if err != nil {
				writeErr("invalid q_id format")
				continue
			}
			if err := h.sessionService.SetAnswer(ctx, examID, userID, qid, msg.Answer); err != nil {
				writeErr(err.Error())
				continue
			}
			write(ws.EventSaved, map[string]string{"q_id": msg.QID})

		case ws.ActionFlag:
			qid, err := uuid.Parse(msg.QID)
			if err != nil {
				writeErr("invalid q_id format")
				continue
			}
			flagged, err := h.sessionService.ToggleFlag(ctx, examID, userID, qid)
			if err != nil {
				writeErr(err.Error())
				continue
			}
			write(ws.EventFlagged, map[string]interface{}{"q_id": msg.QID, "flagged": flagged})

		case ws.ActionNavigate:
			st, err := h.sessionService.Navigate(ctx, examID, userID, msg.Index)
			if err != nil {
				writeErr(err.Error())
				continue
			}
			write(ws.EventState, st)

		case ws.ActionState:
			st, err := h.sessionService.State(ctx, examID, userID)
			if err != nil {
				writeErr(err.Error())
				continue
			}
			write(ws.EventState, st)

		case ws.ActionSubmit:
			record, err := h.sessionService.Submit(ctx, examID, userID)
			if err != nil {
				writeErr(err.Error())
				continue
			}
			wsLog.Info().Int("score", record.Score).Msg("Submitted over stream")
			write(ws.EventGraded, record)
			return

		case ws.ActionPing:
			write(ws.EventPong, nil)

		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			writeErr("unknown action: " + string(msg.Action))
		}
	}
}
