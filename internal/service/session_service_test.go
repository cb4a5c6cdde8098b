package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prepdesk/prepdesk-backend/internal/config"
	"github.com/prepdesk/prepdesk-backend/internal/model"
	"github.com/prepdesk/prepdesk-backend/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// sessionHarness runs a SessionService against an in-process Redis with a
// published exam payload pre-seeded, so no PostgreSQL is needed.
type sessionHarness struct {
	svc    *SessionService
	rdb    *redis.Client
	examID uuid.UUID
	qIDs   []uuid.UUID
}

func newSessionHarness(t *testing.T) *sessionHarness {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	examID := uuid.New()
	qIDs := []uuid.UUID{uuid.New(), uuid.New()}
	payload := &model.ExamPayload{
		ExamID:          examID,
		Title:           "Harness Exam",
		DurationMinutes: 30,
		ExamType:        model.ExamTypeMockTest,
		Questions: []model.Question{
			{ID: qIDs[0], ExamID: examID, Text: "Q1", Options: []string{"a", "b"}, CorrectAnswer: "a"},
			{ID: qIDs[1], ExamID: examID, Text: "Q2", Options: []string{"a", "b"}, CorrectAnswer: "b"},
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := rdb.Set(context.Background(), config.CacheKey.ExamPayloadKey(examID.String()), raw, 0).Err(); err != nil {
		t.Fatalf("seed payload: %v", err)
	}

	examService := NewExamService(nil, nil, rdb, zerolog.Nop())
	return &sessionHarness{
		svc:    NewSessionService(examService, rdb, zerolog.Nop()),
		rdb:    rdb,
		examID: examID,
		qIDs:   qIDs,
	}
}

func (h *sessionHarness) queueLen(t *testing.T) int64 {
	t.Helper()
	n, err := h.rdb.LLen(context.Background(), config.WorkerKey.PersistHistoryQueue).Result()
	if err != nil {
		t.Fatalf("queue len: %v", err)
	}
	return n
}

func TestStartAfterSubmitRequiresReset(t *testing.T) {
	h := newSessionHarness(t)
	ctx := context.Background()
	const userID = 7

	if _, err := h.svc.Start(ctx, h.examID, userID); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if err := h.svc.SetAnswer(ctx, h.examID, userID, h.qIDs[0], "a"); err != nil {
		t.Fatalf("set answer: %v", err)
	}
	if _, err := h.svc.Submit(ctx, h.examID, userID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if n := h.queueLen(t); n != 1 {
		t.Fatalf("queue len after first submit = %d, want 1", n)
	}

	// The completed session blocks a fresh Start until an explicit reset.
	if _, err := h.svc.Start(ctx, h.examID, userID); !errors.Is(err, session.ErrAlreadyCompleted) {
		t.Fatalf("second start err = %v, want ErrAlreadyCompleted", err)
	}

	if err := h.svc.Reset(ctx, h.examID, userID); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := h.svc.Start(ctx, h.examID, userID); err != nil {
		t.Fatalf("start after reset: %v", err)
	}
	if err := h.svc.SetAnswer(ctx, h.examID, userID, h.qIDs[1], "b"); err != nil {
		t.Fatalf("set answer on retake: %v", err)
	}
	if _, err := h.svc.Submit(ctx, h.examID, userID); err != nil {
		t.Fatalf("retake submit: %v", err)
	}

	// The retake's record must be queued too: its submit lock is scoped to
	// the new attempt and cannot lose to the first attempt's lock.
	if n := h.queueLen(t); n != 2 {
		t.Fatalf("queue len after retake submit = %d, want 2", n)
	}
}

func TestDuplicateSubmitSameAttemptIsRejected(t *testing.T) {
	h := newSessionHarness(t)
	ctx := context.Background()
	const userID = 8

	if _, err := h.svc.Start(ctx, h.examID, userID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := h.svc.Submit(ctx, h.examID, userID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := h.svc.Submit(ctx, h.examID, userID); !errors.Is(err, session.ErrAlreadyCompleted) {
		t.Fatalf("duplicate submit err = %v, want ErrAlreadyCompleted", err)
	}
	if n := h.queueLen(t); n != 1 {
		t.Fatalf("queue len = %d, want 1", n)
	}
}

func TestResetAfterRestartThenRetakePersists(t *testing.T) {
	h := newSessionHarness(t)
	ctx := context.Background()
	const userID = 9

	if _, err := h.svc.Start(ctx, h.examID, userID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := h.svc.Submit(ctx, h.examID, userID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// A fresh service over the same Redis stands in for a restarted process:
	// the completed session is gone from memory and its mirror was cleared.
	restarted := NewSessionService(h.svc.examService, h.rdb, zerolog.Nop())
	if err := restarted.Reset(ctx, h.examID, userID); err != nil {
		t.Fatalf("reset after restart: %v", err)
	}
	if _, err := restarted.Start(ctx, h.examID, userID); err != nil {
		t.Fatalf("start after restart reset: %v", err)
	}
	if _, err := restarted.Submit(ctx, h.examID, userID); err != nil {
		t.Fatalf("submit after restart: %v", err)
	}
	if n := h.queueLen(t); n != 2 {
		t.Fatalf("queue len = %d, want 2", n)
	}
}

func TestResetRefusesInProgressMirror(t *testing.T) {
	h := newSessionHarness(t)
	ctx := context.Background()
	const userID = 10

	if _, err := h.svc.Start(ctx, h.examID, userID); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Restarted process sees only the Redis mirror of a live session.
	restarted := NewSessionService(h.svc.examService, h.rdb, zerolog.Nop())
	if err := restarted.Reset(ctx, h.examID, userID); !errors.Is(err, session.ErrAlreadyStarted) {
		t.Fatalf("reset err = %v, want ErrAlreadyStarted", err)
	}
}

func TestRehydratedSessionSharesSubmitLock(t *testing.T) {
	h := newSessionHarness(t)
	ctx := context.Background()
	const userID = 11

	if _, err := h.svc.Start(ctx, h.examID, userID); err != nil {
		t.Fatalf("start: %v", err)
	}

	// A second node rehydrates the same attempt and submits first.
	other := NewSessionService(h.svc.examService, h.rdb, zerolog.Nop())
	if _, err := other.Submit(ctx, h.examID, userID); err != nil {
		t.Fatalf("submit on second node: %v", err)
	}
	if n := h.queueLen(t); n != 1 {
		t.Fatalf("queue len = %d, want 1", n)
	}

	// The first node's submit of the same attempt loses the lock and must
	// not queue a second record.
	if _, err := h.svc.Submit(ctx, h.examID, userID); err != nil {
		t.Fatalf("submit on first node: %v", err)
	}
	if n := h.queueLen(t); n != 1 {
		t.Fatalf("queue len after racing submit = %d, want 1", n)
	}
}
