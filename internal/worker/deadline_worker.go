package worker

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/prepdesk/prepdesk-backend/internal/config"
	"github.com/prepdesk/prepdesk-backend/internal/service"
	"github.com/prepdesk/prepdesk-backend/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DeadlineWorker auto-submits sessions whose countdown ran out. Sessions in
// this process are found through the registry; the Redis deadline zset
// additionally covers sessions started by a process that has since died.
type DeadlineWorker struct {
	sessionService *service.SessionService
	rdb            *redis.Client
	log            zerolog.Logger
	interval       time.Duration
}

// NewDeadlineWorker creates a new DeadlineWorker ticking every second.
func NewDeadlineWorker(sessionService *service.SessionService, rdb *redis.Client, log zerolog.Logger) *DeadlineWorker {
	return &DeadlineWorker{
		sessionService: sessionService,
		rdb:            rdb,
		log:            log.With().Str("component", "deadline_worker").Logger(),
		interval:       time.Second,
	}
}

// Start begins the tick loop. Call in a goroutine.
func (w *DeadlineWorker) Start(ctx context.Context) {
	w.log.Info().Msg("DeadlineWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("DeadlineWorker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *DeadlineWorker) tick(ctx context.Context) {
	for _, sess := range w.sessionService.Registry().Expired() {
		w.autoSubmit(ctx, sess)
	}
	w.sweepOrphans(ctx)
}

func (w *DeadlineWorker) autoSubmit(ctx context.Context, sess *session.Session) {
	record, err := w.sessionService.SubmitExpired(ctx, sess)
	if err != nil {
		// A manual submit racing the tick is expected and fine.
		if errors.Is(err, session.ErrAlreadyCompleted) || errors.Is(err, session.ErrSubmitInFlight) {
			return
		}
		w.log.Error().Err(err).
			Str("exam_id", sess.ExamID().String()).
			Int("user_id", sess.UserID()).
			Msg("Auto-submit failed, will retry next tick")
		return
	}

	w.log.Info().
		Str("exam_id", sess.ExamID().String()).
		Int("user_id", sess.UserID()).
		Int("score", record.Score).
		Msg("Session auto-submitted on expiry")
}

// sweepOrphans rehydrates and submits overdue sessions that no live process
// holds, using the Redis deadline zset.
func (w *DeadlineWorker) sweepOrphans(ctx context.Context) {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	members, err := w.rdb.ZRangeByScore(ctx, config.CacheKey.SessionDeadlinesKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil || len(members) == 0 {
		return
	}

	for _, member := range members {
		examID, userID, err := service.ParseDeadlineMember(member)
		if err != nil {
			w.log.Warn().Err(err).Msg("Dropping malformed deadline entry")
			w.rdb.ZRem(ctx, config.CacheKey.SessionDeadlinesKey(), member)
			continue
		}

		// Present in the registry means the expiry pass above owns it.
		if w.sessionService.Registry().Get(examID, userID) != nil {
			continue
		}

		sess, err := w.sessionService.Rehydrate(ctx, examID, userID)
		if err != nil {
			if errors.Is(err, service.ErrNoActiveSession) {
				// Already submitted elsewhere: the mirror is gone.
				w.rdb.ZRem(ctx, config.CacheKey.SessionDeadlinesKey(), member)
			}
			continue
		}
		w.autoSubmit(ctx, sess)
	}
}
