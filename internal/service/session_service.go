package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prepdesk/prepdesk-backend/internal/config"
	"github.com/prepdesk/prepdesk-backend/internal/model"
	"github.com/prepdesk/prepdesk-backend/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrNoActiveSession is returned when an operation targets a session that
// does not exist in this process or in Redis.
var ErrNoActiveSession = errors.New("no active session for this exam")

// SessionService hosts live exam sessions. The in-memory registry is the
// fast path; every mutation is mirrored to Redis so a session survives a
// process restart, and answer writes are queued for PostgreSQL persistence
// by the autosave worker.
type SessionService struct {
	registry    *session.Registry
	examService *ExamService
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(examService *ExamService, rdb *redis.Client, log zerolog.Logger) *SessionService {
	return &SessionService{
		registry:    session.NewRegistry(),
		examService: examService,
		rdb:         rdb,
		log:         log.With().Str("component", "session_service").Logger(),
	}
}

// Registry exposes the live-session registry to the deadline worker.
func (s *SessionService) Registry() *session.Registry {
	return s.registry
}

// Start begins a session for (examID, userID). Starting an already
// in-progress session is idempotent and returns the current state, so a
// page reload or second device never resets the countdown. A completed
// session is never restarted implicitly: the caller must Reset first.
func (s *SessionService) Start(ctx context.Context, examID uuid.UUID, userID int) (*session.State, error) {
	if live := s.registry.Get(examID, userID); live != nil {
		switch live.Status() {
		case session.StatusInProgress:
			st := live.Snapshot()
			return &st, nil
		case session.StatusCompleted:
			return nil, session.ErrAlreadyCompleted
		}
	}

	// A session may exist in Redis from before a restart.
	if live, err := s.rehydrate(ctx, examID, userID); err == nil {
		st := live.Snapshot()
		return &st, nil
	}

	payload, err := s.examService.GetPayload(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam payload: %w", err)
	}
	if len(payload.Questions) == 0 {
		return nil, ErrNoQuestions
	}

	sess := session.New(examID, userID, payload.DurationMinutes, payload.Questions)
	if err := sess.Start(); err != nil {
		return nil, err
	}
	s.registry.Put(sess)

	st := sess.Snapshot()
	startedAt := time.Now()
	if st.StartedAt != nil {
		startedAt = *st.StartedAt
	}
	deadline := startedAt.Add(time.Duration(payload.DurationMinutes) * time.Minute)

	// Nanosecond precision: the attempt-scoped submit lock key is derived
	// from this value and must match on a node that rehydrates the session.
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.SessionStartKey(examID.String(), userID), startedAt.UnixNano(), 0)
	pipe.ZAdd(ctx, config.CacheKey.SessionDeadlinesKey(), redis.Z{
		Score:  float64(deadline.Unix()),
		Member: deadlineMember(examID, userID),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		// The in-memory session still works; Redis mirroring is best effort.
		s.log.Warn().Err(err).Msg("Session start mirror failed")
	}

	return &st, nil
}

// State returns the snapshot of the caller's session.
func (s *SessionService) State(ctx context.Context, examID uuid.UUID, userID int) (*session.State, error) {
	sess, err := s.live(ctx, examID, userID)
	if err != nil {
		return nil, err
	}
	st := sess.Snapshot()
	return &st, nil
}

// SetAnswer records a selection, mirrors it to Redis, and queues it for
// PostgreSQL persistence.
func (s *SessionService) SetAnswer(ctx context.Context, examID uuid.UUID, userID int, questionID uuid.UUID, value string) error {
	sess, err := s.live(ctx, examID, userID)
	if err != nil {
		return err
	}
	if err := sess.SetAnswer(questionID, value); err != nil {
		return err
	}

	answersKey := config.CacheKey.SessionAnswersKey(examID.String(), userID)
	if err := s.rdb.HSet(ctx, answersKey, questionID.String(), value).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Answer mirror failed")
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"user_id": userID,
		"exam_id": examID.String(),
		"q_id":    questionID.String(),
		"answer":  value,
	})
	s.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, payload)
	return nil
}

// ToggleFlag flips a question's review-later flag and mirrors the set.
func (s *SessionService) ToggleFlag(ctx context.Context, examID uuid.UUID, userID int, questionID uuid.UUID) (bool, error) {
	sess, err := s.live(ctx, examID, userID)
	if err != nil {
		return false, err
	}
	flagged, err := sess.ToggleFlag(questionID)
	if err != nil {
		return false, err
	}

	flagsKey := config.CacheKey.SessionFlagsKey(examID.String(), userID)
	if flagged {
		s.rdb.SAdd(ctx, flagsKey, questionID.String())
	} else {
		s.rdb.SRem(ctx, flagsKey, questionID.String())
	}
	return flagged, nil
}

// Navigate makes the question at index active and mirrors the updated
// per-question timings.
func (s *SessionService) Navigate(ctx context.Context, examID uuid.UUID, userID int, index int) (*session.State, error) {
	sess, err := s.live(ctx, examID, userID)
	if err != nil {
		return nil, err
	}
	if err := sess.Goto(index); err != nil {
		return nil, err
	}

	st := sess.Snapshot()
	if len(st.TimeSpentMS) > 0 {
		timesKey := config.CacheKey.SessionTimesKey(examID.String(), userID)
		fields := make(map[string]interface{}, len(st.TimeSpentMS))
		for qid, ms := range st.TimeSpentMS {
			fields[qid] = ms
		}
		if err := s.rdb.HSet(ctx, timesKey, fields).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Times mirror failed")
		}
	}
	return &st, nil
}

// Submit grades the caller's session exactly once and queues the record for
// persistence. A second call (manual retry, timer race, or another node
// that rehydrated the same session) is a no-op.
func (s *SessionService) Submit(ctx context.Context, examID uuid.UUID, userID int) (*model.ExamHistory, error) {
	sess, err := s.live(ctx, examID, userID)
	if err != nil {
		return nil, err
	}
	return s.submitSession(ctx, sess)
}

// SubmitExpired runs the auto-submit path for a session whose countdown ran
// out. Called by the deadline worker.
func (s *SessionService) SubmitExpired(ctx context.Context, sess *session.Session) (*model.ExamHistory, error) {
	return s.submitSession(ctx, sess)
}

// Reset clears a completed session so the user can retake the exam. After a
// process restart the completed session is gone from memory and its mirror
// was cleared at submit, so a registry miss with no rehydratable state also
// counts as reset: there is nothing left to clear.
func (s *SessionService) Reset(ctx context.Context, examID uuid.UUID, userID int) error {
	sess := s.registry.Get(examID, userID)
	if sess == nil {
		if _, err := s.rehydrate(ctx, examID, userID); err == nil {
			// The mirror held an in-progress session; it cannot be reset.
			return session.ErrAlreadyStarted
		} else if !errors.Is(err, ErrNoActiveSession) {
			return err
		}
		return nil
	}
	if sess.Status() != session.StatusCompleted {
		return session.ErrAlreadyStarted
	}

	var attempt int64
	if st := sess.Snapshot(); st.StartedAt != nil {
		attempt = st.StartedAt.UnixNano()
	}
	sess.Reset()
	s.registry.Delete(examID, userID)
	s.clearMirror(ctx, examID, userID)
	s.rdb.Del(ctx, config.CacheKey.SubmitLockKey(examID.String(), userID, attempt))
	return nil
}

// Rehydrate restores a session from Redis state, e.g. for the deadline
// worker encountering a session started by a process that died.
func (s *SessionService) Rehydrate(ctx context.Context, examID uuid.UUID, userID int) (*session.Session, error) {
	return s.rehydrate(ctx, examID, userID)
}

func (s *SessionService) submitSession(ctx context.Context, sess *session.Session) (*model.ExamHistory, error) {
	examID := sess.ExamID()
	userID := sess.UserID()

	// The lock is scoped to the attempt through its start timestamp, so a
	// retake can never lose to a stale lock from an earlier attempt.
	var attempt int64
	if st := sess.Snapshot(); st.StartedAt != nil {
		attempt = st.StartedAt.UnixNano()
	}
	lockKey := config.CacheKey.SubmitLockKey(examID.String(), userID, attempt)

	record, err := sess.Submit(func(rec *model.ExamHistory) error {
		// Cross-process guard: only the first submitter for this attempt
		// pushes a record. SetNX loses ⇒ another node already submitted.
		won, err := s.rdb.SetNX(ctx, lockKey, rec.ID.String(), 24*time.Hour).Result()
		if err != nil {
			return fmt.Errorf("acquire submit lock: %w", err)
		}
		if !won {
			return nil
		}

		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		if err := s.rdb.RPush(ctx, config.WorkerKey.PersistHistoryQueue, raw).Err(); err != nil {
			// Release the lock so a retry can win it again.
			s.rdb.Del(ctx, lockKey)
			return fmt.Errorf("queue record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.clearMirror(ctx, examID, userID)
	s.log.Info().
		Str("exam_id", examID.String()).
		Int("user_id", userID).
		Int("score", record.Score).
		Msg("Session submitted")
	return record, nil
}

// live returns the in-registry session, rehydrating from Redis if needed.
func (s *SessionService) live(ctx context.Context, examID uuid.UUID, userID int) (*session.Session, error) {
	if sess := s.registry.Get(examID, userID); sess != nil {
		return sess, nil
	}
	return s.rehydrate(ctx, examID, userID)
}

func (s *SessionService) rehydrate(ctx context.Context, examID uuid.UUID, userID int) (*session.Session, error) {
	id := examID.String()

	val, err := s.rdb.Get(ctx, config.CacheKey.SessionStartKey(id, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoActiveSession
	}
	if err != nil {
		return nil, fmt.Errorf("read session start: %w", err)
	}
	startNano, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid start time in cache: %w", err)
	}

	payload, err := s.examService.GetPayload(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam payload: %w", err)
	}

	rawAnswers, err := s.rdb.HGetAll(ctx, config.CacheKey.SessionAnswersKey(id, userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}
	rawFlags, err := s.rdb.SMembers(ctx, config.CacheKey.SessionFlagsKey(id, userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read flags: %w", err)
	}
	rawTimes, err := s.rdb.HGetAll(ctx, config.CacheKey.SessionTimesKey(id, userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read times: %w", err)
	}

	answers := make(map[uuid.UUID]string, len(rawAnswers))
	for qid, ans := range rawAnswers {
		if parsed, err := uuid.Parse(qid); err == nil {
			answers[parsed] = ans
		}
	}
	flags := make([]uuid.UUID, 0, len(rawFlags))
	for _, qid := range rawFlags {
		if parsed, err := uuid.Parse(qid); err == nil {
			flags = append(flags, parsed)
		}
	}
	times := make(map[uuid.UUID]time.Duration, len(rawTimes))
	for qid, msStr := range rawTimes {
		parsed, err := uuid.Parse(qid)
		if err != nil {
			continue
		}
		if ms, err := strconv.ParseInt(msStr, 10, 64); err == nil {
			times[parsed] = time.Duration(ms) * time.Millisecond
		}
	}

	sess := session.New(examID, userID, payload.DurationMinutes, payload.Questions)
	sess.Restore(time.Unix(0, startNano), answers, flags, times)
	s.registry.Put(sess)
	return sess, nil
}

// clearMirror removes the Redis hot-state of a session. The submit lock is
// intentionally kept: it is the cross-process idempotency marker.
func (s *SessionService) clearMirror(ctx context.Context, examID uuid.UUID, userID int) {
	id := examID.String()
	pipe := s.rdb.Pipeline()
	pipe.Del(ctx,
		config.CacheKey.SessionStartKey(id, userID),
		config.CacheKey.SessionAnswersKey(id, userID),
		config.CacheKey.SessionFlagsKey(id, userID),
		config.CacheKey.SessionTimesKey(id, userID),
	)
	pipe.ZRem(ctx, config.CacheKey.SessionDeadlinesKey(), deadlineMember(examID, userID))
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Session mirror cleanup failed")
	}
}

// deadlineMember encodes (examID, userID) as a deadline zset member.
func deadlineMember(examID uuid.UUID, userID int) string {
	return examID.String() + "|" + strconv.Itoa(userID)
}

// ParseDeadlineMember decodes a deadline zset member.
func ParseDeadlineMember(member string) (uuid.UUID, int, error) {
	parts := strings.SplitN(member, "|", 2)
	if len(parts) != 2 {
		return uuid.Nil, 0, fmt.Errorf("malformed deadline member: %q", member)
	}
	examID, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("malformed exam id in member: %w", err)
	}
	userID, err := strconv.Atoi(parts[1])
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("malformed user id in member: %w", err)
	}
	return examID, userID, nil
}
