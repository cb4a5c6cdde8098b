package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prepdesk/prepdesk-backend/internal/model"
)

// Status enumerates the lifecycle states of an exam session.
type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// Session lifecycle and guard errors.
var (
	ErrNotStarted       = errors.New("session has not been started")
	ErrAlreadyStarted   = errors.New("session is already in progress")
	ErrAlreadyCompleted = errors.New("session is already completed")
	ErrSubmitInFlight   = errors.New("a submit is already in flight")
	ErrUnknownQuestion  = errors.New("question does not belong to this session")
	ErrIndexOutOfRange  = errors.New("question index out of range")
)

// Clock returns the current time. Injectable for tests.
type Clock func() time.Time

// Session is the state machine for one timed exam attempt. All methods are
// safe for concurrent use: a deadline tick and a manual submit may race, and
// exactly one of them wins.
type Session struct {
	mu sync.Mutex

	examID    uuid.UUID
	userID    int
	duration  time.Duration
	questions []model.Question
	byID      map[uuid.UUID]int

	status      Status
	startedAt   time.Time
	answers     map[uuid.UUID]string
	flags       map[uuid.UUID]struct{}
	times       map[uuid.UUID]time.Duration
	activeIndex int
	activeSince time.Time

	submitting bool
	result     *model.ExamHistory

	now Clock
}

// New builds an unstarted session over the given question list.
func New(examID uuid.UUID, userID int, durationMinutes int, questions []model.Question) *Session {
	s := &Session{
		examID:    examID,
		userID:    userID,
		duration:  time.Duration(durationMinutes) * time.Minute,
		questions: questions,
		byID:      make(map[uuid.UUID]int, len(questions)),
		status:    StatusNotStarted,
		answers:   make(map[uuid.UUID]string),
		flags:     make(map[uuid.UUID]struct{}),
		times:     make(map[uuid.UUID]time.Duration),
		now:       time.Now,
	}
	for i, q := range questions {
		s.byID[q.ID] = i
	}
	return s
}

// WithClock replaces the session's time source. Call before Start.
func (s *Session) WithClock(now Clock) *Session {
	s.now = now
	return s
}

// Start transitions not-started → in-progress and begins the countdown.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case StatusInProgress:
		return ErrAlreadyStarted
	case StatusCompleted:
		return ErrAlreadyCompleted
	}

	now := s.now()
	s.status = StatusInProgress
	s.startedAt = now
	s.activeIndex = 0
	s.activeSince = now
	return nil
}

// Reset returns a completed session to not-started for a retake. Answers,
// flags, and timings are cleared.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = StatusNotStarted
	s.answers = make(map[uuid.UUID]string)
	s.flags = make(map[uuid.UUID]struct{})
	s.times = make(map[uuid.UUID]time.Duration)
	s.activeIndex = 0
	s.submitting = false
	s.result = nil
}

// SetAnswer records the selected option for a question, overwriting any prior
// selection (single-choice semantics). No correctness check happens here.
func (s *Session) SetAnswer(questionID uuid.UUID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInProgress(); err != nil {
		return err
	}
	if _, ok := s.byID[questionID]; !ok {
		return ErrUnknownQuestion
	}
	s.answers[questionID] = value
	return nil
}

// ToggleFlag adds or removes a question from the review-later set and
// reports whether the question is flagged afterwards.
func (s *Session) ToggleFlag(questionID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInProgress(); err != nil {
		return false, err
	}
	if _, ok := s.byID[questionID]; !ok {
		return false, ErrUnknownQuestion
	}
	if _, flagged := s.flags[questionID]; flagged {
		delete(s.flags, questionID)
		return false, nil
	}
	s.flags[questionID] = struct{}{}
	return true, nil
}

// Goto makes the question at index active, accumulating the elapsed viewing
// time of the previously active question first. Navigation is unrestricted.
func (s *Session) Goto(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireInProgress(); err != nil {
		return err
	}
	if index < 0 || index >= len(s.questions) {
		return ErrIndexOutOfRange
	}
	s.flushActiveTime()
	s.activeIndex = index
	return nil
}

// Next advances to the following question, clamping at the last one.
func (s *Session) Next() error {
	s.mu.Lock()
	idx := s.activeIndex
	s.mu.Unlock()
	if idx+1 >= len(s.questions) {
		return s.Goto(idx)
	}
	return s.Goto(idx + 1)
}

// Prev moves to the preceding question, clamping at the first one.
func (s *Session) Prev() error {
	s.mu.Lock()
	idx := s.activeIndex
	s.mu.Unlock()
	if idx == 0 {
		return s.Goto(0)
	}
	return s.Goto(idx - 1)
}

// Remaining reports the time left on the countdown. Zero once expired.
func (s *Session) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusInProgress {
		return 0
	}
	left := s.duration - s.now().Sub(s.startedAt)
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether the countdown has run out on an in-progress session.
func (s *Session) Expired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.status == StatusInProgress && s.now().Sub(s.startedAt) >= s.duration
}

// Submit grades the session and hands the record to persist. It is
// single-flight: while a submit is in flight every other call returns
// ErrSubmitInFlight, and once completed every call returns
// ErrAlreadyCompleted, so a late timer tick racing a manual submit can
// never produce a second persisted record.
//
// If persist fails the session stays in-progress with all answers intact
// and Submit may be retried.
func (s *Session) Submit(persist func(*model.ExamHistory) error) (*model.ExamHistory, error) {
	s.mu.Lock()
	switch {
	case s.status == StatusNotStarted:
		s.mu.Unlock()
		return nil, ErrNotStarted
	case s.status == StatusCompleted:
		s.mu.Unlock()
		return nil, ErrAlreadyCompleted
	case s.submitting:
		s.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	s.submitting = true
	s.flushActiveTime()

	timeTaken := s.now().Sub(s.startedAt)
	if timeTaken > s.duration {
		timeTaken = s.duration
	}
	record := Grade(s.examID, s.userID, s.questions, s.answers, s.times, timeTaken)
	record.SubmittedAt = s.now()
	s.mu.Unlock()

	// Persist outside the lock: a slow network call must not block reads.
	if err := persist(record); err != nil {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	s.status = StatusCompleted
	s.submitting = false
	s.result = record
	s.mu.Unlock()
	return record, nil
}

// Result returns the graded record of a completed session, or nil.
func (s *Session) Result() *model.ExamHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Questions returns the session's question list.
func (s *Session) Questions() []model.Question {
	return s.questions
}

// ExamID returns the exam this session belongs to.
func (s *Session) ExamID() uuid.UUID { return s.examID }

// UserID returns the session owner.
func (s *Session) UserID() int { return s.userID }

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// State is a read-only snapshot of a session, shaped for the wire.
type State struct {
	ExamID           uuid.UUID         `json:"exam_id"`
	UserID           int               `json:"user_id"`
	Status           Status            `json:"status"`
	StartedAt        *time.Time        `json:"started_at,omitempty"`
	ActiveIndex      int               `json:"active_index"`
	Answers          map[string]string `json:"answers"`
	Flags            []string          `json:"flags"`
	TimeSpentMS      map[string]int64  `json:"time_spent_ms"`
	RemainingSeconds float64           `json:"remaining_seconds"`
}

// Snapshot captures the current session state without mutating it.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		ExamID:      s.examID,
		UserID:      s.userID,
		Status:      s.status,
		ActiveIndex: s.activeIndex,
		Answers:     make(map[string]string, len(s.answers)),
		Flags:       make([]string, 0, len(s.flags)),
		TimeSpentMS: make(map[string]int64, len(s.times)),
	}
	for qid, ans := range s.answers {
		st.Answers[qid.String()] = ans
	}
	for qid := range s.flags {
		st.Flags = append(st.Flags, qid.String())
	}
	for qid, d := range s.times {
		st.TimeSpentMS[qid.String()] = d.Milliseconds()
	}
	if s.status != StatusNotStarted {
		started := s.startedAt
		st.StartedAt = &started
	}
	if s.status == StatusInProgress {
		left := s.duration - s.now().Sub(s.startedAt)
		if left < 0 {
			left = 0
		}
		st.RemainingSeconds = left.Seconds()
	}
	return st
}

// Restore overwrites answers, flags, and timings from previously autosaved
// state. Used to rehydrate a session after a process restart; unknown
// question ids are dropped so the invariant answers ⊆ questions holds.
func (s *Session) Restore(startedAt time.Time, answers map[uuid.UUID]string, flags []uuid.UUID, times map[uuid.UUID]time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = StatusInProgress
	s.startedAt = startedAt
	s.activeSince = s.now()
	for qid, ans := range answers {
		if _, ok := s.byID[qid]; ok {
			s.answers[qid] = ans
		}
	}
	for _, qid := range flags {
		if _, ok := s.byID[qid]; ok {
			s.flags[qid] = struct{}{}
		}
	}
	for qid, d := range times {
		if _, ok := s.byID[qid]; ok && d > 0 {
			s.times[qid] = d
		}
	}
}

func (s *Session) requireInProgress() error {
	switch s.status {
	case StatusNotStarted:
		return ErrNotStarted
	case StatusCompleted:
		return ErrAlreadyCompleted
	}
	if s.submitting {
		// The grading snapshot is already taken; a late mutation would
		// diverge from the record being persisted.
		return ErrSubmitInFlight
	}
	return nil
}

// flushActiveTime accumulates the wall-clock time the active question has
// been visible into the per-question time map. Callers hold s.mu.
func (s *Session) flushActiveTime() {
	if len(s.questions) == 0 || s.activeIndex >= len(s.questions) {
		return
	}
	now := s.now()
	elapsed := now.Sub(s.activeSince)
	if elapsed > 0 {
		qid := s.questions[s.activeIndex].ID
		s.times[qid] += elapsed
	}
	s.activeSince = now
}
