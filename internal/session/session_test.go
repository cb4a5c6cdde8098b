package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prepdesk/prepdesk-backend/internal/model"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func threeQuestions() []model.Question {
	examID := uuid.New()
	mk := func(correct string, order int) model.Question {
		return model.Question{
			ID:            uuid.New(),
			ExamID:        examID,
			Text:          "q",
			Options:       []string{"A", "B", "C", "D", "X"},
			CorrectAnswer: correct,
			OrderNum:      order,
		}
	}
	return []model.Question{mk("A", 0), mk("B", 1), mk("C", 2)}
}

func startedSession(t *testing.T, questions []model.Question, durationMinutes int) (*Session, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	s := New(uuid.New(), 42, durationMinutes, questions).WithClock(clock.Now)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s, clock
}

func TestGradeThreeQuestionScenario(t *testing.T) {
	qs := threeQuestions()
	answers := map[uuid.UUID]string{
		qs[0].ID: "A", // correct
		qs[1].ID: "X", // incorrect
		// qs[2] unanswered
	}

	rec := Grade(qs[0].ExamID, 1, qs, answers, nil, 5*time.Minute)

	if rec.Score != 33 {
		t.Errorf("score = %d, want 33", rec.Score)
	}
	if rec.CorrectCount != 1 || rec.IncorrectCount != 1 || rec.UnansweredCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 1/1/1",
			rec.CorrectCount, rec.IncorrectCount, rec.UnansweredCount)
	}
	if rec.CorrectCount+rec.IncorrectCount+rec.UnansweredCount != rec.TotalQuestions {
		t.Errorf("counts do not add up to total %d", rec.TotalQuestions)
	}
	if rec.TimeTakenSeconds != 300 {
		t.Errorf("time taken = %d, want 300", rec.TimeTakenSeconds)
	}
	if len(rec.Results) != 3 {
		t.Fatalf("results = %d, want 3", len(rec.Results))
	}
	if !rec.Results[0].IsCorrect || rec.Results[1].IsCorrect || rec.Results[2].IsCorrect {
		t.Errorf("unexpected correctness pattern: %+v", rec.Results)
	}
	if rec.Results[2].SelectedAnswer != "" {
		t.Errorf("unanswered question should have empty selected answer")
	}
}

func TestGradeEmptyAnswerIsUnanswered(t *testing.T) {
	qs := threeQuestions()
	rec := Grade(qs[0].ExamID, 1, qs, map[uuid.UUID]string{qs[0].ID: ""}, nil, 0)
	if rec.UnansweredCount != 3 {
		t.Errorf("unanswered = %d, want 3", rec.UnansweredCount)
	}
	if rec.IncorrectCount != 0 {
		t.Errorf("incorrect = %d, want 0", rec.IncorrectCount)
	}
}

func TestGradeNoQuestions(t *testing.T) {
	rec := Grade(uuid.New(), 1, nil, nil, nil, 0)
	if rec.Score != 0 || rec.TotalQuestions != 0 {
		t.Errorf("empty exam should grade to zero, got %+v", rec)
	}
}

func TestAnswersStableUnderNavigation(t *testing.T) {
	qs := threeQuestions()
	s, clock := startedSession(t, qs, 30)

	if err := s.SetAnswer(qs[0].ID, "A"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := s.SetAnswer(qs[1].ID, "B"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}

	for i := 0; i < 10; i++ {
		clock.Advance(time.Second)
		if err := s.Goto(i % 3); err != nil {
			t.Fatalf("Goto: %v", err)
		}
	}

	st := s.Snapshot()
	if st.Answers[qs[0].ID.String()] != "A" || st.Answers[qs[1].ID.String()] != "B" {
		t.Errorf("answers lost under navigation: %v", st.Answers)
	}
	if len(st.Answers) != 2 {
		t.Errorf("answer map grew unexpectedly: %v", st.Answers)
	}
}

func TestSetAnswerOverwritesPriorSelection(t *testing.T) {
	qs := threeQuestions()
	s, _ := startedSession(t, qs, 30)

	_ = s.SetAnswer(qs[0].ID, "B")
	_ = s.SetAnswer(qs[0].ID, "A")

	if got := s.Snapshot().Answers[qs[0].ID.String()]; got != "A" {
		t.Errorf("answer = %q, want %q", got, "A")
	}
}

func TestSetAnswerRejectsUnknownQuestion(t *testing.T) {
	qs := threeQuestions()
	s, _ := startedSession(t, qs, 30)

	if err := s.SetAnswer(uuid.New(), "A"); !errors.Is(err, ErrUnknownQuestion) {
		t.Errorf("err = %v, want ErrUnknownQuestion", err)
	}
}

func TestToggleFlagIsSymmetric(t *testing.T) {
	qs := threeQuestions()
	s, _ := startedSession(t, qs, 30)

	flagged, err := s.ToggleFlag(qs[1].ID)
	if err != nil || !flagged {
		t.Fatalf("first toggle: flagged=%v err=%v", flagged, err)
	}
	flagged, err = s.ToggleFlag(qs[1].ID)
	if err != nil || flagged {
		t.Fatalf("second toggle: flagged=%v err=%v", flagged, err)
	}
	if len(s.Snapshot().Flags) != 0 {
		t.Errorf("flag set should be empty after two toggles")
	}
}

func TestQuestionTimeMonotonicAcrossVisits(t *testing.T) {
	qs := threeQuestions()
	s, clock := startedSession(t, qs, 30)
	q0 := qs[0].ID.String()

	clock.Advance(4 * time.Second)
	_ = s.Goto(1) // leave q0 after 4s

	first := s.Snapshot().TimeSpentMS[q0]
	if first != 4000 {
		t.Fatalf("first visit = %dms, want 4000", first)
	}

	clock.Advance(2 * time.Second)
	_ = s.Goto(0) // back to q0
	clock.Advance(3 * time.Second)
	_ = s.Goto(2) // leave again after 3s

	second := s.Snapshot().TimeSpentMS[q0]
	if second != 7000 {
		t.Errorf("accumulated = %dms, want 7000", second)
	}
	if second < first {
		t.Errorf("per-question time decreased: %d -> %d", first, second)
	}
}

func TestSubmitFlushesActiveQuestionTime(t *testing.T) {
	qs := threeQuestions()
	s, clock := startedSession(t, qs, 30)

	clock.Advance(12 * time.Second)
	rec, err := s.Submit(func(*model.ExamHistory) error { return nil })
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if rec.Results[0].TimeSpentSeconds != 12 {
		t.Errorf("active question time = %ds, want 12", rec.Results[0].TimeSpentSeconds)
	}
	if rec.TimeTakenSeconds != 12 {
		t.Errorf("time taken = %ds, want 12", rec.TimeTakenSeconds)
	}
}

func TestSubmitIsSingleFlight(t *testing.T) {
	qs := threeQuestions()
	s, _ := startedSession(t, qs, 30)

	persists := 0
	persist := func(*model.ExamHistory) error {
		persists++
		return nil
	}

	if _, err := s.Submit(persist); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if _, err := s.Submit(persist); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("second Submit err = %v, want ErrAlreadyCompleted", err)
	}
	if persists != 1 {
		t.Errorf("persist calls = %d, want exactly 1", persists)
	}
}

func TestConcurrentSubmitPersistsOnce(t *testing.T) {
	qs := threeQuestions()
	s, _ := startedSession(t, qs, 30)

	var mu sync.Mutex
	persists := 0
	persist := func(*model.ExamHistory) error {
		mu.Lock()
		persists++
		mu.Unlock()
		time.Sleep(5 * time.Millisecond) // widen the race window
		return nil
	}

	// Simulate the timer tick racing a manual submit.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Submit(persist)
		}()
	}
	wg.Wait()

	if persists != 1 {
		t.Errorf("persist calls = %d, want exactly 1", persists)
	}
	if s.Status() != StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", s.Status())
	}
}

func TestMutationsRejectedWhileSubmitInFlight(t *testing.T) {
	qs := threeQuestions()
	s, _ := startedSession(t, qs, 30)

	persistEntered := make(chan struct{})
	release := make(chan struct{})
	persist := func(*model.ExamHistory) error {
		close(persistEntered)
		<-release
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Submit(persist)
	}()
	<-persistEntered

	// The grading snapshot is taken; a late answer must not slip past it
	// and diverge the autosaved state from the graded record.
	if err := s.SetAnswer(qs[0].ID, "A"); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("SetAnswer during submit err = %v, want ErrSubmitInFlight", err)
	}
	if _, err := s.ToggleFlag(qs[1].ID); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("ToggleFlag during submit err = %v, want ErrSubmitInFlight", err)
	}
	if err := s.Goto(2); !errors.Is(err, ErrSubmitInFlight) {
		t.Errorf("Goto during submit err = %v, want ErrSubmitInFlight", err)
	}

	close(release)
	<-done
	if s.Status() != StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", s.Status())
	}
}

func TestSubmitFailureKeepsAnswersAndAllowsRetry(t *testing.T) {
	qs := threeQuestions()
	s, _ := startedSession(t, qs, 30)
	_ = s.SetAnswer(qs[0].ID, "A")

	boom := errors.New("backend unavailable")
	if _, err := s.Submit(func(*model.ExamHistory) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("Submit err = %v, want %v", err, boom)
	}
	if s.Status() != StatusInProgress {
		t.Fatalf("status after failed submit = %s, want IN_PROGRESS", s.Status())
	}
	if s.Snapshot().Answers[qs[0].ID.String()] != "A" {
		t.Fatalf("answers lost after failed submit")
	}

	rec, err := s.Submit(func(*model.ExamHistory) error { return nil })
	if err != nil {
		t.Fatalf("retry Submit: %v", err)
	}
	if rec.CorrectCount != 1 {
		t.Errorf("retry graded %d correct, want 1", rec.CorrectCount)
	}
}

func TestExpiryAutoSubmitExactlyOnce(t *testing.T) {
	qs := make([]model.Question, 0, 5)
	examID := uuid.New()
	for i := 0; i < 5; i++ {
		qs = append(qs, model.Question{
			ID: uuid.New(), ExamID: examID,
			Options: []string{"A", "B"}, CorrectAnswer: "A", OrderNum: i,
		})
	}

	s, clock := startedSession(t, qs, 10)
	_ = s.SetAnswer(qs[0].ID, "A")
	_ = s.SetAnswer(qs[1].ID, "B")

	clock.Advance(10 * time.Minute)
	if !s.Expired() {
		t.Fatal("session should be expired")
	}

	persists := 0
	persist := func(*model.ExamHistory) error {
		persists++
		return nil
	}

	// The deadline tick and a late manual submit both fire.
	rec, err := s.Submit(persist)
	if err != nil {
		t.Fatalf("auto submit: %v", err)
	}
	if _, err := s.Submit(persist); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("late submit err = %v, want ErrAlreadyCompleted", err)
	}

	if persists != 1 {
		t.Errorf("persist calls = %d, want 1", persists)
	}
	if rec.UnansweredCount != 3 {
		t.Errorf("unanswered = %d, want 3", rec.UnansweredCount)
	}
	if rec.TimeTakenSeconds != 600 {
		t.Errorf("time taken clamped = %d, want 600", rec.TimeTakenSeconds)
	}
}

func TestRemainingSecondsCountsDownAndClamps(t *testing.T) {
	qs := threeQuestions()
	s, clock := startedSession(t, qs, 1)

	if got := s.Remaining(); got != time.Minute {
		t.Errorf("remaining = %v, want 1m", got)
	}
	clock.Advance(40 * time.Second)
	if got := s.Remaining(); got != 20*time.Second {
		t.Errorf("remaining = %v, want 20s", got)
	}
	clock.Advance(time.Hour)
	if got := s.Remaining(); got != 0 {
		t.Errorf("remaining = %v, want 0", got)
	}
}

func TestMutationsRejectedOutsideInProgress(t *testing.T) {
	qs := threeQuestions()
	clock := newFakeClock()
	s := New(uuid.New(), 7, 30, qs).WithClock(clock.Now)

	if err := s.SetAnswer(qs[0].ID, "A"); !errors.Is(err, ErrNotStarted) {
		t.Errorf("SetAnswer before start: %v, want ErrNotStarted", err)
	}
	if _, err := s.Submit(func(*model.ExamHistory) error { return nil }); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Submit before start: %v, want ErrNotStarted", err)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("double Start: %v, want ErrAlreadyStarted", err)
	}

	if _, err := s.Submit(func(*model.ExamHistory) error { return nil }); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := s.SetAnswer(qs[0].ID, "A"); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("SetAnswer after submit: %v, want ErrAlreadyCompleted", err)
	}
}

func TestResetAllowsRetake(t *testing.T) {
	qs := threeQuestions()
	s, _ := startedSession(t, qs, 30)
	_ = s.SetAnswer(qs[0].ID, "A")
	if _, err := s.Submit(func(*model.ExamHistory) error { return nil }); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	s.Reset()
	if s.Status() != StatusNotStarted {
		t.Fatalf("status after reset = %s", s.Status())
	}
	if err := s.Start(); err != nil {
		t.Fatalf("restart after reset: %v", err)
	}
	if len(s.Snapshot().Answers) != 0 {
		t.Errorf("answers should be cleared on retake")
	}
}

func TestRegistryRoundTripAndExpiry(t *testing.T) {
	reg := NewRegistry()
	qs := threeQuestions()
	s, clock := startedSession(t, qs, 1)

	reg.Put(s)
	if got := reg.Get(s.ExamID(), s.UserID()); got != s {
		t.Fatal("Get did not return the stored session")
	}
	if n := len(reg.Expired()); n != 0 {
		t.Fatalf("expired = %d, want 0", n)
	}

	clock.Advance(2 * time.Minute)
	if n := len(reg.Expired()); n != 1 {
		t.Fatalf("expired = %d, want 1", n)
	}

	reg.Delete(s.ExamID(), s.UserID())
	if reg.Get(s.ExamID(), s.UserID()) != nil {
		t.Error("session still present after Delete")
	}
}
