package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionStartKey returns the cache key for a user's exam session start time.
func (r *CacheKeyStruct) SessionStartKey(examID string, userID int) string {
	return fmt.Sprintf("user:%d:exam:%s:session_start", userID, examID)
}

// SessionAnswersKey returns the cache key for a user's autosaved answers.
func (r *CacheKeyStruct) SessionAnswersKey(examID string, userID int) string {
	return fmt.Sprintf("user:%d:exam:%s:answers", userID, examID)
}

// SessionFlagsKey returns the cache key for a user's flagged question set.
func (r *CacheKeyStruct) SessionFlagsKey(examID string, userID int) string {
	return fmt.Sprintf("user:%d:exam:%s:flags", userID, examID)
}

// SessionTimesKey returns the cache key for a user's per-question time map.
func (r *CacheKeyStruct) SessionTimesKey(examID string, userID int) string {
	return fmt.Sprintf("user:%d:exam:%s:times", userID, examID)
}

// SubmitLockKey returns the single-flight lock key for one attempt's submit.
// The start timestamp scopes the lock to the attempt, so a retake never
// collides with the lock left by an earlier attempt.
func (r *CacheKeyStruct) SubmitLockKey(examID string, userID int, startedUnixNano int64) string {
	return fmt.Sprintf("user:%d:exam:%s:attempt:%d:submit_lock", userID, examID, startedUnixNano)
}

// SessionDeadlinesKey returns the sorted-set key holding session deadlines.
func (r *CacheKeyStruct) SessionDeadlinesKey() string {
	return "session:deadlines"
}

// ExamPayloadKey returns the cache key for an exam's question payload.
func (r *CacheKeyStruct) ExamPayloadKey(examID string) string {
	return fmt.Sprintf("exam:%s:payload", examID)
}

// ExamDurationKey returns the cache key for an exam's duration.
func (r *CacheKeyStruct) ExamDurationKey(examID string) string {
	return fmt.Sprintf("exam:%s:duration", examID)
}

// ExamAnswerKey returns the cache key for an exam's answer key.
func (r *CacheKeyStruct) ExamAnswerKey(examID string) string {
	return fmt.Sprintf("exam:%s:key", examID)
}

var CacheKey = NewCacheKeyStruct()
