package session

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/prepdesk/prepdesk-backend/internal/model"
)

// Grade derives a write-once ExamHistory from the question list, answer map,
// and per-question timings. It is a pure function: the record depends on
// nothing but its inputs.
//
// score = round(100 * correct / total); correct + incorrect + unanswered
// == total; answered + unanswered == total. An empty-string answer counts
// as unanswered, not as incorrect.
func Grade(
	examID uuid.UUID,
	userID int,
	questions []model.Question,
	answers map[uuid.UUID]string,
	times map[uuid.UUID]time.Duration,
	timeTaken time.Duration,
) *model.ExamHistory {
	total := len(questions)
	correct := 0
	answered := 0
	results := make([]model.QuestionResult, 0, total)

	for _, q := range questions {
		selected, ok := answers[q.ID]
		if ok && selected != "" {
			answered++
		}
		isCorrect := ok && selected == q.CorrectAnswer
		if isCorrect {
			correct++
		}
		results = append(results, model.QuestionResult{
			QuestionID:       q.ID,
			SelectedAnswer:   selected,
			CorrectAnswer:    q.CorrectAnswer,
			IsCorrect:        isCorrect,
			TimeSpentSeconds: int(math.Round(times[q.ID].Seconds())),
		})
	}

	score := 0
	if total > 0 {
		score = int(math.Round(100 * float64(correct) / float64(total)))
	}

	return &model.ExamHistory{
		ID:               uuid.New(),
		ExamID:           examID,
		UserID:           userID,
		Score:            score,
		CorrectCount:     correct,
		IncorrectCount:   answered - correct,
		UnansweredCount:  total - answered,
		TotalQuestions:   total,
		TimeTakenSeconds: int(math.Round(timeTaken.Seconds())),
		Results:          results,
	}
}
