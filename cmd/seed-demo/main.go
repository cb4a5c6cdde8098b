package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prepdesk/prepdesk-backend/internal/config"
	"github.com/prepdesk/prepdesk-backend/internal/database"
	"github.com/prepdesk/prepdesk-backend/internal/logger"
	"github.com/prepdesk/prepdesk-backend/internal/model"
	"github.com/prepdesk/prepdesk-backend/internal/repository"
)

type demoQuestion struct {
	text    string
	options []string
	correct string
	explain string
}

type demoExam struct {
	title     string
	duration  int
	examType  model.ExamType
	questions []demoQuestion
}

type demoSubject struct {
	name        string
	description string
	lessons     []string
	exams       []demoExam
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	subjectRepo := repository.NewSubjectRepository(pool)
	lessonRepo := repository.NewLessonRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	fmt.Println("=== Seeding demo catalog ===")

	for _, ds := range demoCatalog() {
		subject := &model.Subject{
			Name:        ds.name,
			Description: ds.description,
		}
		if err := subjectRepo.Create(ctx, subject); err != nil {
			log.Fatal().Err(err).Str("subject", ds.name).Msg("Failed to create subject")
		}
		fmt.Printf("Subject %q created\n", ds.name)

		for i, title := range ds.lessons {
			lesson := &model.Lesson{
				SubjectID: subject.ID,
				Title:     title,
				Body:      fmt.Sprintf("Study notes for %s.", title),
				OrderNum:  i,
			}
			if err := lessonRepo.Create(ctx, lesson); err != nil {
				log.Fatal().Err(err).Str("lesson", title).Msg("Failed to create lesson")
			}
		}

		for _, de := range ds.exams {
			exam := &model.Exam{
				Title:           de.title,
				SubjectID:       subject.ID,
				DurationMinutes: de.duration,
				ExamType:        de.examType,
				Status:          model.ExamStatusDraft,
			}
			if err := examRepo.Create(ctx, exam); err != nil {
				log.Fatal().Err(err).Str("exam", de.title).Msg("Failed to create exam")
			}

			for i, dq := range de.questions {
				explain := dq.explain
				q := &model.Question{
					ExamID:        exam.ID,
					Text:          dq.text,
					Options:       dq.options,
					CorrectAnswer: dq.correct,
					Explanation:   &explain,
					OrderNum:      i,
				}
				if err := questionRepo.Create(ctx, q); err != nil {
					log.Fatal().Err(err).Str("exam", de.title).Int("q", i).Msg("Failed to create question")
				}
			}

			if err := examRepo.SetStatus(ctx, exam.ID, model.ExamStatusPublished); err != nil {
				log.Fatal().Err(err).Str("exam", de.title).Msg("Failed to publish exam")
			}
			fmt.Printf("  Exam %q published (%d questions)\n", de.title, len(de.questions))
		}
	}

	fmt.Println("Done. Run the server to prewarm exam caches.")
}

func demoCatalog() []demoSubject {
	return []demoSubject{
		{
			name:        "Mathematics",
			description: "Algebra, geometry, and basic calculus for exam preparation.",
			lessons:     []string{"Linear Equations", "Quadratic Functions", "Trigonometry Basics"},
			exams: []demoExam{
				{
					title:    "Algebra Mock Test",
					duration: 30,
					examType: model.ExamTypeMockTest,
					questions: []demoQuestion{
						{"What is the solution of 2x + 6 = 0?", []string{"x = -3", "x = 3", "x = -6", "x = 6"}, "x = -3", "Subtract 6 and divide by 2."},
						{"The discriminant of x^2 - 4x + 4 is:", []string{"0", "4", "8", "-4"}, "0", "b^2 - 4ac = 16 - 16 = 0."},
						{"sin(30°) equals:", []string{"1/2", "√2/2", "√3/2", "1"}, "1/2", "Standard unit circle value."},
						{"The slope of y = 5x - 2 is:", []string{"5", "-2", "2", "-5"}, "5", "In y = mx + b, m is the slope."},
						{"What is 7! / 5! ?", []string{"42", "21", "35", "56"}, "42", "7 × 6 = 42."},
					},
				},
			},
		},
		{
			name:        "Physics",
			description: "Mechanics and electricity fundamentals.",
			lessons:     []string{"Kinematics", "Newton's Laws", "Ohm's Law"},
			exams: []demoExam{
				{
					title:    "Mechanics Practice Set",
					duration: 20,
					examType: model.ExamTypePractice,
					questions: []demoQuestion{
						{"The SI unit of force is:", []string{"Newton", "Joule", "Watt", "Pascal"}, "Newton", "F = ma has units kg·m/s²."},
						{"An object in free fall near Earth accelerates at roughly:", []string{"9.8 m/s²", "6.7 m/s²", "12 m/s²", "3.0 m/s²"}, "9.8 m/s²", "Standard gravity."},
						{"V = IR is known as:", []string{"Ohm's law", "Hooke's law", "Boyle's law", "Faraday's law"}, "Ohm's law", "Voltage equals current times resistance."},
						{"Work done by a force perpendicular to motion is:", []string{"Zero", "Maximum", "Negative", "Infinite"}, "Zero", "W = F·d·cos(90°) = 0."},
					},
				},
			},
		},
		{
			name:        "English",
			description: "Grammar and reading comprehension drills.",
			lessons:     []string{"Tenses Review", "Common Idioms"},
			exams: []demoExam{
				{
					title:    "Grammar Past Paper",
					duration: 15,
					examType: model.ExamTypePastPaper,
					questions: []demoQuestion{
						{"She ___ to the store yesterday.", []string{"went", "goes", "gone", "going"}, "went", "Past simple for a finished action."},
						{"Choose the correct plural of 'analysis':", []string{"analyses", "analysises", "analysi", "analysis"}, "analyses", "Greek-origin noun."},
						{"'Break the ice' means:", []string{"Start a conversation", "Destroy something", "Cool a drink", "End a meeting"}, "Start a conversation", "Common idiom."},
					},
				},
			},
		},
	}
}
