package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/edustack/quiz-service/internal/events"
	"github.com/edustack/quiz-service/internal/models"
	"github.com/edustack/quiz-service/internal/repositories"
	"github.com/edustack/quiz-service/internal/validator"
)

func TestNewAttemptService(t *testing.T) {
	type args struct {
		repo      repositories.Repository
		db        *gorm.DB
		logger    *slog.Logger
		validator *validator.Validator
	}
	tests := []struct {
		name string
		args args
		want AttemptService
	}{
		{name: "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			NewAttemptService(tt.args.repo, tt.args.db, tt.args.logger, tt.args.validator, nil)
		})
	}
}

// newTestAttemptService wires an attempt service against an in-memory
// repository seeded with one published two-question quiz.
//
// Quiz 1: question 1 (10 pts, correct option 11), question 2 (20 pts,
// correct option 21). Student "student-1", instructor "instructor-1".
func newTestAttemptService(t *testing.T) (*attemptService, *mockRepository, *events.MockEventPublisher) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	repo := newMockRepository()
	publisher := events.NewMockEventPublisher(logger)

	repo.seedUser(&models.User{ID: "student-1", Role: models.RoleStudent})
	repo.seedUser(&models.User{ID: "student-2", Role: models.RoleStudent})
	repo.seedUser(&models.User{ID: "instructor-1", Role: models.RoleInstructor})

	repo.seedQuiz(
		&models.Quiz{ID: 1, Title: "Networking Basics", IsPublished: true, CreatedBy: "instructor-1"},
		[]*models.Question{
			{ID: 1, QuizID: 1, Text: "What does TCP stand for?", Points: 10, Position: 1, Options: []models.QuestionOption{
				{ID: 11, Text: "Transmission Control Protocol", IsCorrect: true, Position: 1},
				{ID: 12, Text: "Transfer Control Program", Position: 2},
			}},
			{ID: 2, QuizID: 1, Text: "Default HTTPS port?", Points: 20, Position: 2, Options: []models.QuestionOption{
				{ID: 21, Text: "443", IsCorrect: true, Position: 1},
				{ID: 22, Text: "80", Position: 2},
			}},
		},
	)
	repo.seedQuiz(
		&models.Quiz{ID: 2, Title: "Unpublished Draft", IsPublished: false, CreatedBy: "instructor-1"},
		[]*models.Question{
			{ID: 3, QuizID: 2, Text: "Draft question", Points: 10, Position: 1, Options: []models.QuestionOption{
				{ID: 31, Text: "a", IsCorrect: true, Position: 1},
				{ID: 32, Text: "b", Position: 2},
			}},
		},
	)

	svc := NewAttemptService(repo, nil, logger, validator.New(), publisher).(*attemptService)
	return svc, repo, publisher
}

func optionID(id uint) *uint { return &id }

func TestAttemptService_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("starts with snapshot total", func(t *testing.T) {
		svc, _, publisher := newTestAttemptService(t)

		attempt, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1")
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if attempt.Status != models.AttemptInProgress {
			t.Errorf("status = %s, want in_progress", attempt.Status)
		}
		if attempt.TotalPoints != 30 {
			t.Errorf("total points = %d, want 30", attempt.TotalPoints)
		}
		if attempt.Score != nil || attempt.SubmittedAt != nil {
			t.Error("fresh attempt must not carry a score or submit time")
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventAttemptStarted {
			t.Errorf("expected one attempt.started event, got %+v", published)
		}
	})

	t.Run("unpublished quiz is rejected", func(t *testing.T) {
		svc, _, _ := newTestAttemptService(t)

		_, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 2}, "student-1")
		if !errors.Is(err, ErrQuizNotPublished) {
			t.Errorf("error = %v, want ErrQuizNotPublished", err)
		}
	})

	t.Run("unknown quiz", func(t *testing.T) {
		svc, _, _ := newTestAttemptService(t)

		_, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 99}, "student-1")
		if !errors.Is(err, ErrQuizNotFound) {
			t.Errorf("error = %v, want ErrQuizNotFound", err)
		}
	})

	t.Run("second concurrent start conflicts", func(t *testing.T) {
		svc, _, _ := newTestAttemptService(t)

		if _, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1"); err != nil {
			t.Fatalf("first Start() error = %v", err)
		}
		_, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1")
		if !errors.Is(err, ErrActiveAttemptExists) {
			t.Errorf("error = %v, want ErrActiveAttemptExists", err)
		}
	})

	t.Run("other students are unaffected", func(t *testing.T) {
		svc, _, _ := newTestAttemptService(t)

		if _, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1"); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if _, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-2"); err != nil {
			t.Errorf("second student Start() error = %v", err)
		}
	})

	t.Run("new start allowed after submit", func(t *testing.T) {
		svc, _, _ := newTestAttemptService(t)

		first, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1")
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if _, err := svc.Submit(ctx, first.ID, "student-1"); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if _, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1"); err != nil {
			t.Errorf("Start() after submit error = %v", err)
		}
	})
}

func TestAttemptService_RecordAnswer(t *testing.T) {
	ctx := context.Background()

	t.Run("overwrite is idempotent per question", func(t *testing.T) {
		svc, repo, _ := newTestAttemptService(t)

		attempt, _ := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1")

		// Wrong answer first, then corrected, then answered again wrong
		if _, err := svc.RecordAnswer(ctx, attempt.ID, &RecordAnswerRequest{QuestionID: 1, SelectedOptionID: optionID(12)}, "student-1"); err != nil {
			t.Fatalf("RecordAnswer() error = %v", err)
		}
		if _, err := svc.RecordAnswer(ctx, attempt.ID, &RecordAnswerRequest{QuestionID: 1, SelectedOptionID: optionID(11)}, "student-1"); err != nil {
			t.Fatalf("RecordAnswer() error = %v", err)
		}

		count, _ := repo.Answer().CountByAttempt(ctx, nil, attempt.ID)
		if count != 1 {
			t.Errorf("answer rows = %d, want 1 (upsert, not append)", count)
		}

		answer, _ := repo.Answer().GetByAttemptAndQuestion(ctx, nil, attempt.ID, 1)
		if !answer.IsCorrect || answer.PointsEarned != 10 {
			t.Errorf("stored answer = correct:%v pts:%d, want correct:true pts:10", answer.IsCorrect, answer.PointsEarned)
		}
	})

	t.Run("skip records a row with null selection", func(t *testing.T) {
		svc, repo, _ := newTestAttemptService(t)

		attempt, _ := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1")
		if _, err := svc.RecordAnswer(ctx, attempt.ID, &RecordAnswerRequest{QuestionID: 1, SelectedOptionID: nil}, "student-1"); err != nil {
			t.Fatalf("RecordAnswer() skip error = %v", err)
		}

		answer, err := repo.Answer().GetByAttemptAndQuestion(ctx, nil, attempt.ID, 1)
		if err != nil {
			t.Fatalf("skip must persist an answer row: %v", err)
		}
		if answer.SelectedOptionID != nil || answer.IsCorrect || answer.PointsEarned != 0 {
			t.Errorf("skip row = %+v, want null selection and zero credit", answer)
		}
	})

	t.Run("grading stays hidden while in progress", func(t *testing.T) {
		svc, _, _ := newTestAttemptService(t)

		attempt, _ := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1")
		response, err := svc.RecordAnswer(ctx, attempt.ID, &RecordAnswerRequest{QuestionID: 1, SelectedOptionID: optionID(11)}, "student-1")
		if err != nil {
			t.Fatalf("RecordAnswer() error = %v", err)
		}
		if response.IsCorrect != nil || response.PointsEarned != nil {
			t.Error("correctness must not leak before submission")
		}
	})

	t.Run("foreign question is rejected", func(t *testing.T) {
		svc, _, _ := newTestAttemptService(t)

		attempt, _ := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1")
		_, err := svc.RecordAnswer(ctx, attempt.ID, &RecordAnswerRequest{QuestionID: 3, SelectedOptionID: optionID(31)}, "student-1")
		if !errors.Is(err, ErrQuestionNotInQuiz) {
			t.Errorf("error = %v, want ErrQuestionNotInQuiz", err)
		}
	})

	t.Run("option of another question is rejected", func(t *testing.T) {
		svc, _, _ := newTestAttemptService(t)

		attempt, _ := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1")
		_, err := svc.RecordAnswer(ctx, attempt.ID, &RecordAnswerRequest{QuestionID: 1, SelectedOptionID: optionID(21)}, "student-1")
		if !errors.Is(err, ErrOptionMismatch) {
			t.Errorf("error = %v, want ErrOptionMismatch", err)
		}
	})

	t.Run("not the owner", func(t *testing.T) {
		svc, _, _ := newTestAttemptService(t)

		attempt, _ := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1")
		_, err := svc.RecordAnswer(ctx, attempt.ID, &RecordAnswerRequest{QuestionID: 1, SelectedOptionID: optionID(11)}, "student-2")
		if !IsPermissionError(err) {
			t.Errorf("error = %v, want permission error", err)
		}
	})

	t.Run("completed attempt rejects answers", func(t *testing.T) {
		svc, _, _ := newTestAttemptService(t)

		attempt, _ := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1")
		if _, err := svc.Submit(ctx, attempt.ID, "student-1"); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}

		_, err := svc.RecordAnswer(ctx, attempt.ID, &RecordAnswerRequest{QuestionID: 1, SelectedOptionID: optionID(11)}, "student-1")
		if !errors.Is(err, ErrAttemptNotActive) {
			t.Errorf("error = %v, want ErrAttemptNotActive", err)
		}
	})

	t.Run("answers past the time limit are rejected", func(t *testing.T) {
		svc, repo, _ := newTestAttemptService(t)
		started := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return started }

		// 1-minute quiz with a single 10-point question
		repo.seedQuiz(
			&models.Quiz{ID: 4, Title: "Speed Round", IsPublished: true, TimeLimit: 1, CreatedBy: "instructor-1"},
			[]*models.Question{
				{ID: 8, QuizID: 4, Text: "Quick one", Points: 10, Position: 1, Options: []models.QuestionOption{
					{ID: 81, Text: "right", IsCorrect: true, Position: 1},
					{ID: 82, Text: "wrong", Position: 2},
				}},
			},
		)

		attempt, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 4}, "student-1")
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		// In time
		svc.now = func() time.Time { return started.Add(30 * time.Second) }
		if _, err := svc.RecordAnswer(ctx, attempt.ID, &RecordAnswerRequest{QuestionID: 8, SelectedOptionID: optionID(81)}, "student-1"); err != nil {
			t.Fatalf("RecordAnswer() error = %v", err)
		}

		// Past the deadline
		svc.now = func() time.Time { return started.Add(90 * time.Second) }
		_, err = svc.RecordAnswer(ctx, attempt.ID, &RecordAnswerRequest{QuestionID: 8, SelectedOptionID: optionID(82)}, "student-1")
		if !errors.Is(err, ErrAttemptTimeExpired) {
			t.Errorf("error = %v, want ErrAttemptTimeExpired", err)
		}

		// The expired attempt can still be finalized, scoring only the
		// answers that landed in time
		result, err := svc.Submit(ctx, attempt.ID, "student-1")
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if result.PointsEarned == nil || *result.PointsEarned != 10 {
			t.Errorf("points earned = %v, want 10 from the in-time answer", result.PointsEarned)
		}
		if result.Score == nil || *result.Score != 100 {
			t.Errorf("score = %v, want 100", result.Score)
		}
	})

	t.Run("untimed quiz never expires", func(t *testing.T) {
		svc, _, _ := newTestAttemptService(t)
		started := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return started }

		attempt, _ := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1")

		svc.now = func() time.Time { return started.Add(48 * time.Hour) }
		if _, err := svc.RecordAnswer(ctx, attempt.ID, &RecordAnswerRequest{QuestionID: 1, SelectedOptionID: optionID(11)}, "student-1"); err != nil {
			t.Errorf("RecordAnswer() error = %v, want accepted on untimed quiz", err)
		}
	})
}

func TestAttemptService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("scores answered, skipped and untouched questions", func(t *testing.T) {
		svc, _, publisher := newTestAttemptService(t)
		started := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return started }

		attempt, _ := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1")

		// Correct on q1 (10 pts), q2 left untouched
		if _, err := svc.RecordAnswer(ctx, attempt.ID, &RecordAnswerRequest{QuestionID: 1, SelectedOptionID: optionID(11)}, "student-1"); err != nil {
			t.Fatalf("RecordAnswer() error = %v", err)
		}

		svc.now = func() time.Time { return started.Add(95 * time.Second) }
		result, err := svc.Submit(ctx, attempt.ID, "student-1")
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}

		if result.Status != models.AttemptCompleted {
			t.Errorf("status = %s, want completed", result.Status)
		}
		if result.PointsEarned == nil || *result.PointsEarned != 10 {
			t.Errorf("points earned = %v, want 10", result.PointsEarned)
		}
		if result.TotalPoints != 30 {
			t.Errorf("total points = %d, want 30 (unanswered questions count)", result.TotalPoints)
		}
		want := float64(10) / float64(30) * 100
		if result.Score == nil || *result.Score != want {
			t.Errorf("score = %v, want exact %v", result.Score, want)
		}
		if result.SubmittedAt == nil || !result.SubmittedAt.Equal(started.Add(95*time.Second)) {
			t.Errorf("submitted at = %v, want started+95s", result.SubmittedAt)
		}
		if result.DurationSeconds == nil || *result.DurationSeconds != 95 {
			t.Errorf("duration = %v, want 95", result.DurationSeconds)
		}

		var sawCompleted bool
		for _, e := range publisher.GetPublishedEvents() {
			if e.Type == events.EventAttemptCompleted {
				sawCompleted = true
				data := e.Data.(events.AttemptCompletedEvent)
				if data.Score != want || data.PointsEarned != 10 || data.TotalPoints != 30 {
					t.Errorf("completed event = %+v, want score %v", data, want)
				}
			}
		}
		if !sawCompleted {
			t.Error("attempt.completed event was not published")
		}
	})

	t.Run("mid-attempt question edits never shift the score", func(t *testing.T) {
		svc, repo, _ := newTestAttemptService(t)

		attempt, _ := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1")
		if _, err := svc.RecordAnswer(ctx, attempt.ID, &RecordAnswerRequest{QuestionID: 1, SelectedOptionID: optionID(11)}, "student-1"); err != nil {
			t.Fatalf("RecordAnswer() error = %v", err)
		}

		// The quiz grows a 50-point question while the attempt is open
		repo.questions[9] = &models.Question{ID: 9, QuizID: 1, Text: "Late addition", Points: 50, Position: 3, Options: []models.QuestionOption{
			{ID: 91, QuestionID: 9, Text: "yes", IsCorrect: true, Position: 1},
		}}
		repo.options[91] = &repo.questions[9].Options[0]
		repo.quizzes[1].TotalPoints = 80

		result, err := svc.Submit(ctx, attempt.ID, "student-1")
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if result.TotalPoints != 30 {
			t.Errorf("total points = %d, want the start snapshot 30", result.TotalPoints)
		}
		want := float64(10) / float64(30) * 100
		if result.Score == nil || *result.Score != want {
			t.Errorf("score = %v, want %v against the snapshot", result.Score, want)
		}
	})

	t.Run("zero weight quiz scores zero", func(t *testing.T) {
		svc, repo, _ := newTestAttemptService(t)

		// A published quiz that has no questions at all
		repo.seedQuiz(&models.Quiz{ID: 5, Title: "Empty", IsPublished: true, CreatedBy: "instructor-1"}, nil)

		attempt, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 5}, "student-1")
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		result, err := svc.Submit(ctx, attempt.ID, "student-1")
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if result.Score == nil || *result.Score != 0 {
			t.Errorf("score = %v, want 0 for zero total weight", result.Score)
		}
	})

	t.Run("double submit is rejected and result unchanged", func(t *testing.T) {
		svc, _, _ := newTestAttemptService(t)

		attempt, _ := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1")
		if _, err := svc.RecordAnswer(ctx, attempt.ID, &RecordAnswerRequest{QuestionID: 2, SelectedOptionID: optionID(21)}, "student-1"); err != nil {
			t.Fatalf("RecordAnswer() error = %v", err)
		}

		first, err := svc.Submit(ctx, attempt.ID, "student-1")
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}

		if _, err := svc.Submit(ctx, attempt.ID, "student-1"); !errors.Is(err, ErrAttemptCompleted) {
			t.Errorf("second Submit() error = %v, want ErrAttemptCompleted", err)
		}

		// Stored result is untouched by the rejected submit
		after, err := svc.GetByID(ctx, attempt.ID, "student-1")
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if *after.Score != *first.Score || !after.SubmittedAt.Equal(*first.SubmittedAt) {
			t.Errorf("result changed after rejected submit: %+v vs %+v", after, first)
		}
	})

	t.Run("quiz owner can force-submit", func(t *testing.T) {
		svc, _, _ := newTestAttemptService(t)

		attempt, _ := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1")
		result, err := svc.Submit(ctx, attempt.ID, "instructor-1")
		if err != nil {
			t.Fatalf("forced Submit() error = %v", err)
		}
		if result.Status != models.AttemptCompleted {
			t.Errorf("status = %s, want completed", result.Status)
		}
	})

	t.Run("unrelated student cannot submit", func(t *testing.T) {
		svc, _, _ := newTestAttemptService(t)

		attempt, _ := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1")
		if _, err := svc.Submit(ctx, attempt.ID, "student-2"); !IsPermissionError(err) {
			t.Errorf("Submit() error = %v, want permission error", err)
		}
	})

	t.Run("completed attempt reveals grading", func(t *testing.T) {
		svc, _, _ := newTestAttemptService(t)

		attempt, _ := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1")
		if _, err := svc.RecordAnswer(ctx, attempt.ID, &RecordAnswerRequest{QuestionID: 1, SelectedOptionID: optionID(11)}, "student-1"); err != nil {
			t.Fatalf("RecordAnswer() error = %v", err)
		}
		if _, err := svc.Submit(ctx, attempt.ID, "student-1"); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}

		result, err := svc.GetByIDWithDetails(ctx, attempt.ID, "student-1")
		if err != nil {
			t.Fatalf("GetByIDWithDetails() error = %v", err)
		}
		if len(result.Answers) != 1 {
			t.Fatalf("answers = %d, want 1", len(result.Answers))
		}
		if result.Answers[0].IsCorrect == nil || !*result.Answers[0].IsCorrect {
			t.Error("grading must be revealed after completion")
		}
		if result.Answers[0].QuestionText == "" || result.Answers[0].QuestionPoints != 10 {
			t.Errorf("answer = %+v, want question text and points joined in", result.Answers[0])
		}
		if result.Answers[0].CorrectOptionID == nil || *result.Answers[0].CorrectOptionID != 11 {
			t.Errorf("correct option = %v, want 11", result.Answers[0].CorrectOptionID)
		}
	})
}

func TestAttemptService_Abandon(t *testing.T) {
	ctx := context.Background()

	t.Run("abandon discards attempt and answers", func(t *testing.T) {
		svc, repo, publisher := newTestAttemptService(t)

		attempt, _ := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1")
		if _, err := svc.RecordAnswer(ctx, attempt.ID, &RecordAnswerRequest{QuestionID: 1, SelectedOptionID: optionID(11)}, "student-1"); err != nil {
			t.Fatalf("RecordAnswer() error = %v", err)
		}

		if err := svc.Abandon(ctx, attempt.ID, "student-1"); err != nil {
			t.Fatalf("Abandon() error = %v", err)
		}

		if _, err := repo.Attempt().GetByID(ctx, nil, attempt.ID); !repositories.IsNotFoundError(err) {
			t.Error("attempt row must be gone after abandon")
		}
		count, _ := repo.Answer().CountByAttempt(ctx, nil, attempt.ID)
		if count != 0 {
			t.Errorf("answer rows = %d, want 0 after abandon", count)
		}

		// The student can start fresh immediately
		if _, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1"); err != nil {
			t.Errorf("Start() after abandon error = %v", err)
		}

		var sawAbandoned bool
		for _, e := range publisher.GetPublishedEvents() {
			if e.Type == events.EventAttemptAbandoned {
				sawAbandoned = true
			}
		}
		if !sawAbandoned {
			t.Error("attempt.abandoned event was not published")
		}
	})

	t.Run("completed attempt cannot be abandoned", func(t *testing.T) {
		svc, _, _ := newTestAttemptService(t)

		attempt, _ := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1")
		if _, err := svc.Submit(ctx, attempt.ID, "student-1"); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}

		if err := svc.Abandon(ctx, attempt.ID, "student-1"); !errors.Is(err, ErrAttemptNotActive) {
			t.Errorf("Abandon() error = %v, want ErrAttemptNotActive", err)
		}
	})

	t.Run("not the owner", func(t *testing.T) {
		svc, _, _ := newTestAttemptService(t)

		attempt, _ := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1")
		if err := svc.Abandon(ctx, attempt.ID, "student-2"); !IsPermissionError(err) {
			t.Errorf("Abandon() error = %v, want permission error", err)
		}
	})
}

func TestAttemptService_Access(t *testing.T) {
	ctx := context.Background()

	t.Run("quiz owner can read student attempts", func(t *testing.T) {
		svc, _, _ := newTestAttemptService(t)

		attempt, _ := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1")
		if _, err := svc.GetByID(ctx, attempt.ID, "instructor-1"); err != nil {
			t.Errorf("owner GetByID() error = %v", err)
		}
	})

	t.Run("other student cannot read", func(t *testing.T) {
		svc, _, _ := newTestAttemptService(t)

		attempt, _ := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1")
		if _, err := svc.GetByID(ctx, attempt.ID, "student-2"); !IsPermissionError(err) {
			t.Errorf("GetByID() error = %v, want permission error", err)
		}
	})

	t.Run("students only list their own attempts", func(t *testing.T) {
		svc, _, _ := newTestAttemptService(t)

		a1, _ := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-1")
		if _, err := svc.Start(ctx, &StartAttemptRequest{QuizID: 1}, "student-2"); err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		attempts, total, err := svc.List(ctx, repositories.AttemptFilters{}, "student-1")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if total != 1 || len(attempts) != 1 || attempts[0].ID != a1.ID {
			t.Errorf("List() = %d attempts (total %d), want just the caller's", len(attempts), total)
		}
	})
}
