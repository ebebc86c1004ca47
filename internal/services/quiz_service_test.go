package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/edustack/quiz-service/internal/events"
	"github.com/edustack/quiz-service/internal/models"
	"github.com/edustack/quiz-service/internal/repositories"
	"github.com/edustack/quiz-service/internal/validator"
)

func newTestQuizService(t *testing.T) (*quizService, *mockRepository, *events.MockEventPublisher) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	repo := newMockRepository()
	publisher := events.NewMockEventPublisher(logger)

	repo.seedUser(&models.User{ID: "student-1", Role: models.RoleStudent})
	repo.seedUser(&models.User{ID: "instructor-1", Role: models.RoleInstructor})
	repo.seedUser(&models.User{ID: "instructor-2", Role: models.RoleInstructor})
	repo.seedUser(&models.User{ID: "admin-1", Role: models.RoleAdmin})

	svc := NewQuizService(repo, nil, logger, validator.New(), publisher).(*quizService)
	return svc, repo, publisher
}

func sampleCreateRequest() *validator.QuizCreateRequest {
	return &validator.QuizCreateRequest{
		Title:     "Go Fundamentals",
		TimeLimit: 30,
		Questions: []validator.QuestionCreateRequest{
			{
				Text:   "Which keyword declares a variable?",
				Points: 10,
				Options: []validator.OptionRequest{
					{Text: "var", IsCorrect: true, Position: 1},
					{Text: "let", Position: 2},
				},
			},
		},
	}
}

func TestQuizService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("instructor creates a draft with questions", func(t *testing.T) {
		svc, _, _ := newTestQuizService(t)

		quiz, err := svc.Create(ctx, sampleCreateRequest(), "instructor-1")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if quiz.IsPublished {
			t.Error("new quiz must start as a draft")
		}
		if len(quiz.Questions) != 1 {
			t.Errorf("questions = %d, want 1", len(quiz.Questions))
		}
	})

	t.Run("student cannot author", func(t *testing.T) {
		svc, _, _ := newTestQuizService(t)

		_, err := svc.Create(ctx, sampleCreateRequest(), "student-1")
		if !IsPermissionError(err) {
			t.Errorf("error = %v, want permission error", err)
		}
	})

	t.Run("question without a correct option is rejected", func(t *testing.T) {
		svc, _, _ := newTestQuizService(t)

		req := sampleCreateRequest()
		req.Questions[0].Options[0].IsCorrect = false
		if _, err := svc.Create(ctx, req, "instructor-1"); err == nil {
			t.Error("expected validation failure for missing correct option")
		}
	})
}

func TestQuizService_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("publish requires questions", func(t *testing.T) {
		svc, _, _ := newTestQuizService(t)

		req := sampleCreateRequest()
		req.Questions = nil
		quiz, err := svc.Create(ctx, req, "instructor-1")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		if err := svc.Publish(ctx, quiz.ID, "instructor-1"); err == nil {
			t.Error("expected publish of empty quiz to fail")
		}
	})

	t.Run("publish emits event", func(t *testing.T) {
		svc, _, publisher := newTestQuizService(t)

		quiz, _ := svc.Create(ctx, sampleCreateRequest(), "instructor-1")
		if err := svc.Publish(ctx, quiz.ID, "instructor-1"); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 1 || published[0].Type != events.EventQuizPublished {
			t.Errorf("expected one quiz.published event, got %+v", published)
		}
	})

	t.Run("only the owner or admin publishes", func(t *testing.T) {
		svc, _, _ := newTestQuizService(t)

		quiz, _ := svc.Create(ctx, sampleCreateRequest(), "instructor-1")
		if err := svc.Publish(ctx, quiz.ID, "instructor-2"); !IsPermissionError(err) {
			t.Errorf("error = %v, want permission error", err)
		}
		if err := svc.Publish(ctx, quiz.ID, "admin-1"); err != nil {
			t.Errorf("admin Publish() error = %v", err)
		}
	})
}

func TestQuizService_QuestionManagement(t *testing.T) {
	ctx := context.Background()

	t.Run("published question set is frozen", func(t *testing.T) {
		svc, _, _ := newTestQuizService(t)

		quiz, _ := svc.Create(ctx, sampleCreateRequest(), "instructor-1")
		if err := svc.Publish(ctx, quiz.ID, "instructor-1"); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}

		_, err := svc.AddQuestion(ctx, quiz.ID, &validator.QuestionCreateRequest{
			Text:   "Extra question",
			Points: 5,
			Options: []validator.OptionRequest{
				{Text: "yes", IsCorrect: true},
				{Text: "no"},
			},
		}, "instructor-1")
		if err == nil {
			t.Error("expected AddQuestion on published quiz to fail")
		}

		if err := svc.RemoveQuestion(ctx, quiz.ID, quiz.Questions[0].ID, "instructor-1"); err == nil {
			t.Error("expected RemoveQuestion on published quiz to fail")
		}
	})

	t.Run("draft accepts question changes", func(t *testing.T) {
		svc, _, _ := newTestQuizService(t)

		quiz, _ := svc.Create(ctx, sampleCreateRequest(), "instructor-1")
		added, err := svc.AddQuestion(ctx, quiz.ID, &validator.QuestionCreateRequest{
			Text:   "What is a goroutine?",
			Points: 15,
			Options: []validator.OptionRequest{
				{Text: "A lightweight thread", IsCorrect: true},
				{Text: "A package"},
			},
		}, "instructor-1")
		if err != nil {
			t.Fatalf("AddQuestion() error = %v", err)
		}

		if err := svc.RemoveQuestion(ctx, quiz.ID, added.ID, "instructor-1"); err != nil {
			t.Errorf("RemoveQuestion() error = %v", err)
		}
	})

	t.Run("question of another quiz", func(t *testing.T) {
		svc, _, _ := newTestQuizService(t)

		first, _ := svc.Create(ctx, sampleCreateRequest(), "instructor-1")
		second, _ := svc.Create(ctx, sampleCreateRequest(), "instructor-1")

		err := svc.RemoveQuestion(ctx, first.ID, second.Questions[0].ID, "instructor-1")
		if !errors.Is(err, ErrQuestionNotInQuiz) {
			t.Errorf("error = %v, want ErrQuestionNotInQuiz", err)
		}
	})
}

func TestQuizService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("quiz with attempts is protected", func(t *testing.T) {
		svc, repo, _ := newTestQuizService(t)

		quiz, _ := svc.Create(ctx, sampleCreateRequest(), "instructor-1")
		repo.attempts[1] = &models.QuizAttempt{
			ID: 1, QuizID: quiz.ID, StudentID: "student-1",
			Status: models.AttemptCompleted, StartedAt: time.Now(),
		}

		if err := svc.Delete(ctx, quiz.ID, "instructor-1"); !errors.Is(err, ErrQuizHasAttempts) {
			t.Errorf("error = %v, want ErrQuizHasAttempts", err)
		}
	})

	t.Run("untouched quiz deletes", func(t *testing.T) {
		svc, _, _ := newTestQuizService(t)

		quiz, _ := svc.Create(ctx, sampleCreateRequest(), "instructor-1")
		if err := svc.Delete(ctx, quiz.ID, "instructor-1"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := svc.GetByID(ctx, quiz.ID, "instructor-1"); !errors.Is(err, ErrQuizNotFound) {
			t.Errorf("error = %v, want ErrQuizNotFound after delete", err)
		}
	})
}

func TestQuizService_Visibility(t *testing.T) {
	ctx := context.Background()

	t.Run("draft is invisible to students", func(t *testing.T) {
		svc, _, _ := newTestQuizService(t)

		quiz, _ := svc.Create(ctx, sampleCreateRequest(), "instructor-1")
		if _, err := svc.GetByID(ctx, quiz.ID, "student-1"); !errors.Is(err, ErrQuizNotFound) {
			t.Errorf("error = %v, want ErrQuizNotFound (drafts must not leak)", err)
		}
	})

	t.Run("students never see the answer key", func(t *testing.T) {
		svc, _, _ := newTestQuizService(t)

		quiz, _ := svc.Create(ctx, sampleCreateRequest(), "instructor-1")
		if err := svc.Publish(ctx, quiz.ID, "instructor-1"); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}

		detail, err := svc.GetByIDWithDetails(ctx, quiz.ID, "student-1")
		if err != nil {
			t.Fatalf("GetByIDWithDetails() error = %v", err)
		}
		for _, q := range detail.Questions {
			for _, o := range q.Options {
				if o.IsCorrect != nil {
					t.Fatal("answer key leaked to a student")
				}
			}
		}

		owner, _ := svc.GetByIDWithDetails(ctx, quiz.ID, "instructor-1")
		if owner.Questions[0].Options[0].IsCorrect == nil {
			t.Error("owner must see the answer key")
		}
	})

	t.Run("student list is published only", func(t *testing.T) {
		svc, _, _ := newTestQuizService(t)

		draft, _ := svc.Create(ctx, sampleCreateRequest(), "instructor-1")
		published, _ := svc.Create(ctx, sampleCreateRequest(), "instructor-1")
		if err := svc.Publish(ctx, published.ID, "instructor-1"); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}

		quizzes, _, err := svc.List(ctx, repositories.QuizFilters{}, "student-1")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		for _, quiz := range quizzes {
			if quiz.ID == draft.ID {
				t.Error("draft quiz appeared in a student listing")
			}
		}
		if len(quizzes) != 1 {
			t.Errorf("listed = %d, want 1 published quiz", len(quizzes))
		}
	})
}
