package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/edustack/quiz-service/internal/models"
	"github.com/edustack/quiz-service/internal/repositories"
)

// mockRepository is an in-memory Repository for exercising service logic
// without a database. Sub-repos share the same maps; WithTransaction just
// runs the function against the same state.
type mockRepository struct {
	quizzes   map[uint]*models.Quiz
	questions map[uint]*models.Question
	options   map[uint]*models.QuestionOption
	attempts  map[uint]*models.QuizAttempt
	answers   map[uint]*models.AttemptAnswer
	users     map[string]*models.User

	nextAttemptID uint
	nextAnswerID  uint
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		quizzes:       make(map[uint]*models.Quiz),
		questions:     make(map[uint]*models.Question),
		options:       make(map[uint]*models.QuestionOption),
		attempts:      make(map[uint]*models.QuizAttempt),
		answers:       make(map[uint]*models.AttemptAnswer),
		users:         make(map[string]*models.User),
		nextAttemptID: 1,
		nextAnswerID:  1,
	}
}

// seedQuiz registers a quiz with its questions and options
func (m *mockRepository) seedQuiz(quiz *models.Quiz, questions []*models.Question) {
	total := 0
	for _, q := range questions {
		m.questions[q.ID] = q
		total += q.Points
		for i := range q.Options {
			opt := q.Options[i]
			opt.QuestionID = q.ID
			m.options[opt.ID] = &opt
		}
	}
	quiz.TotalPoints = total
	quiz.QuestionsCount = len(questions)
	m.quizzes[quiz.ID] = quiz
}

func (m *mockRepository) seedUser(user *models.User) {
	m.users[user.ID] = user
}

func (m *mockRepository) Quiz() repositories.QuizRepository         { return &mockQuizRepo{m} }
func (m *mockRepository) Question() repositories.QuestionRepository { return &mockQuestionRepo{m} }
func (m *mockRepository) Attempt() repositories.AttemptRepository   { return &mockAttemptRepo{m} }
func (m *mockRepository) Answer() repositories.AnswerRepository     { return &mockAnswerRepo{m} }
func (m *mockRepository) User() repositories.UserRepository         { return &mockUserRepo{m} }
func (m *mockRepository) Dashboard() repositories.DashboardRepository {
	return nil
}

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// ===== QUIZ =====

type mockQuizRepo struct{ m *mockRepository }

func (r *mockQuizRepo) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	if quiz.ID == 0 {
		quiz.ID = uint(len(r.m.quizzes) + 1)
	}
	r.m.quizzes[quiz.ID] = quiz
	return nil
}

func (r *mockQuizRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	quiz, ok := r.m.quizzes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return quiz, nil
}

func (r *mockQuizRepo) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	quiz, err := r.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	quiz.Questions = nil
	for _, question := range r.m.questions {
		if question.QuizID != id {
			continue
		}
		quiz.Questions = append(quiz.Questions, *question)
	}
	return quiz, nil
}

func (r *mockQuizRepo) Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	r.m.quizzes[quiz.ID] = quiz
	return nil
}

func (r *mockQuizRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	delete(r.m.quizzes, id)
	return nil
}

func (r *mockQuizRepo) SetPublished(ctx context.Context, tx *gorm.DB, id uint, published bool) error {
	quiz, ok := r.m.quizzes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	quiz.IsPublished = published
	return nil
}

func (r *mockQuizRepo) GetPublicationState(ctx context.Context, tx *gorm.DB, id uint) (bool, bool, error) {
	quiz, ok := r.m.quizzes[id]
	if !ok {
		return false, false, nil
	}
	return true, quiz.IsPublished, nil
}

func (r *mockQuizRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	var out []*models.Quiz
	for _, quiz := range r.m.quizzes {
		if filters.Published != nil && quiz.IsPublished != *filters.Published {
			continue
		}
		out = append(out, quiz)
	}
	return out, int64(len(out)), nil
}

func (r *mockQuizRepo) GetByCreator(ctx context.Context, tx *gorm.DB, creatorID string, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	var out []*models.Quiz
	for _, quiz := range r.m.quizzes {
		if quiz.CreatedBy == creatorID {
			out = append(out, quiz)
		}
	}
	return out, int64(len(out)), nil
}

func (r *mockQuizRepo) GetStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.QuizStats, error) {
	stats := &repositories.QuizStats{}
	for _, attempt := range r.m.attempts {
		if attempt.QuizID != id {
			continue
		}
		stats.TotalAttempts++
		if attempt.Status == models.AttemptCompleted {
			stats.CompletedAttempts++
		}
	}
	return stats, nil
}

// ===== QUESTION =====

type mockQuestionRepo struct{ m *mockRepository }

func (r *mockQuestionRepo) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	if question.ID == 0 {
		question.ID = uint(len(r.m.questions) + 1)
	}
	r.m.questions[question.ID] = question
	return nil
}

func (r *mockQuestionRepo) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	for _, q := range questions {
		if err := r.Create(ctx, tx, q); err != nil {
			return err
		}
	}
	return nil
}

func (r *mockQuestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	question, ok := r.m.questions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return question, nil
}

func (r *mockQuestionRepo) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	r.m.questions[question.ID] = question
	return nil
}

func (r *mockQuestionRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	delete(r.m.questions, id)
	return nil
}

func (r *mockQuestionRepo) GetByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) ([]*models.Question, error) {
	var out []*models.Question
	for _, q := range r.m.questions {
		if q.QuizID == quizID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *mockQuestionRepo) CountByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) (int64, error) {
	questions, _ := r.GetByQuiz(ctx, tx, quizID)
	return int64(len(questions)), nil
}

func (r *mockQuestionRepo) SumPointsByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) (int, error) {
	questions, _ := r.GetByQuiz(ctx, tx, quizID)
	sum := 0
	for _, q := range questions {
		sum += q.Points
	}
	return sum, nil
}

func (r *mockQuestionRepo) GetOption(ctx context.Context, tx *gorm.DB, optionID uint) (*models.QuestionOption, error) {
	option, ok := r.m.options[optionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return option, nil
}

func (r *mockQuestionRepo) GetCorrectOption(ctx context.Context, tx *gorm.DB, questionID uint) (*models.QuestionOption, error) {
	for _, option := range r.m.options {
		if option.QuestionID == questionID && option.IsCorrect {
			return option, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ===== ATTEMPT =====

type mockAttemptRepo struct{ m *mockRepository }

func (r *mockAttemptRepo) Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	for _, existing := range r.m.attempts {
		if existing.QuizID == attempt.QuizID && existing.StudentID == attempt.StudentID &&
			existing.Status == models.AttemptInProgress {
			return repositories.ErrDuplicateKey
		}
	}
	attempt.ID = r.m.nextAttemptID
	r.m.nextAttemptID++
	r.m.attempts[attempt.ID] = attempt
	return nil
}

func (r *mockAttemptRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error) {
	attempt, ok := r.m.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return attempt, nil
}

func (r *mockAttemptRepo) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error) {
	attempt, err := r.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	attempt.Answers = nil
	for _, answer := range r.m.answers {
		if answer.AttemptID == id {
			attempt.Answers = append(attempt.Answers, *answer)
		}
	}
	if quiz, err := r.m.Quiz().GetByIDWithDetails(ctx, tx, attempt.QuizID); err == nil {
		attempt.Quiz = *quiz
	}
	return attempt, nil
}

func (r *mockAttemptRepo) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error) {
	return r.GetByID(ctx, tx, id)
}

func (r *mockAttemptRepo) Update(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	r.m.attempts[attempt.ID] = attempt
	return nil
}

func (r *mockAttemptRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	delete(r.m.attempts, id)
	return nil
}

func (r *mockAttemptRepo) Complete(ctx context.Context, tx *gorm.DB, id uint, submittedAt time.Time, durationSeconds int, score float64, pointsEarned, totalPoints int) error {
	attempt, ok := r.m.attempts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	attempt.Status = models.AttemptCompleted
	attempt.SubmittedAt = &submittedAt
	attempt.DurationSeconds = &durationSeconds
	attempt.Score = &score
	attempt.PointsEarned = &pointsEarned
	attempt.TotalPoints = totalPoints
	return nil
}

func (r *mockAttemptRepo) GetActiveAttempt(ctx context.Context, tx *gorm.DB, studentID string, quizID uint) (*models.QuizAttempt, error) {
	for _, attempt := range r.m.attempts {
		if attempt.StudentID == studentID && attempt.QuizID == quizID &&
			attempt.Status == models.AttemptInProgress {
			return attempt, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockAttemptRepo) HasActiveAttempt(ctx context.Context, tx *gorm.DB, studentID string, quizID uint) (bool, error) {
	_, err := r.GetActiveAttempt(ctx, tx, studentID, quizID)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *mockAttemptRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	var out []*models.QuizAttempt
	for _, attempt := range r.m.attempts {
		if filters.StudentID != nil && attempt.StudentID != *filters.StudentID {
			continue
		}
		if filters.QuizID != nil && attempt.QuizID != *filters.QuizID {
			continue
		}
		if filters.Status != nil && attempt.Status != *filters.Status {
			continue
		}
		out = append(out, attempt)
	}
	return out, int64(len(out)), nil
}

func (r *mockAttemptRepo) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	filters.StudentID = &studentID
	return r.List(ctx, tx, filters)
}

func (r *mockAttemptRepo) GetByQuiz(ctx context.Context, tx *gorm.DB, quizID uint, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	filters.QuizID = &quizID
	return r.List(ctx, tx, filters)
}

// ===== ANSWER =====

type mockAnswerRepo struct{ m *mockRepository }

func (r *mockAnswerRepo) Upsert(ctx context.Context, tx *gorm.DB, answer *models.AttemptAnswer) error {
	for _, existing := range r.m.answers {
		if existing.AttemptID == answer.AttemptID && existing.QuestionID == answer.QuestionID {
			existing.SelectedOptionID = answer.SelectedOptionID
			existing.IsCorrect = answer.IsCorrect
			existing.PointsEarned = answer.PointsEarned
			existing.AnsweredAt = answer.AnsweredAt
			answer.ID = existing.ID
			return nil
		}
	}
	answer.ID = r.m.nextAnswerID
	r.m.nextAnswerID++
	stored := *answer
	r.m.answers[answer.ID] = &stored
	return nil
}

func (r *mockAnswerRepo) GetByAttemptAndQuestion(ctx context.Context, tx *gorm.DB, attemptID, questionID uint) (*models.AttemptAnswer, error) {
	for _, answer := range r.m.answers {
		if answer.AttemptID == attemptID && answer.QuestionID == questionID {
			return answer, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockAnswerRepo) GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.AttemptAnswer, error) {
	var out []*models.AttemptAnswer
	for _, answer := range r.m.answers {
		if answer.AttemptID == attemptID {
			out = append(out, answer)
		}
	}
	return out, nil
}

func (r *mockAnswerRepo) DeleteByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) error {
	for id, answer := range r.m.answers {
		if answer.AttemptID == attemptID {
			delete(r.m.answers, id)
		}
	}
	return nil
}

func (r *mockAnswerRepo) CountByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) (int64, error) {
	answers, _ := r.GetByAttempt(ctx, tx, attemptID)
	return int64(len(answers)), nil
}

// ===== USER =====

type mockUserRepo struct{ m *mockRepository }

func (r *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := r.m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range r.m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *mockUserRepo) CountByRole(ctx context.Context, role models.UserRole) (int64, error) {
	var count int64
	for _, user := range r.m.users {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}
