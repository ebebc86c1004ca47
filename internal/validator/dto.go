package validator

// QuizCreateRequest represents the request structure for creating quizzes
type QuizCreateRequest struct {
	Title       string                  `json:"title" validate:"required,quiz_title"`
	Description *string                 `json:"description" validate:"omitempty,quiz_description"`
	TimeLimit   int                     `json:"time_limit" validate:"time_limit"`
	Questions   []QuestionCreateRequest `json:"questions" validate:"omitempty,dive"`
}

// QuizUpdateRequest represents the request structure for updating quizzes
type QuizUpdateRequest struct {
	Title       *string                 `json:"title" validate:"omitempty,quiz_title"`
	Description *string                 `json:"description" validate:"omitempty,quiz_description"`
	TimeLimit   *int                    `json:"time_limit" validate:"omitempty,time_limit"`
	Questions   []QuestionCreateRequest `json:"questions" validate:"omitempty,dive"`
}

// QuestionCreateRequest represents the request structure for creating questions
type QuestionCreateRequest struct {
	Text     string          `json:"text" validate:"required,min=1,max=2000"`
	Points   int             `json:"points" validate:"required,points_range"`
	Position int             `json:"position" validate:"omitempty,min=1"`
	Options  []OptionRequest `json:"options" validate:"required,dive"`
}

// OptionRequest represents an answer option of a question
type OptionRequest struct {
	Text      string `json:"text" validate:"required,max=500"`
	IsCorrect bool   `json:"is_correct"`
	Position  int    `json:"position" validate:"omitempty,min=1"`
}
