package model

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a stored record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuestion indicates a question that cannot be presented or graded.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrUnavailable is returned by sign-in providers that cannot run on this deployment.
	ErrUnavailable = errors.New("sign-in provider unavailable")
	// ErrInvalidCredentials is returned when a username/password pair does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleStudent is a learner taking practice tests.
	UserRoleStudent UserRole = "student"
	// UserRoleAdmin can import questions and export results.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question is a multiple-choice theory question.
type Question struct {
	ID            string     `json:"id" yaml:"id"`
	Text          string     `json:"question" yaml:"question"`
	Options       []string   `json:"options" yaml:"options"`
	CorrectAnswer int        `json:"correct_answer" yaml:"correct_answer"`
	Explanation   string     `json:"explanation" yaml:"explanation"`
	Category      string     `json:"category" yaml:"category"`
	SignID        string     `json:"sign_id,omitempty" yaml:"sign_id,omitempty"`
	ImageURL      string     `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	Difficulty    Difficulty `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
}

// Validate reports whether the question can be presented and graded.
func (q Question) Validate() error {
	switch {
	case q.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidQuestion)
	case q.Text == "":
		return fmt.Errorf("%w: missing question text", ErrInvalidQuestion)
	case len(q.Options) < 2:
		return fmt.Errorf("%w: fewer than two options", ErrInvalidQuestion)
	case q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options):
		return fmt.Errorf("%w: correct answer index out of range", ErrInvalidQuestion)
	}
	return nil
}

// Grade reports whether selected is the correct option index.
func (q Question) Grade(selected int) bool {
	return selected == q.CorrectAnswer
}

// Answer records a single answered question within a test.
type Answer struct {
	QuestionID     string `json:"question_id"`
	SelectedAnswer int    `json:"selected_answer"`
	IsCorrect      bool   `json:"is_correct"`
	TimeSpent      int64  `json:"time_spent_ms"`
}

// CategoryScore counts correct answers out of the questions seen in one category.
type CategoryScore struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// TestResult is a finished practice test.
type TestResult struct {
	ID                string                   `json:"id"`
	UserID            int64                    `json:"user_id"`
	Date              time.Time                `json:"date"`
	Score             int                      `json:"score"`
	TotalQuestions    int                      `json:"total_questions"`
	Duration          int64                    `json:"duration_ms"`
	Answers           []Answer                 `json:"answers"`
	CategoryBreakdown map[string]CategoryScore `json:"category_breakdown,omitempty"`
}

// UserStats aggregates a user's results for progress and achievements.
type UserStats struct {
	TotalTests        int                      `json:"total_tests"`
	PerfectTests      int                      `json:"perfect_tests"`
	TotalQuestions    int                      `json:"total_questions"`
	CorrectAnswers    int                      `json:"correct_answers"`
	AverageScore      int                      `json:"average_score"`
	BestScore         int                      `json:"best_score"`
	TotalTime         int64                    `json:"total_time_ms"`
	Streak            int                      `json:"streak"`
	CategoryBreakdown map[string]CategoryScore `json:"category_breakdown,omitempty"`
}

// TestConfig holds runtime test parameters set via CLI flags.
type TestConfig struct {
	NumQuestions  int     // questions per practice test
	UnseenShare   float64 // share of unseen questions while any remain
	MaxOptions    int     // options presented per question, 0 means 4, negative or 1 keeps all
	Category      string  // empty means all categories
	AllowOrigins  []string
	DefaultLocale string
}

// IssuedTest is a practice test handed to a client and not yet submitted.
// Questions are stored as presented, after option reduction.
type IssuedTest struct {
	ID        string     `json:"id"`
	UserID    int64      `json:"user_id"`
	Questions []Question `json:"questions"`
	StartedAt time.Time  `json:"started_at"`
}
