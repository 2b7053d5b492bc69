package auth

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/forerkortet/forerkortet/internal/model"
)

// UserStore is the persistence Local needs.
type UserStore interface {
	GetUserByUsername(username string) (*model.User, error)
	CreateAuthSession(userID int64) (string, error)
	DeleteAuthSession(token string) error
	SetUserActive(id int64, active bool) error
}

// Local signs users in with a bcrypt password hash kept in the store.
type Local struct {
	users   UserStore
	revoked listeners
}

// NewLocal creates a password provider backed by users.
func NewLocal(users UserStore) *Local {
	return &Local{users: users}
}

// HashPassword returns the bcrypt hash stored for a password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (l *Local) IsAvailable() bool { return true }

// SignIn checks the password and issues a token. Unknown users, inactive
// users and wrong passwords all yield ErrInvalidCredentials.
func (l *Local) SignIn(ctx context.Context, c Credentials) (Result, error) {
	user, err := l.users.GetUserByUsername(c.Username)
	if err != nil {
		return Result{}, fmt.Errorf("look up user: %w", err)
	}
	if user == nil || !user.Active {
		return Result{}, model.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(c.Password)); err != nil {
		return Result{}, model.ErrInvalidCredentials
	}

	token, err := l.users.CreateAuthSession(user.ID)
	if err != nil {
		return Result{}, fmt.Errorf("create auth session: %w", err)
	}
	slog.Info("user signed in", "user_id", user.ID, "username", user.Username)
	return Result{User: user, Token: token}, nil
}

func (l *Local) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return l.users.DeleteAuthSession(token)
}

func (l *Local) OnCredentialRevoked(fn func(userID int64)) func() {
	return l.revoked.add(fn)
}

// Revoke disables a user, drops its tokens and notifies listeners.
func (l *Local) Revoke(ctx context.Context, userID int64) error {
	if err := l.users.SetUserActive(userID, false); err != nil {
		return fmt.Errorf("revoke user %d: %w", userID, err)
	}
	slog.Warn("credential revoked", "user_id", userID)
	l.revoked.fire(userID)
	return nil
}
