// Package auth provides the sign-in capability behind a single interface.
// A deployment runs exactly one Provider, picked by configuration.
package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/forerkortet/forerkortet/internal/model"
)

// Credentials are what a client submits to sign in.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Result is the normalized outcome of a successful sign-in.
type Result struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Provider is a sign-in capability.
type Provider interface {
	// IsAvailable reports whether SignIn can succeed on this deployment.
	IsAvailable() bool
	SignIn(ctx context.Context, c Credentials) (Result, error)
	SignOut(ctx context.Context, token string) error
	// OnCredentialRevoked registers fn to run when a user's credential is
	// revoked. The returned func unregisters it.
	OnCredentialRevoked(fn func(userID int64)) (unsubscribe func())
}

// Kind names a provider variant in configuration.
type Kind string

const (
	KindNone  Kind = "none"
	KindLocal Kind = "local"
)

// New returns the provider for kind.
func New(kind Kind, users UserStore) (Provider, error) {
	switch kind {
	case KindNone, "":
		return Unavailable{}, nil
	case KindLocal:
		if users == nil {
			return nil, fmt.Errorf("auth provider %q needs a user store", kind)
		}
		return NewLocal(users), nil
	default:
		return nil, fmt.Errorf("unknown auth provider %q", kind)
	}
}

// Unavailable is the provider for deployments without sign-in.
type Unavailable struct{}

func (Unavailable) IsAvailable() bool { return false }

func (Unavailable) SignIn(context.Context, Credentials) (Result, error) {
	return Result{}, model.ErrUnavailable
}

func (Unavailable) SignOut(context.Context, string) error { return nil }

func (Unavailable) OnCredentialRevoked(func(int64)) func() { return func() {} }

// listeners is a set of revocation callbacks.
type listeners struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(int64)
}

func (l *listeners) add(fn func(int64)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func(int64))
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	return func() {
		l.mu.Lock()
		delete(l.fns, id)
		l.mu.Unlock()
	}
}

func (l *listeners) fire(userID int64) {
	l.mu.Lock()
	fns := make([]func(int64), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()
	for _, fn := range fns {
		fn(userID)
	}
}
