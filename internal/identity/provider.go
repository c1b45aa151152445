package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/ryuhosoy/mobile-gym-app/internal/domain"
)

var (
	ErrNotSignedIn        = errors.New("no signed-in user")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingCredentials = errors.New("email and password are required")
)

// Source exposes the identity that stamps rooms and messages. Controllers
// consult it at operation time rather than capturing a user up front.
type Source interface {
	CurrentUser() *domain.User
}

// Provider is the full identity surface: credential flows plus auth-state
// change notification.
type Provider interface {
	Source
	SignUp(ctx context.Context, email, password string) (*domain.User, error)
	SignIn(ctx context.Context, email, password string) (*domain.User, error)
	SignOut()
	// OnAuthStateChanged registers fn, invokes it immediately with the
	// current state, and returns a cancel function.
	OnAuthStateChanged(fn func(*domain.User)) func()
}

// Fixed returns a Source pinned to one user, for request-scoped use where
// the identity was already resolved from a token. A nil user behaves as
// signed-out.
func Fixed(u *domain.User) Source {
	return fixedSource{user: u}
}

type fixedSource struct {
	user *domain.User
}

func (s fixedSource) CurrentUser() *domain.User {
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// DisplayName derives the name shown on messages: the local part of the
// user's email, or "Anonymous" when there is none.
func DisplayName(u *domain.User) string {
	if u == nil || u.Email == "" {
		return "Anonymous"
	}
	local, _, found := strings.Cut(u.Email, "@")
	if !found || local == "" {
		return "Anonymous"
	}
	return local
}
