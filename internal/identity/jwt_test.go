package identity

import (
	"errors"
	"testing"
	"time"

	"github.com/ryuhosoy/mobile-gym-app/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, "gym-app-test")
	user := &domain.User{ID: "u1", Email: "taro@example.com"}

	token, err := m.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	got, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.ID != user.ID || got.Email != user.Email {
		t.Fatalf("got %+v, want %+v", got, user)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Hour, "gym-app-test")
	verifier := NewTokenManager("secret-b", time.Hour, "gym-app-test")

	token, err := issuer.Issue(&domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("cross-secret verify: %v", err)
	}
}

func TestTokenExpired(t *testing.T) {
	m := NewTokenManager("secret", -time.Minute, "gym-app-test")

	token, err := m.Issue(&domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expired verify: %v", err)
	}
}

func TestTokenGarbage(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, "gym-app-test")
	if _, err := m.Verify("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage verify: %v", err)
	}
}
