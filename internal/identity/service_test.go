package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ryuhosoy/mobile-gym-app/internal/domain"
	"github.com/ryuhosoy/mobile-gym-app/internal/store"
)

func newTestService() (*Service, *store.MemoryStore) {
	st := store.NewMemoryStore()
	tokens := NewTokenManager("test-secret", time.Hour, "gym-app-test")
	return NewService(st, tokens), st
}

func TestSignUpAndSignIn(t *testing.T) {
	svc, st := newTestService()
	defer st.Close()
	ctx := context.Background()

	user, err := svc.SignUp(ctx, "taro@example.com", "hunter22")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if user.ID == "" || user.Email != "taro@example.com" {
		t.Fatalf("user = %+v", user)
	}
	if cur := svc.CurrentUser(); cur == nil || cur.ID != user.ID {
		t.Fatal("sign up did not sign the user in")
	}

	svc.SignOut()
	if svc.CurrentUser() != nil {
		t.Fatal("sign out left a current user")
	}

	again, err := svc.SignIn(ctx, "taro@example.com", "hunter22")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if again.ID != user.ID {
		t.Fatalf("sign in returned %s, want %s", again.ID, user.ID)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc, st := newTestService()
	defer st.Close()
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "taro@example.com", "hunter22"); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if _, err := svc.SignUp(ctx, "taro@example.com", "other-pass"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate sign up: %v", err)
	}
}

func TestSignUpMissingCredentials(t *testing.T) {
	svc, st := newTestService()
	defer st.Close()
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "", "pass"); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("empty email: %v", err)
	}
	if _, err := svc.SignUp(ctx, "a@b.com", ""); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("empty password: %v", err)
	}
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	svc, st := newTestService()
	defer st.Close()
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "taro@example.com", "hunter22"); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	svc.SignOut()

	if _, err := svc.SignIn(ctx, "taro@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := svc.SignIn(ctx, "nobody@example.com", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: %v", err)
	}
	if svc.CurrentUser() != nil {
		t.Fatal("failed sign in set a current user")
	}
}

func TestPasswordsStoredHashed(t *testing.T) {
	svc, st := newTestService()
	defer st.Close()
	ctx := context.Background()

	user, err := svc.SignUp(ctx, "taro@example.com", "hunter22")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}

	snap, err := st.Get(ctx, userPath(user.ID))
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	var record domain.UserRecord
	if err := snap.Decode(&record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record.PasswordHash == "hunter22" || record.PasswordHash == "" {
		t.Fatal("password stored in the clear")
	}
}

func TestOnAuthStateChanged(t *testing.T) {
	svc, st := newTestService()
	defer st.Close()
	ctx := context.Background()

	var states []*domain.User
	cancel := svc.OnAuthStateChanged(func(u *domain.User) {
		states = append(states, u)
	})

	// Immediate invocation with the signed-out state.
	if len(states) != 1 || states[0] != nil {
		t.Fatalf("initial states = %v", states)
	}

	user, err := svc.SignUp(ctx, "taro@example.com", "hunter22")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if len(states) != 2 || states[1] == nil || states[1].ID != user.ID {
		t.Fatalf("states after sign up = %v", states)
	}

	cancel()
	svc.SignOut()
	if len(states) != 2 {
		t.Fatal("cancelled listener still invoked")
	}
}

func TestFixedSource(t *testing.T) {
	src := Fixed(&domain.User{ID: "u1", Email: "a@b.com"})
	u := src.CurrentUser()
	if u == nil || u.ID != "u1" {
		t.Fatalf("user = %+v", u)
	}

	u.Email = "mutated"
	if src.CurrentUser().Email != "a@b.com" {
		t.Fatal("Fixed returned a shared pointer")
	}

	if Fixed(nil).CurrentUser() != nil {
		t.Fatal("nil Fixed source is not signed-out")
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		user *domain.User
		want string
	}{
		{nil, "Anonymous"},
		{&domain.User{ID: "u1"}, "Anonymous"},
		{&domain.User{Email: "@example.com"}, "Anonymous"},
		{&domain.User{Email: "no-at-sign"}, "Anonymous"},
		{&domain.User{Email: "taro@example.com"}, "taro"},
		{&domain.User{Email: "hana.sato@example.co.jp"}, "hana.sato"},
	}
	for _, c := range cases {
		if got := DisplayName(c.user); got != c.want {
			t.Errorf("DisplayName(%+v) = %q, want %q", c.user, got, c.want)
		}
	}
}
