package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ryuhosoy/mobile-gym-app/internal/domain"
	"github.com/ryuhosoy/mobile-gym-app/internal/store"
)

const (
	usersRoot      = "users"
	emailIndexRoot = "userEmails"
)

// Service is a Provider backed by the realtime store. Account records
// live under users/<uid>; an email index written in the same atomic batch
// keeps sign-in lookups a single read.
type Service struct {
	store  store.Store
	tokens *TokenManager
	clock  func() time.Time

	mu        sync.RWMutex
	current   *domain.User
	listeners map[int]func(*domain.User)
	nextID    int
}

// NewService creates an identity service.
func NewService(st store.Store, tokens *TokenManager) *Service {
	return &Service{
		store:     st,
		tokens:    tokens,
		clock:     time.Now,
		listeners: make(map[int]func(*domain.User)),
	}
}

// SignUp registers a new account and signs it in.
func (s *Service) SignUp(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	idxPath := emailIndexPath(email)
	snap, err := s.store.Get(ctx, idxPath)
	if err != nil {
		return nil, fmt.Errorf("check email index: %w", err)
	}
	if snap.Exists() {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	uid := uuid.NewString()
	record := domain.UserRecord{
		ID:           uid,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.clock().UnixMilli(),
	}

	batch := store.NewWriteBatch().
		Set(userPath(uid), record).
		Set(idxPath, uid)
	if err := s.store.Commit(ctx, batch); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	user := &domain.User{ID: uid, Email: email}
	s.setCurrent(user)
	return user, nil
}

// SignIn authenticates an existing account.
func (s *Service) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	snap, err := s.store.Get(ctx, emailIndexPath(email))
	if err != nil {
		return nil, fmt.Errorf("look up account: %w", err)
	}
	if !snap.Exists() {
		return nil, ErrInvalidCredentials
	}
	var uid string
	if err := snap.Decode(&uid); err != nil {
		return nil, err
	}

	recSnap, err := s.store.Get(ctx, userPath(uid))
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if !recSnap.Exists() {
		return nil, ErrInvalidCredentials
	}
	var record domain.UserRecord
	if err := recSnap.Decode(&record); err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user := &domain.User{ID: record.ID, Email: record.Email}
	s.setCurrent(user)
	return user, nil
}

// SignOut clears the current identity.
func (s *Service) SignOut() {
	s.setCurrent(nil)
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (s *Service) CurrentUser() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

// OnAuthStateChanged registers fn and invokes it immediately with the
// current state.
func (s *Service) OnAuthStateChanged(fn func(*domain.User)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	current := s.current
	s.mu.Unlock()

	fn(copyUser(current))

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Token issues an access token for the user.
func (s *Service) Token(u *domain.User) (string, error) {
	return s.tokens.Issue(u)
}

// Verify resolves an access token into the user it identifies.
func (s *Service) Verify(token string) (*domain.User, error) {
	return s.tokens.Verify(token)
}

func (s *Service) setCurrent(u *domain.User) {
	s.mu.Lock()
	s.current = u
	fns := make([]func(*domain.User), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(copyUser(u))
	}
}

func copyUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func userPath(uid string) string {
	return usersRoot + "/" + uid
}

// emailIndexPath maps an email to a store-safe index path. Dots collide
// with nothing else in an address, so the usual comma substitution keeps
// the key unambiguous.
func emailIndexPath(email string) string {
	key := strings.ToLower(strings.TrimSpace(email))
	key = strings.NewReplacer(".", ",", "/", "|").Replace(key)
	return emailIndexRoot + "/" + key
}

var _ Provider = (*Service)(nil)
