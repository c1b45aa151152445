package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ryuhosoy/mobile-gym-app/internal/domain"
	"github.com/ryuhosoy/mobile-gym-app/internal/identity"
	"github.com/ryuhosoy/mobile-gym-app/internal/store"
	"github.com/ryuhosoy/mobile-gym-app/pkg/log"
)

var ErrSessionClosed = errors.New("chat session is closed")

// SessionUpdate is the full state pushed to the session callback after
// every snapshot the store delivers.
type SessionUpdate struct {
	Title    string           `json:"title"`
	Messages []domain.Message `json:"messages"`
}

// Session is an open chat room: two live subscriptions (room record and
// message log) plus a draft buffer for the next outgoing message.
type Session struct {
	store  store.Store
	ident  identity.Source
	roomID string
	clock  func() time.Time

	onUpdate func(SessionUpdate)

	mu       sync.Mutex
	title    string
	messages []domain.Message
	draft    string
	cancels  []func()
	closed   bool
}

// OpenSession subscribes to the room record and its message log. onUpdate
// (optional) receives the current state immediately and again on every
// change; it must not call back into the session.
func OpenSession(ctx context.Context, st store.Store, src identity.Source, roomID string, onUpdate func(SessionUpdate)) (*Session, error) {
	s := &Session{
		store:    st,
		ident:    src,
		roomID:   roomID,
		clock:    time.Now,
		onUpdate: onUpdate,
	}

	cancelRoom, err := st.Subscribe(ctx, roomPath(roomID), s.applyRoomSnapshot)
	if err != nil {
		return nil, err
	}
	cancelLog, err := st.Subscribe(ctx, messagesPath(roomID), s.applyLogSnapshot)
	if err != nil {
		cancelRoom()
		return nil, err
	}
	s.mu.Lock()
	s.cancels = []func(){cancelRoom, cancelLog}
	s.mu.Unlock()

	return s, nil
}

// Title returns the room title from the latest room snapshot.
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

// Messages returns the current display-ordered message log.
func (s *Session) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// SetDraft replaces the draft buffer.
func (s *Session) SetDraft(text string) {
	s.mu.Lock()
	s.draft = text
	s.mu.Unlock()
}

// Draft returns the draft buffer.
func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Send appends the draft to the room's log and refreshes the room's
// last-message preview in one atomic commit. A blank draft or a
// signed-out caller is a silent no-op. The draft is cleared only after a
// successful commit; on failure it is preserved for a user-initiated
// retry — there is no automatic one.
func (s *Session) Send(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	draft := s.draft
	s.mu.Unlock()

	l := log.Ctx(ctx)

	if strings.TrimSpace(draft) == "" {
		return nil
	}
	user := s.ident.CurrentUser()
	if user == nil {
		l.Debug().Str(log.FieldRoomID, s.roomID).Msg("send skipped, no signed-in user")
		return nil
	}

	now := s.clock().UnixMilli()
	key := s.store.GenerateKey(messagesPath(s.roomID))
	name := identity.DisplayName(user)

	msg := domain.Message{
		ID:         key,
		Text:       draft,
		SenderID:   user.ID,
		SenderName: name,
		Timestamp:  now,
	}

	batch := store.NewWriteBatch().
		Set(messagePath(s.roomID, key), msg).
		Set(roomPath(s.roomID)+"/lastMessage", name+": "+draft).
		Set(roomPath(s.roomID)+"/lastMessageTime", now)
	if err := s.store.Commit(ctx, batch); err != nil {
		l.Error().Err(err).Str(log.FieldRoomID, s.roomID).Msg("message send failed")
		return err
	}

	s.mu.Lock()
	s.draft = ""
	s.mu.Unlock()
	return nil
}

// Close detaches both subscriptions. Send on a closed session fails.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancels := s.cancels
	s.cancels = nil
	s.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

func (s *Session) applyRoomSnapshot(snap store.Snapshot) {
	var room domain.Room
	if err := snap.Decode(&room); err != nil {
		l := log.L()
		l.Warn().Err(err).Str(log.FieldRoomID, s.roomID).Msg("bad room snapshot")
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.title = room.Title
	update := s.updateLocked()
	s.mu.Unlock()

	s.emit(update)
}

func (s *Session) applyLogSnapshot(snap store.Snapshot) {
	msgs, err := decodeMessageLog(snap)
	if err != nil {
		l := log.L()
		l.Warn().Err(err).Str(log.FieldRoomID, s.roomID).Msg("bad message log snapshot")
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.messages = msgs
	update := s.updateLocked()
	s.mu.Unlock()

	s.emit(update)
}

func (s *Session) updateLocked() SessionUpdate {
	msgs := make([]domain.Message, len(s.messages))
	copy(msgs, s.messages)
	return SessionUpdate{Title: s.title, Messages: msgs}
}

func (s *Session) emit(update SessionUpdate) {
	if s.onUpdate != nil {
		s.onUpdate(update)
	}
}
