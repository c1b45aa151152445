package chat

import (
	"context"
	"sync"

	"github.com/ryuhosoy/mobile-gym-app/internal/domain"
	"github.com/ryuhosoy/mobile-gym-app/internal/identity"
	"github.com/ryuhosoy/mobile-gym-app/internal/store"
	"github.com/ryuhosoy/mobile-gym-app/pkg/log"
)

// RoomList is a live, timestamp-descending view of the rooms the current
// user belongs to. It holds two independent subscriptions — the full
// membership index and the full room collection — and recomputes the
// derived list from the latest snapshot of both whenever either fires;
// no ordering between the two streams is assumed.
type RoomList struct {
	userID   string
	onChange func([]domain.RoomView)

	mu      sync.Mutex
	members map[string]map[string]bool
	rooms   map[string]domain.Room
	current []domain.RoomView
	cancels []func()
	closed  bool
}

// OpenRoomList starts the live view. A signed-out caller gets an empty
// list and no subscriptions are established. onChange (optional) receives
// the recomputed list on every snapshot from either stream.
func OpenRoomList(ctx context.Context, st store.Store, src identity.Source, onChange func([]domain.RoomView)) (*RoomList, error) {
	l := &RoomList{
		onChange: onChange,
		current:  []domain.RoomView{},
	}

	user := src.CurrentUser()
	if user == nil {
		if onChange != nil {
			onChange([]domain.RoomView{})
		}
		return l, nil
	}
	l.userID = user.ID

	cancelMembers, err := st.Subscribe(ctx, membersRoot, l.applyMembersSnapshot)
	if err != nil {
		return nil, err
	}
	cancelRooms, err := st.Subscribe(ctx, chatsRoot, l.applyRoomsSnapshot)
	if err != nil {
		cancelMembers()
		return nil, err
	}

	l.mu.Lock()
	l.cancels = []func(){cancelMembers, cancelRooms}
	l.mu.Unlock()

	return l, nil
}

// Rooms returns the latest derived list.
func (l *RoomList) Rooms() []domain.RoomView {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.RoomView, len(l.current))
	copy(out, l.current)
	return out
}

// Close detaches both subscriptions.
func (l *RoomList) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	cancels := l.cancels
	l.cancels = nil
	l.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

func (l *RoomList) applyMembersSnapshot(snap store.Snapshot) {
	var members map[string]map[string]bool
	if err := snap.Decode(&members); err != nil {
		logger := log.L()
		logger.Warn().Err(err).Msg("bad membership snapshot")
		return
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.members = members
	current := l.recomputeLocked()
	l.mu.Unlock()

	l.emit(current)
}

func (l *RoomList) applyRoomsSnapshot(snap store.Snapshot) {
	var rooms map[string]domain.Room
	if err := snap.Decode(&rooms); err != nil {
		logger := log.L()
		logger.Warn().Err(err).Msg("bad room collection snapshot")
		return
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.rooms = rooms
	current := l.recomputeLocked()
	l.mu.Unlock()

	l.emit(current)
}

func (l *RoomList) recomputeLocked() []domain.RoomView {
	l.current = memberRoomViews(l.members, l.rooms, l.userID)
	out := make([]domain.RoomView, len(l.current))
	copy(out, l.current)
	return out
}

func (l *RoomList) emit(views []domain.RoomView) {
	if l.onChange != nil {
		l.onChange(views)
	}
}
