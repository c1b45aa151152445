package chat

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ryuhosoy/mobile-gym-app/internal/domain"
	"github.com/ryuhosoy/mobile-gym-app/internal/identity"
	"github.com/ryuhosoy/mobile-gym-app/internal/store"
	"github.com/ryuhosoy/mobile-gym-app/pkg/log"
)

var (
	ErrMissingGym   = errors.New("gym metadata is required")
	ErrRoomNotFound = errors.New("room not found")
)

// Rooms is the room directory: creation and snapshot reads. Live views
// are the job of Session and RoomList.
type Rooms struct {
	store store.Store
	clock func() time.Time
}

// NewRooms creates the room service.
func NewRooms(st store.Store) *Rooms {
	return &Rooms{store: st, clock: time.Now}
}

// Create opens a new chat room with a gym and enrolls the caller as its
// sole member, in one atomic write. Every call creates a fresh room even
// for a (user, gym) pair that already has one; the source app never
// deduplicated and callers rely on that.
func (r *Rooms) Create(ctx context.Context, src identity.Source, gymID, gymName string) (string, error) {
	user := src.CurrentUser()
	if user == nil {
		return "", identity.ErrNotSignedIn
	}
	if gymID == "" || gymName == "" {
		return "", ErrMissingGym
	}

	roomID := r.store.GenerateKey(chatsRoot)
	now := r.clock().UnixMilli()

	room := domain.Room{
		GymID:           gymID,
		GymName:         gymName,
		Title:           gymName,
		LastMessage:     roomCreatedPlaceholder,
		LastMessageTime: now,
		Timestamp:       now,
	}

	batch := store.NewWriteBatch().
		Set(roomPath(roomID), room).
		Set(memberPath(roomID, user.ID), true)
	if err := r.store.Commit(ctx, batch); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldGymID, gymID).Msg("room creation failed")
		return "", fmt.Errorf("create room: %w", err)
	}

	return roomID, nil
}

// Get fetches one room record.
func (r *Rooms) Get(ctx context.Context, roomID string) (*domain.RoomView, error) {
	snap, err := r.store.Get(ctx, roomPath(roomID))
	if err != nil {
		return nil, err
	}
	if !snap.Exists() {
		return nil, ErrRoomNotFound
	}
	var room domain.Room
	if err := snap.Decode(&room); err != nil {
		return nil, err
	}
	view := room.View(roomID)
	return &view, nil
}

// ListForUser returns a one-shot, timestamp-descending view of the rooms
// the user belongs to. An empty user ID yields an empty list.
func (r *Rooms) ListForUser(ctx context.Context, userID string) ([]domain.RoomView, error) {
	if userID == "" {
		return []domain.RoomView{}, nil
	}

	memberSnap, err := r.store.Get(ctx, membersRoot)
	if err != nil {
		return nil, err
	}
	roomSnap, err := r.store.Get(ctx, chatsRoot)
	if err != nil {
		return nil, err
	}

	var members map[string]map[string]bool
	if err := memberSnap.Decode(&members); err != nil {
		return nil, err
	}
	var rooms map[string]domain.Room
	if err := roomSnap.Decode(&rooms); err != nil {
		return nil, err
	}

	return memberRoomViews(members, rooms, userID), nil
}

// MessageLog returns the room's messages sorted for display. An absent
// log reads as empty.
func (r *Rooms) MessageLog(ctx context.Context, roomID string) ([]domain.Message, error) {
	snap, err := r.store.Get(ctx, messagesPath(roomID))
	if err != nil {
		return nil, err
	}
	return decodeMessageLog(snap)
}

// decodeMessageLog turns a message-collection snapshot into a sorted
// slice. The store key wins over any stored id field.
func decodeMessageLog(snap store.Snapshot) ([]domain.Message, error) {
	var raw map[string]domain.Message
	if err := snap.Decode(&raw); err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, 0, len(raw))
	for id, m := range raw {
		m.ID = id
		msgs = append(msgs, m)
	}
	sortMessages(msgs)
	return msgs, nil
}

// sortMessages orders for display: timestamp ascending, generated key as
// the tie-break. The full snapshot is re-sorted every time because the
// store makes no promise about delivery order.
func sortMessages(msgs []domain.Message) {
	sort.Slice(msgs, func(i, j int) bool {
		if msgs[i].Timestamp != msgs[j].Timestamp {
			return msgs[i].Timestamp < msgs[j].Timestamp
		}
		return msgs[i].ID < msgs[j].ID
	})
}

// memberRoomViews filters rooms to the user's membership and sorts by
// creation time, newest first.
func memberRoomViews(members map[string]map[string]bool, rooms map[string]domain.Room, userID string) []domain.RoomView {
	views := make([]domain.RoomView, 0, len(rooms))
	for roomID, room := range rooms {
		if members[roomID][userID] {
			views = append(views, room.View(roomID))
		}
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].Timestamp > views[j].Timestamp
	})
	return views
}
