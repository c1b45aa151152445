package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ryuhosoy/mobile-gym-app/internal/domain"
	"github.com/ryuhosoy/mobile-gym-app/internal/identity"
	"github.com/ryuhosoy/mobile-gym-app/internal/store"
)

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestCreateRoomAtomicWithMembership(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()
	ctx := context.Background()

	rooms := NewRooms(st)
	rooms.clock = fixedClock(1000)
	src := identity.Fixed(&domain.User{ID: "u1", Email: "taro@example.com"})

	roomID, err := rooms.Create(ctx, src, "gym-1", "Gold Gym Shibuya")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if roomID == "" {
		t.Fatal("empty room ID")
	}

	view, err := rooms.Get(ctx, roomID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.GymID != "gym-1" || view.GymName != "Gold Gym Shibuya" {
		t.Fatalf("room = %+v", view)
	}
	if view.Title != "Gold Gym Shibuya" {
		t.Fatalf("title = %q, want gym name", view.Title)
	}
	if view.LastMessage != roomCreatedPlaceholder {
		t.Fatalf("lastMessage = %q, want creation placeholder", view.LastMessage)
	}
	if view.Timestamp != 1000 || view.LastMessageTime != 1000 {
		t.Fatalf("timestamps = %d/%d, want 1000", view.Timestamp, view.LastMessageTime)
	}

	memberSnap, err := st.Get(ctx, memberPath(roomID, "u1"))
	if err != nil {
		t.Fatalf("get membership: %v", err)
	}
	if !memberSnap.Exists() {
		t.Fatal("creator not enrolled as member")
	}
}

func TestCreateRoomNeverDeduplicates(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()
	ctx := context.Background()

	rooms := NewRooms(st)
	src := identity.Fixed(&domain.User{ID: "u1", Email: "taro@example.com"})

	first, err := rooms.Create(ctx, src, "gym-1", "Gold Gym Shibuya")
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := rooms.Create(ctx, src, "gym-1", "Gold Gym Shibuya")
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if first == second {
		t.Fatal("repeated (user, gym) creation reused a room ID")
	}
}

func TestCreateRoomRequiresSignIn(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()

	rooms := NewRooms(st)
	_, err := rooms.Create(context.Background(), identity.Fixed(nil), "gym-1", "Gold Gym Shibuya")
	if !errors.Is(err, identity.ErrNotSignedIn) {
		t.Fatalf("got %v, want ErrNotSignedIn", err)
	}

	// Nothing may reach the store.
	snap, err := st.Get(context.Background(), chatsRoot)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if snap.Exists() {
		t.Fatal("unauthenticated create wrote data")
	}
}

func TestCreateRoomRequiresGymMetadata(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()

	rooms := NewRooms(st)
	src := identity.Fixed(&domain.User{ID: "u1"})

	if _, err := rooms.Create(context.Background(), src, "", "Gold Gym"); !errors.Is(err, ErrMissingGym) {
		t.Fatalf("empty gym ID: %v", err)
	}
	if _, err := rooms.Create(context.Background(), src, "gym-1", ""); !errors.Is(err, ErrMissingGym) {
		t.Fatalf("empty gym name: %v", err)
	}
}

func TestGetRoomNotFound(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()

	rooms := NewRooms(st)
	if _, err := rooms.Get(context.Background(), "missing"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("got %v, want ErrRoomNotFound", err)
	}
}

func TestListForUserFiltersAndSorts(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()
	ctx := context.Background()

	rooms := NewRooms(st)
	alice := identity.Fixed(&domain.User{ID: "alice"})
	bob := identity.Fixed(&domain.User{ID: "bob"})

	rooms.clock = fixedClock(100)
	older, err := rooms.Create(ctx, alice, "gym-1", "Gym One")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	rooms.clock = fixedClock(200)
	if _, err := rooms.Create(ctx, bob, "gym-2", "Gym Two"); err != nil {
		t.Fatalf("create: %v", err)
	}
	rooms.clock = fixedClock(300)
	newer, err := rooms.Create(ctx, alice, "gym-3", "Gym Three")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	views, err := rooms.ListForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("len = %d, want 2", len(views))
	}
	// Newest creation first.
	if views[0].ID != newer || views[1].ID != older {
		t.Fatalf("order = %s, %s", views[0].ID, views[1].ID)
	}
}

func TestListForUserEmptyUser(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()

	rooms := NewRooms(st)
	views, err := rooms.ListForUser(context.Background(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("len = %d, want 0", len(views))
	}
}

func TestMessageLogAbsentIsEmpty(t *testing.T) {
	st := store.NewMemoryStore()
	defer st.Close()

	rooms := NewRooms(st)
	msgs, err := rooms.MessageLog(context.Background(), "no-such-room")
	if err != nil {
		t.Fatalf("message log: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("len = %d, want 0", len(msgs))
	}
}

func TestSortMessagesTieBreaksOnKey(t *testing.T) {
	msgs := []domain.Message{
		{ID: "02KEY", Timestamp: 100},
		{ID: "01KEY", Timestamp: 100},
		{ID: "03KEY", Timestamp: 50},
	}
	sortMessages(msgs)

	got := []string{msgs[0].ID, msgs[1].ID, msgs[2].ID}
	want := []string{"03KEY", "01KEY", "02KEY"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}
