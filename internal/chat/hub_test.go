package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func attach(t *testing.T, h *Hub, roomID, userID string, buffer int) *connection {
	t.Helper()
	client := &connection{
		hub:    h,
		roomID: roomID,
		userID: userID,
		send:   make(chan Message, buffer),
	}
	h.register(client)
	return client
}

func TestBroadcastDropsBackpressuredClient(t *testing.T) {
	h := NewHub()
	fast := attach(t, h, "room-1", "fast", 1)
	slow := attach(t, h, "room-1", "slow", 0) // never drained

	done := make(chan struct{})
	go func() {
		h.Broadcast("room-1", Message{Event: "message", Content: "first"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked on a backpressured client")
	}

	got := <-fast.send
	require.Equal(t, "first", got.Content)
	require.Equal(t, "room-1", got.RoomID)

	// The slow client is detached and its channel closed.
	_, ok := <-slow.send
	require.False(t, ok)
	require.Equal(t, 1, h.RoomSize("room-1"))

	// The hub keeps serving the remaining client.
	h.Broadcast("room-1", Message{Event: "message", Content: "second"})
	got = <-fast.send
	require.Equal(t, "second", got.Content)
}

func TestBroadcastDeliversToAllHealthyClients(t *testing.T) {
	h := NewHub()
	a := attach(t, h, "room-1", "user-a", 1)
	b := attach(t, h, "room-1", "user-b", 1)
	other := attach(t, h, "room-2", "user-c", 1)

	h.Broadcast("room-1", Message{Event: "message", Content: "hello"})

	require.Equal(t, "hello", (<-a.send).Content)
	require.Equal(t, "hello", (<-b.send).Content)
	select {
	case <-other.send:
		t.Fatal("message leaked into another room")
	default:
	}
}

func TestDisconnectUserClosesOnlyThatUsersSockets(t *testing.T) {
	h := NewHub()
	left1 := attach(t, h, "room-1", "leaver", 1)
	left2 := attach(t, h, "room-1", "leaver", 1)
	stay := attach(t, h, "room-1", "stayer", 1)

	h.DisconnectUser("room-1", "leaver")

	_, ok := <-left1.send
	require.False(t, ok)
	_, ok = <-left2.send
	require.False(t, ok)
	require.Equal(t, 1, h.RoomSize("room-1"))

	h.Broadcast("room-1", Message{Event: "message", Content: "still here"})
	require.Equal(t, "still here", (<-stay.send).Content)
}

func TestDisconnectUserUnknownRoomIsNoOp(t *testing.T) {
	h := NewHub()
	h.DisconnectUser("missing", "anyone")
	require.Zero(t, h.RoomSize("missing"))
}
