package registry

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/room"
)

type discardChannel struct{}

func (discardChannel) Send(room.Event) error { return nil }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (that *fakeClock) Now() time.Time {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.now
}

func (that *fakeClock) Advance(d time.Duration) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.now = that.now.Add(d)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sequence(ids ...string) func() string {
	var mu sync.Mutex
	next := 0

	return func() string {
		mu.Lock()
		defer mu.Unlock()

		id := ids[next%len(ids)]
		next++

		return id
	}
}

func TestRegistry_CreateRoom(t *testing.T) {
	t.Run("Creates a waiting room with no players", func(t *testing.T) {
		// Given: an empty registry
		registry := New(newTestLogger())

		// When: a room is created
		created, err := registry.CreateRoom()

		// Then: it is registered and waiting
		require.NoError(t, err)
		assert.Len(t, created.ID(), 8)
		assert.Equal(t, room.PhaseWaiting, created.Phase())
		assert.Zero(t, created.PlayerCount())
		assert.Equal(t, 1, registry.RoomCount())
	})

	t.Run("Retries on collision", func(t *testing.T) {
		// Given: a generator that repeats its first id once
		registry := New(newTestLogger(), WithIDGenerator(sequence("aaaa1111", "aaaa1111", "bbbb2222")))
		first, err := registry.CreateRoom()
		require.NoError(t, err)

		// When: another room is created
		second, err := registry.CreateRoom()

		// Then: the colliding id is skipped
		require.NoError(t, err)
		assert.Equal(t, "AAAA1111", first.ID())
		assert.Equal(t, "BBBB2222", second.ID())
	})

	t.Run("Gives up when every id collides", func(t *testing.T) {
		registry := New(newTestLogger(), WithIDGenerator(sequence("SAME0000")))
		_, err := registry.CreateRoom()
		require.NoError(t, err)

		_, err = registry.CreateRoom()

		require.ErrorIs(t, err, ErrRoomIDExhausted)
		assert.Equal(t, 1, registry.RoomCount())
	})
}

func TestRegistry_FindRoom(t *testing.T) {
	// Given: a room with a known id
	registry := New(newTestLogger(), WithIDGenerator(sequence("ABCD1234")))
	created, err := registry.CreateRoom()
	require.NoError(t, err)

	// When: it is looked up in lower case with spaces
	found, ok := registry.FindRoom(" abcd1234 ")

	// Then: the same room is returned
	require.True(t, ok)
	assert.Same(t, created, found)

	_, ok = registry.FindRoom("missing")
	assert.False(t, ok)
}

func TestRegistry_Connections(t *testing.T) {
	registry := New(newTestLogger())

	// Given: an associated connection
	registry.Associate("conn-1", Membership{RoomID: "ROOM", PlayerID: "p1"})

	// When/Then: it resolves to its membership
	membership, ok := registry.Resolve("conn-1")
	require.True(t, ok)
	assert.Equal(t, "p1", membership.PlayerID)
	assert.Equal(t, "ROOM", membership.RoomID)
	assert.Equal(t, 1, registry.ConnectionCount())

	// When: it is disassociated
	registry.Disassociate("conn-1")

	// Then: it no longer resolves
	_, ok = registry.Resolve("conn-1")
	assert.False(t, ok)
	assert.Zero(t, registry.ConnectionCount())
}

func TestRegistry_RemoveIfEmpty(t *testing.T) {
	t.Run("Keeps occupied rooms", func(t *testing.T) {
		registry := New(newTestLogger())
		created, err := registry.CreateRoom()
		require.NoError(t, err)
		_, err = created.Join(room.JoinRequest{PlayerID: "p1", Out: discardChannel{}})
		require.NoError(t, err)

		assert.False(t, registry.RemoveIfEmpty(created.ID()))
		assert.Equal(t, 1, registry.RoomCount())
	})

	t.Run("Removed rooms refuse late joins", func(t *testing.T) {
		// Given: a room whose only player left
		registry := New(newTestLogger())
		created, err := registry.CreateRoom()
		require.NoError(t, err)
		_, err = created.Join(room.JoinRequest{PlayerID: "p1", Out: discardChannel{}})
		require.NoError(t, err)
		_, err = created.Leave("p1")
		require.NoError(t, err)

		// When: it is removed
		removed := registry.RemoveIfEmpty(created.ID())

		// Then: it is gone and a stale handle cannot be joined
		assert.True(t, removed)
		_, ok := registry.FindRoom(created.ID())
		assert.False(t, ok)
		_, err = created.Join(room.JoinRequest{PlayerID: "p2", Out: discardChannel{}})
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})
}

func TestRegistry_ReapEmptyRooms(t *testing.T) {
	// Given: an empty old room, an occupied old room and an empty new room
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	registry := New(newTestLogger(), WithClock(clock.Now))

	abandoned, err := registry.CreateRoom()
	require.NoError(t, err)
	occupied, err := registry.CreateRoom()
	require.NoError(t, err)
	_, err = occupied.Join(room.JoinRequest{PlayerID: "p1", Out: discardChannel{}})
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	fresh, err := registry.CreateRoom()
	require.NoError(t, err)

	// When: rooms older than an hour are reaped
	reaped := registry.ReapEmptyRooms(time.Hour)

	// Then: only the abandoned old room is removed
	assert.Equal(t, 1, reaped)
	_, ok := registry.FindRoom(abandoned.ID())
	assert.False(t, ok)
	_, ok = registry.FindRoom(occupied.ID())
	assert.True(t, ok)
	_, ok = registry.FindRoom(fresh.ID())
	assert.True(t, ok)
}

func TestRegistry_Run(t *testing.T) {
	// Given: an abandoned room that is already past its age limit
	clock := &fakeClock{now: time.Now()}
	registry := New(newTestLogger(), WithClock(clock.Now))
	_, err := registry.CreateRoom()
	require.NoError(t, err)
	clock.Advance(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	// When: the reaper runs with a short interval
	go func() {
		registry.Run(ctx, 10*time.Millisecond, time.Second)
		close(done)
	}()

	// Then: the room is reaped and the loop stops on cancel
	assert.Eventually(t, func() bool { return registry.RoomCount() == 0 }, time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}
