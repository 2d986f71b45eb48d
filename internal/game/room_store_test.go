package game

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/unoroom/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() (*RoomStore, *mockBroadcaster, *fakeScheduler) {
	mb := &mockBroadcaster{}
	fs := &fakeScheduler{}
	s := NewRoomStore(RoomOptions{
		Scheduler: fs,
		Broadcast: mb.broadcastFn,
		Logger:    quietLogger(),
	})
	return s, mb, fs
}

func TestCreateRoom(t *testing.T) {
	s, mb, _ := newTestStore()
	host := human("Host")

	room, err := s.CreateRoom(host)
	require.NoError(t, err)
	assert.Len(t, room.ID, roomIDLength)
	for _, ch := range room.ID {
		assert.True(t, strings.ContainsRune(roomIDAlphabet, ch), "unexpected id char %q", ch)
	}
	assert.Equal(t, 1, mb.count(), "creation is announced")
	assert.Equal(t, room.ID, mb.last().RoomID)
	assert.True(t, room.HasPlayer(host.ID))

	got, ok := s.GetRoom(strings.ToLower(room.ID))
	require.True(t, ok, "lookup ignores case")
	assert.Same(t, room, got)
}

func TestCreateRoomIDsAreUnique(t *testing.T) {
	s, _, _ := newTestStore()
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		room, err := s.CreateRoom(human(fmt.Sprintf("H%d", i)))
		require.NoError(t, err)
		require.False(t, seen[room.ID], "duplicate id %s", room.ID)
		seen[room.ID] = true
	}
	assert.Equal(t, 200, s.Len())
}

func TestCreateRoomRegeneratesOnCollision(t *testing.T) {
	s, _, _ := newTestStore()
	ids := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	s.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	first, err := s.CreateRoom(human("A"))
	require.NoError(t, err)
	second, err := s.CreateRoom(human("B"))
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", first.ID)
	assert.Equal(t, "BBBBBB", second.ID)
}

func TestCreateRoomIDExhausted(t *testing.T) {
	s, _, _ := newTestStore()
	s.newID = func() string { return "AAAAAA" }

	_, err := s.CreateRoom(human("A"))
	require.NoError(t, err)
	_, err = s.CreateRoom(human("B"))
	assert.ErrorIs(t, err, ErrRoomIDExhausted)
	assert.Equal(t, 1, s.Len())
}

func TestStoreMissingRoom(t *testing.T) {
	s, _, _ := newTestStore()
	id := uuid.New()

	assert.ErrorIs(t, s.Join("NOPE00", human("X")), ErrRoomNotFound)
	_, err := s.AddAutomatedPlayer("NOPE00")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.ErrorIs(t, s.Start("NOPE00"), ErrRoomNotFound)
	assert.ErrorIs(t, s.PlayCard("NOPE00", id, uuid.New(), models.Red), ErrRoomNotFound)
	assert.ErrorIs(t, s.DrawCard("NOPE00", id), ErrRoomNotFound)
	assert.ErrorIs(t, s.DeclareLowHand("NOPE00", id), ErrRoomNotFound)
	assert.ErrorIs(t, s.RemovePlayer("NOPE00", id), ErrRoomNotFound)
}

func TestStoreRoutesToRoom(t *testing.T) {
	s, _, fs := newTestStore()
	host := human("Host")
	room, err := s.CreateRoom(host)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Start(room.ID), ErrNotEnoughPlayers)
	guest := human("Guest")
	require.NoError(t, s.Join(room.ID, guest))
	_, err = s.AddAutomatedPlayer(room.ID)
	require.NoError(t, err)
	require.NoError(t, s.Start(room.ID))
	assert.ErrorIs(t, s.Join(room.ID, human("Late")), ErrGameAlreadyStarted)

	snap := room.Snapshot()
	cur := snap.CurrentPlayer()
	require.NotNil(t, cur)
	if cur.IsAI {
		fs.runPending()
	} else {
		require.NoError(t, s.DrawCard(room.ID, cur.ID))
	}
	assert.Greater(t, room.Snapshot().TurnID, snap.TurnID)
}

func TestStoreDeletesRoomWhenLastHumanLeaves(t *testing.T) {
	s, _, _ := newTestStore()
	host := human("Host")
	room, err := s.CreateRoom(host)
	require.NoError(t, err)
	_, err = s.AddAutomatedPlayer(room.ID)
	require.NoError(t, err)

	require.NoError(t, s.RemovePlayer(room.ID, host.ID))

	_, ok := s.GetRoom(room.ID)
	assert.False(t, ok)
	assert.Zero(t, s.Len())
	assert.True(t, room.Closed())
	assert.ErrorIs(t, s.RemovePlayer(room.ID, host.ID), ErrRoomNotFound)
	assert.Empty(t, s.ListRooms())
}

func TestRemovePlayerEverywhere(t *testing.T) {
	s, _, _ := newTestStore()
	roamer := human("Roamer")

	a, err := s.CreateRoom(human("A"))
	require.NoError(t, err)
	b, err := s.CreateRoom(roamer)
	require.NoError(t, err)
	c, err := s.CreateRoom(human("C"))
	require.NoError(t, err)
	require.NoError(t, s.Join(a.ID, roamer))

	left := s.RemovePlayerEverywhere(roamer.ID)

	want := []string{a.ID, b.ID}
	if want[0] > want[1] {
		want[0], want[1] = want[1], want[0]
	}
	assert.Equal(t, want, left)
	assert.False(t, a.HasPlayer(roamer.ID))
	_, ok := s.GetRoom(b.ID)
	assert.False(t, ok, "room with no humans left is gone")
	_, ok = s.GetRoom(c.ID)
	assert.True(t, ok)
	assert.Equal(t, 2, s.Len())
	assert.Empty(t, s.RemovePlayerEverywhere(roamer.ID))
}

func TestListRooms(t *testing.T) {
	s, _, _ := newTestStore()
	room, err := s.CreateRoom(human("Host"))
	require.NoError(t, err)
	_, err = s.AddAutomatedPlayer(room.ID)
	require.NoError(t, err)
	_, err = s.CreateRoom(human("Other"))
	require.NoError(t, err)

	list := s.ListRooms()
	require.Len(t, list, 2)
	assert.False(t, list[1].CreatedAt.Before(list[0].CreatedAt))
	for _, sum := range list {
		if sum.ID == room.ID {
			assert.Equal(t, 2, sum.PlayerCount)
			assert.Equal(t, 1, sum.HumanCount)
			assert.Equal(t, StatusWaiting, sum.Status)
		}
	}
}

func TestStoreConcurrentRooms(t *testing.T) {
	s, _, fs := newTestStore()
	const n = 32

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			host := human(fmt.Sprintf("H%d", i))
			room, err := s.CreateRoom(host)
			if err != nil {
				errs <- err
				return
			}
			if _, err := s.AddAutomatedPlayer(room.ID); err != nil {
				errs <- err
				return
			}
			if err := s.Start(room.ID); err != nil {
				errs <- err
				return
			}
			_ = s.ListRooms()
			if i%2 == 0 {
				if err := s.RemovePlayer(room.ID, host.ID); err != nil {
					errs <- err
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, n/2, s.Len())
	fs.runPending()
}
