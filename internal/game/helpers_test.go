package game

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/unoroom/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// mockBroadcaster collects snapshots instead of sending them over WS.
type mockBroadcaster struct {
	mu     sync.Mutex
	states []RoomState
}

func (mb *mockBroadcaster) broadcastFn(roomID string, st RoomState) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.states = append(mb.states, st)
}

func (mb *mockBroadcaster) count() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return len(mb.states)
}

func (mb *mockBroadcaster) last() *RoomState {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if len(mb.states) == 0 {
		return nil
	}
	return &mb.states[len(mb.states)-1]
}

// fakeScheduler queues tasks so tests decide when agent turns fire.
type fakeScheduler struct {
	mu     sync.Mutex
	tasks  []func()
	delays []time.Duration
}

func (fs *fakeScheduler) AfterFunc(d time.Duration, f func()) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.tasks = append(fs.tasks, f)
	fs.delays = append(fs.delays, d)
}

func (fs *fakeScheduler) pending() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.tasks)
}

// runPending fires the queued tasks (not ones they schedule) and returns how many ran.
func (fs *fakeScheduler) runPending() int {
	fs.mu.Lock()
	tasks := fs.tasks
	fs.tasks = nil
	fs.mu.Unlock()
	for _, f := range tasks {
		f()
	}
	return len(tasks)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func card(color models.Color, value models.Value) *models.Card {
	return &models.Card{ID: uuid.New(), Color: color, Value: value}
}

func human(name string) *models.Player {
	return models.NewPlayer(uuid.New(), name, "🙂")
}

// setupTestRoom builds a waiting room with the given humans followed by agents.
func setupTestRoom(t *testing.T, humans, agents int) (*Room, *mockBroadcaster, *fakeScheduler) {
	t.Helper()
	require.GreaterOrEqual(t, humans, 1)
	mb := &mockBroadcaster{}
	fs := &fakeScheduler{}
	r := NewRoom("TEST01", human("Host"), RoomOptions{
		Seed:      42,
		Scheduler: fs,
		Broadcast: mb.broadcastFn,
		Logger:    quietLogger(),
		AIDelay:   time.Millisecond,
	})
	for i := 1; i < humans; i++ {
		require.NoError(t, r.Join(human("Player"+string(rune('A'+i)))))
	}
	for i := 0; i < agents; i++ {
		_, err := r.AddAutomatedPlayer()
		require.NoError(t, err)
	}
	return r, mb, fs
}

// rigRoom puts a room straight into a chosen mid-game position.
func rigRoom(t *testing.T, r *Room, top *models.Card, current int, hands ...[]*models.Card) {
	t.Helper()
	r.Mu.Lock()
	defer r.Mu.Unlock()
	require.Len(t, hands, len(r.Players))
	for i, p := range r.Players {
		p.Hand = hands[i]
	}
	r.Piles = Piles{Draw: NewDeck(r.rng), Discard: []*models.Card{top}}
	r.ActiveColor = top.Color
	r.Direction = 1
	r.Status = StatusPlaying
	r.CurrentPlayerIndex = current
	r.TurnID++
}

// requireCardPartition checks that every card in the room is held exactly once.
func requireCardPartition(t *testing.T, r *Room, want int) {
	t.Helper()
	r.Mu.Lock()
	defer r.Mu.Unlock()
	seen := make(map[uuid.UUID]bool, want)
	add := func(cards []*models.Card) {
		for _, c := range cards {
			require.False(t, seen[c.ID], "card %s held twice", c)
			seen[c.ID] = true
		}
	}
	add(r.Piles.Draw)
	add(r.Piles.Discard)
	for _, p := range r.Players {
		add(p.Hand)
	}
	require.Len(t, seen, want)
}
