// internal/game/room_store.go
package game

import (
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/unoroom/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	roomIDLength   = 6
	roomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxIDAttempts  = 32
)

// RoomStore manages active ephemeral rooms in memory.
// It provides thread-safe access to create, look up and delete rooms, and is the single entry
// point for actions addressed to a room by id. It never holds its own lock while calling a room.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[string]*Room
	rng   *rand.Rand // guarded by mu
	opts  RoomOptions
	log   logrus.FieldLogger

	// newID is swappable in tests. Called with mu held.
	newID func() string
}

// NewRoomStore returns an empty store. Every room it creates is built with opts.
func NewRoomStore(opts RoomOptions) *RoomStore {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
		opts.Logger = logger
	}
	s := &RoomStore{
		rooms: make(map[string]*Room),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		opts:  opts,
		log:   logger,
	}
	s.newID = s.randomID
	return s
}

func (s *RoomStore) randomID() string {
	b := make([]byte, roomIDLength)
	for i := range b {
		b[i] = roomIDAlphabet[s.rng.Intn(len(roomIDAlphabet))]
	}
	return string(b)
}

// NormalizeRoomID upper-cases and trims a user-typed room id.
func NormalizeRoomID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// CreateRoom allocates a fresh id, stores a waiting room with host as its sole player and
// broadcasts it. The room removes itself from the store once its last human leaves.
func (s *RoomStore) CreateRoom(host *models.Player) (*Room, error) {
	s.mu.Lock()
	id := ""
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		candidate := s.newID()
		if _, taken := s.rooms[candidate]; !taken {
			id = candidate
			break
		}
	}
	if id == "" {
		s.mu.Unlock()
		s.log.Error("RoomStore: room id space exhausted")
		return nil, ErrRoomIDExhausted
	}
	room := NewRoom(id, host, s.opts)
	room.OnEmpty = s.DeleteRoom
	s.rooms[id] = room
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"room": id, "host": host.ID}).Info("RoomStore: created room")
	room.Announce()
	return room, nil
}

// GetRoom retrieves a room by id.
func (s *RoomStore) GetRoom(id string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[NormalizeRoomID(id)]
	return r, ok
}

// DeleteRoom removes a room from the store. Usually reached through Room.OnEmpty.
func (s *RoomStore) DeleteRoom(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[id]; !ok {
		s.log.Warnf("RoomStore: attempted to delete non-existent room %s", id)
		return
	}
	delete(s.rooms, id)
	s.log.WithField("room", id).Info("RoomStore: deleted room")
}

// Len returns the number of live rooms.
func (s *RoomStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// roomList returns a copy of the live rooms so callers can lock each one without holding mu.
func (s *RoomStore) roomList() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		list = append(list, r)
	}
	return list
}

// ListRooms returns a summary of every live room, oldest first.
func (s *RoomStore) ListRooms() []RoomSummary {
	rooms := s.roomList()
	out := make([]RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Join adds a human to a waiting room.
func (s *RoomStore) Join(roomID string, p *models.Player) error {
	room, ok := s.GetRoom(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	return room.Join(p)
}

// AddAutomatedPlayer seats an agent in a waiting room.
func (s *RoomStore) AddAutomatedPlayer(roomID string) (*models.Player, error) {
	room, ok := s.GetRoom(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room.AddAutomatedPlayer()
}

// Start begins the game in a room.
func (s *RoomStore) Start(roomID string) error {
	room, ok := s.GetRoom(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	return room.Start()
}

// PlayCard plays a card for playerID in a room.
func (s *RoomStore) PlayCard(roomID string, playerID, cardID uuid.UUID, chosen models.Color) error {
	room, ok := s.GetRoom(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	return room.PlayCard(playerID, cardID, chosen)
}

// DrawCard draws a card for playerID in a room.
func (s *RoomStore) DrawCard(roomID string, playerID uuid.UUID) error {
	room, ok := s.GetRoom(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	return room.DrawCard(playerID)
}

// DeclareLowHand records an UNO call for playerID in a room.
func (s *RoomStore) DeclareLowHand(roomID string, playerID uuid.UUID) error {
	room, ok := s.GetRoom(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	return room.DeclareLowHand(playerID)
}

// RemovePlayer removes playerID from one room.
func (s *RoomStore) RemovePlayer(roomID string, playerID uuid.UUID) error {
	room, ok := s.GetRoom(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	_, err := room.RemovePlayer(playerID)
	return err
}

// RemovePlayerEverywhere removes a disconnected player from every room it sits in and
// returns the ids of those rooms.
func (s *RoomStore) RemovePlayerEverywhere(playerID uuid.UUID) []string {
	var left []string
	for _, room := range s.roomList() {
		if _, err := room.RemovePlayer(playerID); err == nil {
			left = append(left, room.ID)
		}
	}
	sort.Strings(left)
	return left
}
