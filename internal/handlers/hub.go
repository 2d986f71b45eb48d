// internal/handlers/hub.go
package handlers

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/unoroom/internal/game"
	"github.com/sirupsen/logrus"
)

// outboundBuffer is how many events may queue for one connection before new ones are dropped.
const outboundBuffer = 64

const stateUpdateType = "gameStateUpdate"

// Connection is one WebSocket client. Its ID doubles as the player id in every room it joins.
type Connection struct {
	ID      uuid.UUID
	Remote  string
	OutChan chan map[string]interface{}

	log logrus.FieldLogger
}

// NewConnection builds a connection with a fresh id and a bounded outbound queue.
func NewConnection(remote string, logger logrus.FieldLogger) *Connection {
	id := uuid.New()
	return &Connection{
		ID:      id,
		Remote:  remote,
		OutChan: make(chan map[string]interface{}, outboundBuffer),
		log:     logger.WithField("conn", id),
	}
}

// Write pushes a message onto the connection's OutChan without blocking.
// When the queue is full a state update evicts the oldest queued message; anything else is dropped.
func (conn *Connection) Write(msg map[string]interface{}) {
	select {
	case conn.OutChan <- msg:
		return
	default:
	}

	msgType, _ := msg["type"].(string)
	if msgType == stateUpdateType {
		select {
		case old := <-conn.OutChan:
			oldType, _ := old["type"].(string)
			conn.log.Warnf("OutChan full, evicted queued message type '%s'", oldType)
		default:
		}
		select {
		case conn.OutChan <- msg:
			return
		default:
		}
	}
	conn.log.Warnf("OutChan full, dropped message type '%s'", msgType)
}

// WriteError sends an error event to this connection only.
func (conn *Connection) WriteError(message string) {
	conn.Write(map[string]interface{}{
		"type":    "error",
		"message": message,
	})
}

// Hub tracks live connections by id and fans room snapshots out to them.
type Hub struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]*Connection
	log   logrus.FieldLogger
}

// NewHub returns an empty hub.
func NewHub(logger logrus.FieldLogger) *Hub {
	return &Hub{
		conns: make(map[uuid.UUID]*Connection),
		log:   logger,
	}
}

// Register makes conn reachable by broadcasts.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn.ID] = conn
}

// Unregister stops broadcasts to id. The caller owns closing the socket.
func (h *Hub) Unregister(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, id)
}

// Get looks up a live connection.
func (h *Hub) Get(id uuid.UUID) (*Connection, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[id]
	return c, ok
}

// Len returns the number of live connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// BroadcastState is the rooms' game.BroadcastFunc: every human seated in the room gets the snapshot.
// Runs under the room lock, so it only enqueues.
func (h *Hub) BroadcastState(roomID string, state game.RoomState) {
	msg := map[string]interface{}{
		"type":  stateUpdateType,
		"state": state,
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, p := range state.Players {
		if p.IsAI {
			continue
		}
		conn, ok := h.conns[p.ID]
		if !ok {
			h.log.WithFields(logrus.Fields{"room": roomID, "player": p.ID}).Debug("no live connection for player")
			continue
		}
		conn.Write(msg)
	}
}
