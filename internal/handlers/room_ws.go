// internal/handlers/room_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/unoroom/internal/middleware"
	"github.com/jason-s-yu/unoroom/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 5 * time.Second

	// maxRateStrikes is how many rate-limited events in a row close the connection.
	maxRateStrikes = 20

	defaultPlayerName = "Player"
	maxNameLength     = 24
)

// RoomMessage is an inbound client event. Fields beyond Type depend on the event.
type RoomMessage struct {
	Type        string `json:"type"`
	RoomID      string `json:"roomId,omitempty"`
	Name        string `json:"name,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	CardID      string `json:"cardId,omitempty"`
	ChosenColor string `json:"chosenColor,omitempty"`
}

// WSHandler upgrades the request and serves one client until it disconnects.
// On disconnect the connection's player is removed from every room it joined.
func (s *RoomServer) WSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: s.originPatterns,
		})
		if err != nil {
			s.log.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.CloseNow()

		if c.Subprotocol() != Subprotocol {
			c.Close(BadSubprotocolError, "client must speak the uno subprotocol")
			return
		}
		c.SetReadLimit(s.maxMessageSize)

		conn := NewConnection(r.RemoteAddr, s.log)
		s.Hub.Register(conn)
		middleware.LogWebSocketConnect(s.log.WithField("conn", conn.ID), r.RemoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		go s.writePump(ctx, cancel, c, conn)
		readErr := s.readPump(ctx, c, conn)
		cancel()

		s.Hub.Unregister(conn.ID)
		left := s.Store.RemovePlayerEverywhere(conn.ID)
		if len(left) > 0 {
			conn.log.WithField("rooms", left).Info("removed disconnected player")
		}
		middleware.LogWebSocketDisconnect(s.log.WithField("conn", conn.ID), r.RemoteAddr, r.URL.Path, readErr)
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// readPump reads events until the socket closes. A clean close returns nil.
func (s *RoomServer) readPump(ctx context.Context, c *websocket.Conn, conn *Connection) error {
	limiter := rate.NewLimiter(rate.Every(s.rateEvery), s.rateBurst)
	strikes := 0

	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway ||
				errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if !limiter.Allow() {
			strikes++
			if strikes >= maxRateStrikes {
				c.Close(RateLimitedError, "too many messages")
				return fmt.Errorf("connection %s rate limited", conn.ID)
			}
			conn.WriteError("Rate limit exceeded")
			continue
		}
		strikes = 0

		if typ != websocket.MessageText {
			conn.WriteError("Only text messages are supported")
			continue
		}

		var msg RoomMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			conn.log.Debugf("invalid json: %v", err)
			conn.WriteError("Invalid JSON format")
			continue
		}
		s.handleMessage(conn, msg)
	}
}

// handleMessage routes one event. A panic is contained to this event.
func (s *RoomServer) handleMessage(conn *Connection, msg RoomMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			conn.log.WithFields(logrus.Fields{
				"event": msg.Type,
				"panic": rec,
			}).Error("recovered from panic while handling event")
		}
	}()

	switch msg.Type {
	case "createRoom":
		player := models.NewPlayer(conn.ID, displayName(msg.Name), msg.Avatar)
		room, err := s.Store.CreateRoom(player)
		if err != nil {
			conn.log.WithError(err).Error("failed to create room")
			conn.WriteError("Could not create room")
			return
		}
		conn.Write(map[string]interface{}{
			"type":   "roomCreated",
			"roomId": room.ID,
		})

	case "joinRoom":
		player := models.NewPlayer(conn.ID, displayName(msg.Name), msg.Avatar)
		if err := s.Store.Join(msg.RoomID, player); err != nil {
			conn.log.WithError(err).WithField("room", msg.RoomID).Debug("join rejected")
			conn.Write(map[string]interface{}{
				"type":    "joinResult",
				"success": false,
				"message": joinFailureReason(err),
			})
			return
		}
		conn.Write(map[string]interface{}{
			"type":    "joinResult",
			"success": true,
		})

	case "addAI":
		if !s.seated(conn, msg) {
			return
		}
		_, err := s.Store.AddAutomatedPlayer(msg.RoomID)
		s.dropped(conn, msg, err)

	case "startGame":
		if !s.seated(conn, msg) {
			return
		}
		s.dropped(conn, msg, s.Store.Start(msg.RoomID))

	case "playCard":
		cardID, err := uuid.Parse(msg.CardID)
		if err != nil {
			s.dropped(conn, msg, fmt.Errorf("bad card id %q: %w", msg.CardID, err))
			return
		}
		// an unknown color is treated like a missing one and falls back to red for wilds
		chosen, _ := models.ParseColor(msg.ChosenColor)
		s.dropped(conn, msg, s.Store.PlayCard(msg.RoomID, conn.ID, cardID, chosen))

	case "drawCard":
		s.dropped(conn, msg, s.Store.DrawCard(msg.RoomID, conn.ID))

	case "callUno":
		s.dropped(conn, msg, s.Store.DeclareLowHand(msg.RoomID, conn.ID))

	case "ping":
		conn.Write(map[string]interface{}{"type": "pong"})

	default:
		conn.log.Debugf("unknown event type '%s'", msg.Type)
		conn.WriteError(fmt.Sprintf("Unknown event type: %s", msg.Type))
	}
}

// seated reports whether conn holds a seat in the addressed room. Others are ignored.
func (s *RoomServer) seated(conn *Connection, msg RoomMessage) bool {
	room, ok := s.Store.GetRoom(msg.RoomID)
	if ok && room.HasPlayer(conn.ID) {
		return true
	}
	conn.log.WithFields(logrus.Fields{"event": msg.Type, "room": msg.RoomID}).Debug("ignoring event from a connection outside the room")
	return false
}

// dropped logs a rejected action. Nothing is sent back.
func (s *RoomServer) dropped(conn *Connection, msg RoomMessage, err error) {
	if err == nil {
		return
	}
	conn.log.WithError(err).WithFields(logrus.Fields{
		"event": msg.Type,
		"room":  msg.RoomID,
	}).Debug("ignored event")
}

// writePump drains the connection's OutChan onto the socket and pings periodically.
// Any write failure cancels the connection.
func (s *RoomServer) writePump(ctx context.Context, cancel context.CancelFunc, c *websocket.Conn, conn *Connection) {
	defer cancel()
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, pingCancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Ping(pingCtx)
			pingCancel()
			if err != nil {
				conn.log.Debugf("ping failed: %v", err)
				return
			}
		case msg := <-conn.OutChan:
			data, err := json.Marshal(msg)
			if err != nil {
				conn.log.Warnf("failed to marshal outgoing message: %v", err)
				continue
			}
			writeCtx, writeCancel := context.WithTimeout(ctx, writeTimeout)
			err = c.Write(writeCtx, websocket.MessageText, data)
			writeCancel()
			if err != nil {
				conn.log.Debugf("write failed: %v", err)
				return
			}
		}
	}
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultPlayerName
	}
	if r := []rune(name); len(r) > maxNameLength {
		name = string(r[:maxNameLength])
	}
	return name
}
