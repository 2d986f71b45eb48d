// internal/game/sync_state.go
package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/unoroom/internal/models"
)

// RoomState is the full room snapshot sent to every connection after each change.
// The draw pile is reported by size only.
type RoomState struct {
	RoomID             string          `json:"roomId"`
	Players            []models.Player `json:"players"`
	CurrentPlayerIndex int             `json:"currentPlayerIndex"`
	Direction          int             `json:"direction"`
	DrawPileSize       int             `json:"drawPileSize"`
	DiscardPile        []*models.Card  `json:"discardPile"`
	CurrentColor       models.Color    `json:"currentColor"`
	Status             RoomStatus      `json:"status"`
	Winner             *uuid.UUID      `json:"winner"`
	Messages           []Message       `json:"messages"`
	TurnID             int             `json:"turnId"`
}

// CurrentPlayer returns the player whose turn it is, or nil when no game is running.
func (s RoomState) CurrentPlayer() *models.Player {
	if s.Status != StatusPlaying || s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return nil
	}
	return &s.Players[s.CurrentPlayerIndex]
}

// Snapshot returns a copy of the room state that is safe to use after the lock is released.
func (r *Room) Snapshot() RoomState {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.snapshot()
}

// snapshot assumes the lock is held. Cards are immutable, so only the slices are copied.
func (r *Room) snapshot() RoomState {
	st := RoomState{
		RoomID:             r.ID,
		Players:            make([]models.Player, len(r.Players)),
		CurrentPlayerIndex: r.CurrentPlayerIndex,
		Direction:          r.Direction,
		DrawPileSize:       len(r.Piles.Draw),
		DiscardPile:        append([]*models.Card{}, r.Piles.Discard...),
		CurrentColor:       r.ActiveColor,
		Status:             r.Status,
		Messages:           append([]Message{}, r.Messages...),
		TurnID:             r.TurnID,
	}
	for i, p := range r.Players {
		st.Players[i] = *p
		st.Players[i].Hand = append([]*models.Card{}, p.Hand...)
	}
	if r.WinnerID != uuid.Nil {
		w := r.WinnerID
		st.Winner = &w
	}
	return st
}

// RoomSummary is the listing view of a room.
type RoomSummary struct {
	ID          string     `json:"id"`
	Status      RoomStatus `json:"status"`
	PlayerCount int        `json:"playerCount"`
	HumanCount  int        `json:"humanCount"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Summary returns the listing view of the room.
func (r *Room) Summary() RoomSummary {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return RoomSummary{
		ID:          r.ID,
		Status:      r.Status,
		PlayerCount: len(r.Players),
		HumanCount:  r.humanCount(),
		CreatedAt:   r.CreatedAt,
	}
}
