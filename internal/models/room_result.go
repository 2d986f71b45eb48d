package models

import (
	"time"

	"github.com/google/uuid"
)

// RoomResult is the archived outcome of a finished game.
type RoomResult struct {
	RoomID     string
	WinnerID   uuid.UUID
	WinnerName string
	StartedAt  time.Time
	FinishedAt time.Time
	Players    []ResultPlayer
}

// ResultPlayer is one seat's final standing.
type ResultPlayer struct {
	PlayerID  uuid.UUID
	Name      string
	IsAI      bool
	Seat      int
	CardsLeft int
}
