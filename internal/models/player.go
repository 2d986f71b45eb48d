package models

import "github.com/google/uuid"

// Player is a seat in a room. For humans the ID is the connection handle.
type Player struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Avatar       string    `json:"avatar"`
	Hand         []*Card   `json:"hand"`
	IsAI         bool      `json:"isAI"`
	HasCalledUno bool      `json:"hasCalledUno"`
}

// NewPlayer builds a human player with an empty hand.
func NewPlayer(id uuid.UUID, name, avatar string) *Player {
	return &Player{
		ID:     id,
		Name:   name,
		Avatar: avatar,
		Hand:   []*Card{},
	}
}

// CardIndex returns the position of cardID in the hand, or -1.
func (p *Player) CardIndex(cardID uuid.UUID) int {
	for i, c := range p.Hand {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}
