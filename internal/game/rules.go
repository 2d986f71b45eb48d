// internal/game/rules.go
package game

import "github.com/jason-s-yu/unoroom/internal/models"

// Effect is what a legal play does to the turn order beyond moving on to the next seat.
type Effect struct {
	Skip       bool // the next player loses their turn
	Reverse    bool // direction flips
	ForcedDraw int  // cards the next player draws before being skipped
}

// Steps is how many seats the turn pointer moves after the play.
func (e Effect) Steps() int {
	if e.Skip {
		return 2
	}
	return 1
}

// IsLegalPlay reports whether card may be played on top.
// A wild is always legal, as is any card of the active color. Any card whose value matches
// the top card is legal too, whatever the colors: a blue 5 goes on a green 5 even while a
// wild has set the active color to red.
func IsLegalPlay(card, top *models.Card, active models.Color) bool {
	if card.IsWild() {
		return true
	}
	if card.Color == active {
		return true
	}
	return top != nil && card.Value == top.Value
}

// ResolvePlay returns the effect of playing card in a room of playerCount seats.
// With two players a reverse hands the turn straight back to the player who played it,
// so it is resolved as a skip.
func ResolvePlay(card *models.Card, playerCount int) Effect {
	switch card.Value {
	case models.Skip:
		return Effect{Skip: true}
	case models.Reverse:
		return Effect{Reverse: true, Skip: playerCount == 2}
	case models.DrawTwo:
		return Effect{Skip: true, ForcedDraw: 2}
	case models.WildDrawFour:
		return Effect{Skip: true, ForcedDraw: 4}
	}
	return Effect{}
}

// NextIndex computes (current + steps*direction + count) mod count, kept non-negative.
func NextIndex(current, steps, direction, count int) int {
	if count <= 0 {
		return 0
	}
	return ((current+steps*direction)%count + count) % count
}

// isOpeningCard reports whether c may start the discard pile.
func isOpeningCard(c *models.Card) bool {
	return !c.IsWild() && !c.Value.IsAction()
}
