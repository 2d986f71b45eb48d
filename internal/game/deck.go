// internal/game/deck.go
package game

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/jason-s-yu/unoroom/internal/models"
)

const (
	// DeckSize is the number of cards produced by NewDeck.
	DeckSize = 108

	wildCopies = 4
)

// Piles holds the two shared card stacks of a room. The top of each pile is the end of its slice.
type Piles struct {
	Draw    []*models.Card
	Discard []*models.Card
}

// NewDeck builds the canonical 108-card deck and shuffles it:
// per color one "0" and two of every other colored face, plus 4 wilds and 4 wild draw-fours.
func NewDeck(r *rand.Rand) []*models.Card {
	deck := make([]*models.Card, 0, DeckSize)
	for _, color := range models.PlayableColors {
		for _, value := range models.ColoredValues {
			deck = append(deck, newCard(color, value))
			if value != models.Zero {
				deck = append(deck, newCard(color, value))
			}
		}
	}
	for i := 0; i < wildCopies; i++ {
		deck = append(deck,
			newCard(models.Wild, models.WildCard),
			newCard(models.Wild, models.WildDrawFour),
		)
	}
	Shuffle(deck, r)
	return deck
}

func newCard(color models.Color, value models.Value) *models.Card {
	return &models.Card{ID: uuid.New(), Color: color, Value: value}
}

// Shuffle permutes cards in place (rand.Shuffle is a Fisher-Yates shuffle).
func Shuffle(cards []*models.Card, r *rand.Rand) {
	r.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// Top returns the most recently discarded card, or nil before the game starts.
func (p *Piles) Top() *models.Card {
	if len(p.Discard) == 0 {
		return nil
	}
	return p.Discard[len(p.Discard)-1]
}

// DrawCards removes up to count cards from the top of the draw pile.
// When the draw pile runs out and more than one card is discarded, everything but the
// discard top is shuffled back into the draw pile. If that still leaves nothing to draw,
// fewer than count cards are returned.
func (p *Piles) DrawCards(count int, r *rand.Rand) []*models.Card {
	drawn := make([]*models.Card, 0, count)
	for i := 0; i < count; i++ {
		if len(p.Draw) == 0 {
			if len(p.Discard) <= 1 {
				break
			}
			p.reshuffle(r)
		}
		n := len(p.Draw)
		drawn = append(drawn, p.Draw[n-1])
		p.Draw = p.Draw[:n-1]
	}
	return drawn
}

// reshuffle moves all but the top discard into the draw pile. Assumes len(Discard) > 1.
func (p *Piles) reshuffle(r *rand.Rand) {
	n := len(p.Discard)
	top := p.Discard[n-1]
	rest := make([]*models.Card, n-1)
	copy(rest, p.Discard[:n-1])
	Shuffle(rest, r)
	p.Draw = append(p.Draw, rest...)
	p.Discard = []*models.Card{top}
}

// PutBottom places cards under the draw pile, preserving their order.
func (p *Piles) PutBottom(cards ...*models.Card) {
	if len(cards) == 0 {
		return
	}
	draw := make([]*models.Card, 0, len(cards)+len(p.Draw))
	draw = append(draw, cards...)
	p.Draw = append(draw, p.Draw...)
}

// Count returns the number of cards across both piles.
func (p *Piles) Count() int {
	return len(p.Draw) + len(p.Discard)
}
