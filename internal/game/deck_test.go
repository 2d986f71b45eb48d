package game

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/unoroom/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeckComposition(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		deck := NewDeck(rand.New(rand.NewSource(seed)))
		require.Len(t, deck, DeckSize)

		numbered := map[models.Color]int{}
		actions := map[models.Color]int{}
		wilds, wildDrawFours := 0, 0
		ids := map[uuid.UUID]bool{}
		for _, c := range deck {
			ids[c.ID] = true
			switch {
			case c.Value == models.WildCard:
				wilds++
				assert.Equal(t, models.Wild, c.Color)
			case c.Value == models.WildDrawFour:
				wildDrawFours++
				assert.Equal(t, models.Wild, c.Color)
			case c.Value.IsAction():
				actions[c.Color]++
			default:
				numbered[c.Color]++
			}
		}
		assert.Len(t, ids, DeckSize, "card ids must be unique")
		assert.Equal(t, 4, wilds)
		assert.Equal(t, 4, wildDrawFours)
		for _, color := range models.PlayableColors {
			assert.Equal(t, 19, numbered[color], "numbered %s cards", color)
			assert.Equal(t, 6, actions[color], "action %s cards", color)
		}
	}
}

func TestNewDeckZeroAppearsOncePerColor(t *testing.T) {
	deck := NewDeck(rand.New(rand.NewSource(7)))
	perFace := map[string]int{}
	for _, c := range deck {
		perFace[c.String()]++
	}
	for _, color := range models.PlayableColors {
		assert.Equal(t, 1, perFace[string(color)+" 0"])
		assert.Equal(t, 2, perFace[string(color)+" 9"])
		assert.Equal(t, 2, perFace[string(color)+" draw2"])
	}
}

func TestNewDeckIsShuffled(t *testing.T) {
	a := NewDeck(rand.New(rand.NewSource(1)))
	b := NewDeck(rand.New(rand.NewSource(2)))
	same := 0
	for i := range a {
		if a[i].String() == b[i].String() {
			same++
		}
	}
	assert.Less(t, same, DeckSize/2, "two seeds should not produce the same order")
}

func TestDrawCardsFromTop(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	c1, c2, c3 := card(models.Red, models.One), card(models.Red, models.Two), card(models.Red, models.Three)
	p := Piles{Draw: []*models.Card{c1, c2, c3}, Discard: []*models.Card{card(models.Blue, models.Five)}}

	drawn := p.DrawCards(2, r)
	assert.Equal(t, []*models.Card{c3, c2}, drawn)
	assert.Equal(t, []*models.Card{c1}, p.Draw)
}

func TestDrawCardsReshufflesDiscard(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	top := card(models.Green, models.Seven)
	discard := []*models.Card{
		card(models.Red, models.One), card(models.Red, models.Two),
		card(models.Red, models.Three), card(models.Red, models.Four), top,
	}
	p := Piles{Draw: []*models.Card{}, Discard: discard}

	drawn := p.DrawCards(3, r)
	require.Len(t, drawn, 3)
	assert.Equal(t, []*models.Card{top}, p.Discard, "discard keeps only its top card")
	assert.Len(t, p.Draw, 1)
	assert.NotContains(t, drawn, top)
	assert.NotContains(t, p.Draw, top)
}

func TestDrawCardsReshufflesMidDraw(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	last := card(models.Yellow, models.Nine)
	top := card(models.Blue, models.Skip)
	p := Piles{
		Draw:    []*models.Card{last},
		Discard: []*models.Card{card(models.Red, models.One), card(models.Red, models.Two), top},
	}

	drawn := p.DrawCards(3, r)
	require.Len(t, drawn, 3)
	assert.Equal(t, last, drawn[0], "existing draw pile is used up first")
	assert.Empty(t, p.Draw)
	assert.Equal(t, []*models.Card{top}, p.Discard)
}

func TestDrawCardsStopsWhenSupplyExhausted(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	top := card(models.Red, models.Five)
	p := Piles{Draw: []*models.Card{card(models.Blue, models.One)}, Discard: []*models.Card{top}}

	drawn := p.DrawCards(4, r)
	assert.Len(t, drawn, 1, "only the one remaining card can be drawn")
	assert.Empty(t, p.Draw)
	assert.Equal(t, []*models.Card{top}, p.Discard)

	assert.Empty(t, p.DrawCards(1, r))
}

func TestPutBottomKeepsTopIntact(t *testing.T) {
	a, b, c := card(models.Red, models.One), card(models.Red, models.Two), card(models.Red, models.Three)
	p := Piles{Draw: []*models.Card{a}}
	p.PutBottom(b, c)
	assert.Equal(t, []*models.Card{b, c, a}, p.Draw)
	assert.Equal(t, a, p.DrawCards(1, rand.New(rand.NewSource(1)))[0])
}
