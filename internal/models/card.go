package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Color is the printed color of a card, or the color currently in effect on the table.
type Color string

const (
	Red    Color = "red"
	Blue   Color = "blue"
	Green  Color = "green"
	Yellow Color = "yellow"
	Wild   Color = "wild"
)

// PlayableColors lists the four suit colors in their fixed priority order.
// Anything that has to break a tie between colors walks this slice.
var PlayableColors = []Color{Red, Blue, Green, Yellow}

// IsPlayable reports whether c is one of the four suit colors (i.e. not wild or empty).
func (c Color) IsPlayable() bool {
	switch c {
	case Red, Blue, Green, Yellow:
		return true
	}
	return false
}

// ParseColor normalizes a client-supplied color name.
func ParseColor(s string) (Color, error) {
	c := Color(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case Red, Blue, Green, Yellow, Wild:
		return c, nil
	}
	return "", fmt.Errorf("unknown color %q", s)
}

// Value is the face of a card: a digit, an action, or a wild action.
type Value string

const (
	Zero         Value = "0"
	One          Value = "1"
	Two          Value = "2"
	Three        Value = "3"
	Four         Value = "4"
	Five         Value = "5"
	Six          Value = "6"
	Seven        Value = "7"
	Eight        Value = "8"
	Nine         Value = "9"
	Skip         Value = "skip"
	Reverse      Value = "reverse"
	DrawTwo      Value = "draw2"
	WildCard     Value = "wild"
	WildDrawFour Value = "wild_draw4"
)

// ColoredValues are the faces printed once per color for "0" and twice per color for the rest.
var ColoredValues = []Value{Zero, One, Two, Three, Four, Five, Six, Seven, Eight, Nine, Skip, Reverse, DrawTwo}

// IsAction reports whether v is skip, reverse or draw2.
func (v Value) IsAction() bool {
	return v == Skip || v == Reverse || v == DrawTwo
}

// Card is immutable once created; the room only ever moves pointers between piles and hands.
type Card struct {
	ID    uuid.UUID `json:"id"`
	Color Color     `json:"color"`
	Value Value     `json:"value"`
}

// IsWild reports whether the card lets its player choose the active color.
func (c *Card) IsWild() bool {
	return c.Color == Wild
}

// String renders the card the way it appears in the room's message log, e.g. "red 5".
func (c *Card) String() string {
	return fmt.Sprintf("%s %s", c.Color, c.Value)
}
