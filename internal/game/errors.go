package game

import "errors"

// Join failures are reported back to the requesting connection.
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrRoomFull           = errors.New("room is full")
	ErrAlreadyInRoom      = errors.New("player is already in this room")
)

// Everything below is a stale or out-of-turn action and is dropped without a broadcast.
var (
	ErrNotWaiting       = errors.New("room is not accepting players")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrNotPlaying       = errors.New("game is not in progress")
	ErrNotYourTurn      = errors.New("not this player's turn")
	ErrPlayerNotFound   = errors.New("player is not in this room")
	ErrCardNotInHand    = errors.New("card is not in the player's hand")
	ErrIllegalPlay      = errors.New("card cannot be played on the current discard")
	ErrHandTooLarge     = errors.New("hand is too large to declare")
	ErrNoOpeningCard    = errors.New("draw pile has no valid opening card")
	ErrRoomIDExhausted  = errors.New("could not allocate a free room id")
)
