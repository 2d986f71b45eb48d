// internal/game/room.go
package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/unoroom/internal/models"
	"github.com/sirupsen/logrus"
)

// RoomStatus is the lifecycle stage of a room. Rooms move waiting -> playing -> finished, once each.
type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusPlaying  RoomStatus = "playing"
	StatusFinished RoomStatus = "finished"
)

const (
	MaxPlayers        = 10
	MinPlayersToStart = 2
	InitialHandSize   = 7
	MaxMessages       = 50

	// DefaultAIDelay is how long an automated player "thinks" before acting.
	DefaultAIDelay = 1500 * time.Millisecond

	agentAvatar = "🤖"
)

// BroadcastFunc delivers a full room snapshot to every connection in the room.
// It is called with the room lock held and must not block or call back into the room.
// Delivery is best effort: a client whose queue is full misses updates until a later
// snapshot reaches it, so transports should favour the newest snapshot over older ones.
type BroadcastFunc func(roomID string, state RoomState)

// OnGameEndFunc is invoked once when a room finishes. Called with the room lock held.
type OnGameEndFunc func(result models.RoomResult)

// ActionRecorder archives room actions. Calls are made from their own goroutine.
type ActionRecorder interface {
	RecordAction(ctx context.Context, action models.RoomAction) error
}

// RoomOptions are the collaborators and tunables every new room is built with.
type RoomOptions struct {
	AIDelay   time.Duration
	Scheduler Scheduler
	Broadcast BroadcastFunc
	OnGameEnd OnGameEndFunc
	Recorder  ActionRecorder
	Logger    logrus.FieldLogger

	// Seed fixes the room's random source; zero seeds from the clock.
	Seed int64
}

// Message is one line of the room's bounded activity log.
type Message struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // epoch millis
}

// Room holds the entire state for a single game room in memory.
// Every exported method takes Mu; lower-case helpers assume it is already held.
type Room struct {
	ID string

	Players            []*models.Player
	CurrentPlayerIndex int
	Direction          int
	Piles              Piles
	ActiveColor        models.Color
	Status             RoomStatus
	WinnerID           uuid.UUID
	Messages           []Message

	// TurnID increments every time the turn pointer lands on a new turn.
	TurnID int

	CreatedAt time.Time
	StartedAt time.Time

	BroadcastFn BroadcastFunc
	OnGameEnd   OnGameEndFunc
	// OnEmpty is called once the last human has left, typically to drop the room from its store.
	OnEmpty   func(roomID string)
	Recorder  ActionRecorder
	Scheduler Scheduler
	AIDelay   time.Duration

	Mu sync.Mutex

	rng         *rand.Rand
	log         logrus.FieldLogger
	closed      bool
	actionIndex int
}

// NewRoom builds a waiting room with host as its only player. It does not broadcast.
func NewRoom(id string, host *models.Player, opts RoomOptions) *Room {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	scheduler := opts.Scheduler
	if scheduler == nil {
		scheduler = DefaultScheduler
	}
	delay := opts.AIDelay
	if delay <= 0 {
		delay = DefaultAIDelay
	}

	r := &Room{
		ID:          id,
		Players:     []*models.Player{},
		Direction:   1,
		ActiveColor: models.Red,
		Status:      StatusWaiting,
		Messages:    []Message{},
		CreatedAt:   time.Now(),
		BroadcastFn: opts.Broadcast,
		OnGameEnd:   opts.OnGameEnd,
		Recorder:    opts.Recorder,
		Scheduler:   scheduler,
		AIDelay:     delay,
		rng:         rand.New(rand.NewSource(seed)),
		log:         logger.WithField("room", id),
	}
	if host != nil {
		r.Players = append(r.Players, host)
		r.addMessage(fmt.Sprintf("%s created the room.", host.Name))
		r.recordAction(host.ID, "room_create", map[string]interface{}{"name": host.Name})
	}
	return r
}

// Announce broadcasts the current state without changing it.
func (r *Room) Announce() {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if r.closed {
		return
	}
	r.broadcast()
}

// Join appends a human player while the room is still waiting.
func (r *Room) Join(p *models.Player) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.closed {
		return ErrRoomNotFound
	}
	if r.Status != StatusWaiting {
		return ErrGameAlreadyStarted
	}
	if r.playerIndex(p.ID) != -1 {
		return ErrAlreadyInRoom
	}
	if len(r.Players) >= MaxPlayers {
		return ErrRoomFull
	}
	r.Players = append(r.Players, p)
	r.log.WithField("player", p.ID).Infof("%s joined", p.Name)
	r.addMessage(fmt.Sprintf("%s joined the room.", p.Name))
	r.recordAction(p.ID, "player_join", map[string]interface{}{"name": p.Name})
	r.broadcast()
	return nil
}

// AddAutomatedPlayer seats an agent while the room is waiting and has space.
func (r *Room) AddAutomatedPlayer() (*models.Player, error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.closed {
		return nil, ErrRoomNotFound
	}
	if r.Status != StatusWaiting {
		return nil, ErrNotWaiting
	}
	if len(r.Players) >= MaxPlayers {
		return nil, ErrRoomFull
	}
	bot := &models.Player{
		ID:     uuid.New(),
		Name:   fmt.Sprintf("Bot %d", len(r.Players)),
		Avatar: agentAvatar,
		Hand:   []*models.Card{},
		IsAI:   true,
	}
	r.Players = append(r.Players, bot)
	r.addMessage(fmt.Sprintf("%s joined the room.", bot.Name))
	r.recordAction(bot.ID, "agent_join", map[string]interface{}{"name": bot.Name})
	r.broadcast()
	return bot, nil
}

// Start deals the opening hands, flips the first discard and picks a random first player.
func (r *Room) Start() error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.closed {
		return ErrRoomNotFound
	}
	if r.Status != StatusWaiting {
		return ErrNotWaiting
	}
	if len(r.Players) < MinPlayersToStart {
		return ErrNotEnoughPlayers
	}

	r.Piles = Piles{Draw: NewDeck(r.rng), Discard: []*models.Card{}}
	for _, p := range r.Players {
		p.Hand = r.Piles.DrawCards(InitialHandSize, r.rng)
		p.HasCalledUno = false
	}

	opening, ok := r.flipOpeningCard()
	if !ok {
		// unreachable with the stock deck: at most 70 cards are dealt and 32 are wild or action
		for _, p := range r.Players {
			r.Piles.PutBottom(p.Hand...)
			p.Hand = []*models.Card{}
		}
		r.log.Error("no opening card found in draw pile")
		return ErrNoOpeningCard
	}
	r.Piles.Discard = append(r.Piles.Discard, opening)
	r.ActiveColor = opening.Color
	r.Direction = 1
	r.Status = StatusPlaying
	r.StartedAt = time.Now()
	r.CurrentPlayerIndex = r.rng.Intn(len(r.Players))
	r.TurnID++

	first := r.Players[r.CurrentPlayerIndex]
	r.log.WithFields(logrus.Fields{"players": len(r.Players), "first": first.ID}).Info("game started")
	r.addMessage(fmt.Sprintf("Game started! %s goes first.", first.Name))
	r.recordAction(uuid.Nil, "game_start", map[string]interface{}{
		"opening": opening.String(),
		"first":   first.ID.String(),
	})
	r.broadcast()
	r.scheduleAgentTurn()
	return nil
}

// flipOpeningCard takes cards off the draw pile until one is neither wild nor an action card.
// Rejected cards go to the bottom of the draw pile.
func (r *Room) flipOpeningCard() (*models.Card, bool) {
	for tries := len(r.Piles.Draw); tries > 0; tries-- {
		n := len(r.Piles.Draw)
		c := r.Piles.Draw[n-1]
		r.Piles.Draw = r.Piles.Draw[:n-1]
		if isOpeningCard(c) {
			return c, true
		}
		r.Piles.PutBottom(c)
	}
	return nil, false
}

// PlayCard plays cardID from playerID's hand. chosen only matters for wild cards and
// falls back to red when it is not one of the four suit colors.
func (r *Room) PlayCard(playerID, cardID uuid.UUID, chosen models.Color) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if err := r.checkTurn(playerID); err != nil {
		return err
	}
	player := r.Players[r.CurrentPlayerIndex]
	idx := player.CardIndex(cardID)
	if idx == -1 {
		return ErrCardNotInHand
	}
	if !IsLegalPlay(player.Hand[idx], r.Piles.Top(), r.ActiveColor) {
		return ErrIllegalPlay
	}
	r.playCard(player, idx, chosen)
	return nil
}

// playCard applies a validated play. Assumes the lock is held.
func (r *Room) playCard(player *models.Player, idx int, chosen models.Color) {
	card := player.Hand[idx]
	player.Hand = append(player.Hand[:idx], player.Hand[idx+1:]...)
	r.Piles.Discard = append(r.Piles.Discard, card)

	if card.IsWild() {
		if !chosen.IsPlayable() {
			chosen = models.Red
		}
		r.ActiveColor = chosen
	} else {
		r.ActiveColor = card.Color
	}

	r.addMessage(fmt.Sprintf("%s played %s", player.Name, card))
	r.recordAction(player.ID, "play_card", map[string]interface{}{
		"cardId":      card.ID.String(),
		"card":        card.String(),
		"activeColor": string(r.ActiveColor),
	})

	// an empty hand ends the game before the card's effect is applied
	if len(player.Hand) == 0 {
		r.finish(player)
		return
	}

	effect := ResolvePlay(card, len(r.Players))
	if effect.Reverse {
		r.Direction = -r.Direction
		r.addMessage("Direction reversed!")
	}
	if effect.ForcedDraw > 0 {
		victim := r.Players[NextIndex(r.CurrentPlayerIndex, 1, r.Direction, len(r.Players))]
		drawn := r.Piles.DrawCards(effect.ForcedDraw, r.rng)
		victim.Hand = append(victim.Hand, drawn...)
		r.addMessage(fmt.Sprintf("%s draws %d cards!", victim.Name, len(drawn)))
		r.recordAction(victim.ID, "forced_draw", map[string]interface{}{"count": len(drawn)})
	} else if effect.Skip && !effect.Reverse {
		r.addMessage("Next player is skipped!")
	}

	player.HasCalledUno = false
	if player.IsAI && len(player.Hand) == 1 {
		player.HasCalledUno = true
		r.addMessage(fmt.Sprintf("%s called UNO!", player.Name))
	}

	r.advanceTurn(effect.Steps())
	r.broadcast()
	r.scheduleAgentTurn()
}

// DrawCard gives the current player one card and passes the turn to the next seat.
func (r *Room) DrawCard(playerID uuid.UUID) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if err := r.checkTurn(playerID); err != nil {
		return err
	}
	r.drawCard(r.Players[r.CurrentPlayerIndex])
	return nil
}

// drawCard assumes the lock is held and player is current.
func (r *Room) drawCard(player *models.Player) {
	drawn := r.Piles.DrawCards(1, r.rng)
	player.Hand = append(player.Hand, drawn...)
	if len(drawn) == 0 {
		r.log.WithField("player", player.ID).Warn("draw requested but no cards are left")
		r.addMessage(fmt.Sprintf("%s has no card to draw.", player.Name))
	} else {
		r.addMessage(fmt.Sprintf("%s drew a card.", player.Name))
	}
	r.recordAction(player.ID, "draw_card", map[string]interface{}{"count": len(drawn)})

	r.advanceTurn(1)
	r.broadcast()
	r.scheduleAgentTurn()
}

// DeclareLowHand records a player's UNO call. Only honored with two or fewer cards in hand.
func (r *Room) DeclareLowHand(playerID uuid.UUID) error {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.closed {
		return ErrRoomNotFound
	}
	if r.Status != StatusPlaying {
		return ErrNotPlaying
	}
	idx := r.playerIndex(playerID)
	if idx == -1 {
		return ErrPlayerNotFound
	}
	player := r.Players[idx]
	if len(player.Hand) > 2 {
		return ErrHandTooLarge
	}
	player.HasCalledUno = true
	r.addMessage(fmt.Sprintf("%s called UNO!", player.Name))
	r.recordAction(player.ID, "call_uno", map[string]interface{}{"handSize": len(player.Hand)})
	r.broadcast()
	return nil
}

// RemovePlayer takes a player out of the room. A player leaving mid-game returns their hand
// to the bottom of the draw pile. When no humans remain the room closes and OnEmpty fires.
// Otherwise a turn index left past the end of the list wraps to 0.
func (r *Room) RemovePlayer(playerID uuid.UUID) (closed bool, err error) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if r.closed {
		return false, ErrRoomNotFound
	}
	idx := r.playerIndex(playerID)
	if idx == -1 {
		return false, ErrPlayerNotFound
	}

	var prevCurrent uuid.UUID
	if r.Status == StatusPlaying {
		prevCurrent = r.Players[r.CurrentPlayerIndex].ID
	}

	p := r.Players[idx]
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)
	if r.Status == StatusPlaying && len(p.Hand) > 0 {
		r.Piles.PutBottom(p.Hand...)
	}
	p.Hand = []*models.Card{}

	r.log.WithField("player", p.ID).Infof("%s left", p.Name)
	r.addMessage(fmt.Sprintf("%s left the room.", p.Name))
	r.recordAction(p.ID, "player_leave", nil)

	if r.humanCount() == 0 {
		r.closed = true
		r.log.Info("last human left, closing room")
		if r.OnEmpty != nil {
			r.OnEmpty(r.ID)
		}
		return true, nil
	}

	if r.CurrentPlayerIndex >= len(r.Players) {
		r.CurrentPlayerIndex = 0
	}
	r.broadcast()

	if r.Status == StatusPlaying && r.Players[r.CurrentPlayerIndex].ID != prevCurrent {
		r.TurnID++
		r.scheduleAgentTurn()
	}
	return false, nil
}

// Closed reports whether the room has been torn down.
func (r *Room) Closed() bool {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.closed
}

// HasPlayer reports whether playerID is seated in the room.
func (r *Room) HasPlayer(playerID uuid.UUID) bool {
	r.Mu.Lock()
	defer r.Mu.Unlock()
	return r.playerIndex(playerID) != -1
}

// checkTurn guards every turn action. Assumes the lock is held.
func (r *Room) checkTurn(playerID uuid.UUID) error {
	if r.closed {
		return ErrRoomNotFound
	}
	if r.Status != StatusPlaying {
		return ErrNotPlaying
	}
	if len(r.Players) == 0 || r.Players[r.CurrentPlayerIndex].ID != playerID {
		return ErrNotYourTurn
	}
	return nil
}

func (r *Room) advanceTurn(steps int) {
	r.CurrentPlayerIndex = NextIndex(r.CurrentPlayerIndex, steps, r.Direction, len(r.Players))
	r.TurnID++
}

func (r *Room) finish(winner *models.Player) {
	r.Status = StatusFinished
	r.WinnerID = winner.ID
	r.log.WithField("winner", winner.ID).Infof("%s won", winner.Name)
	r.addMessage(fmt.Sprintf("%s won the game!", winner.Name))
	r.recordAction(winner.ID, "game_end", map[string]interface{}{"winner": winner.Name})
	r.broadcast()
	if r.OnGameEnd != nil {
		r.OnGameEnd(r.result())
	}
}

func (r *Room) result() models.RoomResult {
	res := models.RoomResult{
		RoomID:     r.ID,
		WinnerID:   r.WinnerID,
		StartedAt:  r.StartedAt,
		FinishedAt: time.Now(),
		Players:    make([]models.ResultPlayer, 0, len(r.Players)),
	}
	for i, p := range r.Players {
		if p.ID == r.WinnerID {
			res.WinnerName = p.Name
		}
		res.Players = append(res.Players, models.ResultPlayer{
			PlayerID:  p.ID,
			Name:      p.Name,
			IsAI:      p.IsAI,
			Seat:      i,
			CardsLeft: len(p.Hand),
		})
	}
	return res
}

func (r *Room) playerIndex(playerID uuid.UUID) int {
	for i, p := range r.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func (r *Room) humanCount() int {
	n := 0
	for _, p := range r.Players {
		if !p.IsAI {
			n++
		}
	}
	return n
}

// addMessage appends to the log, keeping only the newest MaxMessages entries.
func (r *Room) addMessage(text string) {
	r.Messages = append(r.Messages, Message{
		ID:        uuid.NewString(),
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	})
	if over := len(r.Messages) - MaxMessages; over > 0 {
		r.Messages = append([]Message(nil), r.Messages[over:]...)
	}
}

func (r *Room) broadcast() {
	if r.BroadcastFn == nil {
		return
	}
	r.BroadcastFn(r.ID, r.snapshot())
}

// recordAction hands an action to the recorder without blocking the room.
func (r *Room) recordAction(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	r.actionIndex++
	if r.Recorder == nil {
		return
	}
	rec := models.RoomAction{
		RoomID:        r.ID,
		ActionIndex:   r.actionIndex,
		ActorID:       actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	recorder, logger := r.Recorder, r.log
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := recorder.RecordAction(ctx, rec); err != nil {
			logger.WithError(err).Warnf("failed to record action %s", rec.ActionType)
		}
	}()
}
