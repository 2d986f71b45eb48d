// internal/game/agent.go
package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/unoroom/internal/models"
	"github.com/sirupsen/logrus"
)

// Scheduler runs f once after d. Rooms use it for automated turns.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

// DefaultScheduler fires tasks on time.AfterFunc timers.
var DefaultScheduler Scheduler = timerScheduler{}

// scheduleAgentTurn queues a move for the current player if it is an agent.
// The task captures who should be moving and on which turn; anything that changes either
// before it fires turns it into a no-op. Assumes the lock is held.
func (r *Room) scheduleAgentTurn() {
	if r.closed || r.Status != StatusPlaying || len(r.Players) == 0 {
		return
	}
	current := r.Players[r.CurrentPlayerIndex]
	if !current.IsAI {
		return
	}
	playerID, turnID := current.ID, r.TurnID
	r.Scheduler.AfterFunc(r.AIDelay, func() {
		r.runAgentTurn(playerID, turnID)
	})
}

// runAgentTurn re-checks that playerID still holds turnID, then plays or draws for it.
func (r *Room) runAgentTurn(playerID uuid.UUID, turnID int) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if err := r.checkTurn(playerID); err != nil || r.TurnID != turnID {
		r.log.WithFields(logrus.Fields{
			"player": playerID,
			"turn":   turnID,
		}).Debug("dropping stale agent turn")
		return
	}

	player := r.Players[r.CurrentPlayerIndex]
	idx, color, ok := chooseAgentMove(player.Hand, r.Piles.Top(), r.ActiveColor)
	if !ok {
		r.drawCard(player)
		return
	}
	r.playCard(player, idx, color)
}

// chooseAgentMove picks the first legal card in hand order. For a wild it also picks a color.
func chooseAgentMove(hand []*models.Card, top *models.Card, active models.Color) (int, models.Color, bool) {
	for i, c := range hand {
		if !IsLegalPlay(c, top, active) {
			continue
		}
		if c.IsWild() {
			return i, chooseAgentColor(hand), true
		}
		return i, c.Color, true
	}
	return -1, "", false
}

// chooseAgentColor returns the color the hand holds most non-wild cards of.
// Ties go to the later color in models.PlayableColors; a hand of only wilds gets red.
func chooseAgentColor(hand []*models.Card) models.Color {
	counts := make(map[models.Color]int, len(models.PlayableColors))
	for _, c := range hand {
		if !c.IsWild() {
			counts[c.Color]++
		}
	}
	best, bestCount := models.Red, 0
	for _, color := range models.PlayableColors {
		if n := counts[color]; n > 0 && n >= bestCount {
			best, bestCount = color, n
		}
	}
	return best
}
