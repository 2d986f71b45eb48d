// internal/database/results.go
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/unoroom/internal/models"
)

// RecordRoomResult persists the final standing of a finished game in one transaction.
func RecordRoomResult(ctx context.Context, res models.RoomResult) error {
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var resultID int64
		insertResult := `
			INSERT INTO room_results (room_id, winner_id, winner_name, started_at, finished_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`
		if err := tx.QueryRow(ctx, insertResult,
			res.RoomID, res.WinnerID, res.WinnerName, res.StartedAt, res.FinishedAt,
		).Scan(&resultID); err != nil {
			return err
		}

		insertPlayer := `
			INSERT INTO room_result_players (result_id, player_id, name, is_ai, seat, cards_left)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		batch := &pgx.Batch{}
		for _, p := range res.Players {
			batch.Queue(insertPlayer, resultID, p.PlayerID, p.Name, p.IsAI, p.Seat, p.CardsLeft)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("record result for room %s: %w", res.RoomID, err)
	}
	return nil
}
