// internal/database/actions.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/unoroom/internal/models"
)

var actionColumns = []string{"room_id", "action_index", "actor_id", "action_type", "action_payload", "recorded_at"}

// InsertRoomActions copies a batch of queued actions into room_actions in one transaction.
func InsertRoomActions(ctx context.Context, actions []models.RoomAction) error {
	if len(actions) == 0 {
		return nil
	}
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"room_actions"},
			actionColumns,
			pgx.CopyFromSlice(len(actions), func(i int) ([]any, error) {
				return actionRow(actions[i])
			}),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert %d room actions: %w", len(actions), err)
	}
	return nil
}

// actionRow lays out one action in actionColumns order.
func actionRow(a models.RoomAction) ([]any, error) {
	var payload []byte
	if a.ActionPayload != nil {
		var err error
		if payload, err = json.Marshal(a.ActionPayload); err != nil {
			return nil, fmt.Errorf("marshal payload of action %d in room %s: %w", a.ActionIndex, a.RoomID, err)
		}
	}
	return []any{
		a.RoomID,
		a.ActionIndex,
		a.ActorID,
		a.ActionType,
		payload,
		time.UnixMilli(a.Timestamp).UTC(),
	}, nil
}
