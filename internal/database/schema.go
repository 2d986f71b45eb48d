package database

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS room_results (
	id          BIGSERIAL PRIMARY KEY,
	room_id     TEXT NOT NULL,
	winner_id   UUID NOT NULL,
	winner_name TEXT NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS room_result_players (
	result_id  BIGINT NOT NULL REFERENCES room_results(id) ON DELETE CASCADE,
	player_id  UUID NOT NULL,
	name       TEXT NOT NULL,
	is_ai      BOOLEAN NOT NULL,
	seat       INT NOT NULL,
	cards_left INT NOT NULL,
	PRIMARY KEY (result_id, player_id)
);

CREATE TABLE IF NOT EXISTS room_actions (
	room_id        TEXT NOT NULL,
	action_index   INT NOT NULL,
	actor_id       UUID NOT NULL,
	action_type    TEXT NOT NULL,
	action_payload JSONB,
	recorded_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS room_actions_room_idx ON room_actions (room_id, action_index);
`

// EnsureSchema creates the archive tables when they do not exist yet.
func EnsureSchema(ctx context.Context) error {
	if _, err := DB.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
