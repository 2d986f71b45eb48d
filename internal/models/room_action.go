package models

import "github.com/google/uuid"

// RoomAction holds the minimal info the historian needs to archive one room mutation.
type RoomAction struct {
	RoomID        string                 `json:"room_id"`
	ActionIndex   int                    `json:"action_index"`
	ActorID       uuid.UUID              `json:"actor_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload,omitempty"`
	Timestamp     int64                  `json:"timestamp"` // epoch millis
}
