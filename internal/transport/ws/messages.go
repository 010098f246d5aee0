package ws

import (
	"encoding/json"

	"github.com/Tharunkunamalla/realtime-editor/internal/domain"
)

// Message is the envelope for every event on the realtime channel.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// client -> server payloads

type JoinPayload struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type TextChangePayload struct {
	RoomID string         `json:"roomId"`
	Text   string         `json:"text"`
	Cursor *domain.Cursor `json:"cursor,omitempty"`
}

type LanguageChangePayload struct {
	RoomID   string `json:"roomId"`
	Language string `json:"language"`
}

type CursorChangePayload struct {
	RoomID string        `json:"roomId"`
	Cursor domain.Cursor `json:"cursor"`
}

type SyncRequestPayload struct {
	TargetConnID string `json:"targetConnectionId"`
	Text         string `json:"text"`
	Language     string `json:"language"`
}

// decode re-marshals a generic payload into a concrete struct.
func decode(payload any, dst any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, dst)
}
