package domain

import "time"

// DefaultText is the document body a brand-new room starts with.
const DefaultText = "// Start coding together!"

// RoomRecord is the durable counterpart of a room: the last accepted
// document body and language, keyed by room id. Membership is never
// persisted; it is rebuilt from live connections.
type RoomRecord struct {
	RoomID    string    `json:"room_id"`
	Text      string    `json:"text"`
	Language  string    `json:"language"`
	UpdatedAt time.Time `json:"updated_at"`
}
