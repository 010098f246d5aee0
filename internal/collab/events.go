package collab

import "github.com/Tharunkunamalla/realtime-editor/internal/domain"

// Event names of the realtime channel.
const (
	EvtJoin           = "join"
	EvtJoined         = "joined"
	EvtDisconnected   = "disconnected"
	EvtTextChange     = "text-change"
	EvtLanguageChange = "language-change"
	EvtCursorChange   = "cursor-change"
	EvtSyncRequest    = "sync-request"
)

// JoinedPayload announces a new member together with the full member list.
type JoinedPayload struct {
	Members  []domain.Participant `json:"members"`
	Username string               `json:"username"`
	ConnID   string               `json:"connectionId"`
}

type DisconnectedPayload struct {
	ConnID   string `json:"connectionId"`
	Username string `json:"username"`
}

// TextChangePayload carries the full replacement text. ConnID/Username
// identify the originator so receivers can attribute the change; they are
// empty on server-side state replay.
type TextChangePayload struct {
	Text     string         `json:"text"`
	Cursor   *domain.Cursor `json:"cursor,omitempty"`
	ConnID   string         `json:"connectionId,omitempty"`
	Username string         `json:"username,omitempty"`
}

type LanguageChangePayload struct {
	Language string `json:"language"`
	ConnID   string `json:"connectionId,omitempty"`
	Username string `json:"username,omitempty"`
}

type CursorChangePayload struct {
	ConnID   string        `json:"connectionId"`
	Cursor   domain.Cursor `json:"cursor"`
	Username string        `json:"username"`
}

// Sender delivers events to connections; implemented by the ws hub.
// Implementations must preserve per-connection send order.
type Sender interface {
	// ToRoom fans an event out to every member of roomID except
	// exceptConnID (empty string excludes no one).
	ToRoom(roomID, exceptConnID, event string, payload any)

	// ToConn delivers an event to a single connection, if live.
	ToConn(connID, event string, payload any)
}
