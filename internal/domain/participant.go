package domain

import "time"

// Participant is one live connection's identity inside a room. ConnID is
// unique per connection; Username is a free-text label and may repeat.
type Participant struct {
	ConnID   string    `json:"connectionId"`
	Username string    `json:"username"`
	Color    string    `json:"color"`
	JoinedAt time.Time `json:"-"`
}

// Cursor is a 1-based caret position. Ephemeral: overwritten on every
// update, never persisted.
type Cursor struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}
