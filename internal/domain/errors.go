package domain

import "errors"

var (
	ErrEmptyRoomID         = errors.New("room id is empty")
	ErrRoomNotFound        = errors.New("room not found")
	ErrNotInRoom           = errors.New("connection not in the room")
	ErrUnsupportedLanguage = errors.New("unsupported language")
)
