// Package storage persists the last accepted room state. The store is a
// downstream replica of the in-memory room directory: writes flow one way,
// and each room's record is independent, so rooms never contend.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/Tharunkunamalla/realtime-editor/config"
	"github.com/Tharunkunamalla/realtime-editor/internal/domain"
)

// ErrNotFound is returned when no record exists for a room id.
var ErrNotFound = errors.New("room record not found")

// RoomStore is the durable backend for room records. Implementations:
// Postgres (pgx), Redis, Bolt (embedded). All must be safe for
// concurrent use from multiple rooms.
type RoomStore interface {
	// Load retrieves the record for roomID, or ErrNotFound.
	Load(ctx context.Context, roomID string) (*domain.RoomRecord, error)

	// Create writes rec only if no record exists yet, so a room is
	// durably known from first touch without clobbering prior state.
	Create(ctx context.Context, rec domain.RoomRecord) error

	// SaveText upserts the document body, leaving language untouched.
	SaveText(ctx context.Context, roomID, text string) error

	// SaveLanguage upserts the language, leaving the body untouched.
	SaveLanguage(ctx context.Context, roomID, language string) error

	Close() error
}

// New builds the store selected by cfg.Backend.
func New(ctx context.Context, cfg config.Storage) (RoomStore, error) {
	switch cfg.Backend {
	case "postgres":
		return NewPostgresStore(ctx, cfg.Postgres.DSN)
	case "redis":
		return NewRedisStore(ctx, cfg.Redis)
	case "bolt":
		return NewBoltStore(cfg.Bolt.Path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
