package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tharunkunamalla/realtime-editor/internal/domain"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	// the database may still be coming up alongside us
	ping := func() error { return pool.Ping(ctx) }
	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)
	if err := backoff.Retry(ping, backoff.WithContext(bo, ctx)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS rooms (
			id         TEXT PRIMARY KEY,
			content    TEXT NOT NULL,
			language   TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, roomID string) (*domain.RoomRecord, error) {
	var rec domain.RoomRecord
	rec.RoomID = roomID
	err := s.pool.QueryRow(ctx,
		`SELECT content, language, updated_at FROM rooms WHERE id=$1`, roomID).
		Scan(&rec.Text, &rec.Language, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (s *PostgresStore) Create(ctx context.Context, rec domain.RoomRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO rooms (id, content, language)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`,
		rec.RoomID, rec.Text, rec.Language)
	return err
}

func (s *PostgresStore) SaveText(ctx context.Context, roomID, text string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO rooms (id, content, language)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET content=EXCLUDED.content, updated_at=now()`,
		roomID, text, domain.DefaultLanguage)
	return err
}

func (s *PostgresStore) SaveLanguage(ctx context.Context, roomID, language string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO rooms (id, content, language)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET language=EXCLUDED.language, updated_at=now()`,
		roomID, domain.DefaultText, language)
	return err
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
