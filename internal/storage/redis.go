package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/redis/go-redis/v9"

	"github.com/Tharunkunamalla/realtime-editor/config"
	"github.com/Tharunkunamalla/realtime-editor/internal/domain"
)

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(ctx context.Context, cfg config.Redis) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ping := func() error { return rdb.Ping(ctx).Err() }
	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)
	if err := backoff.Retry(ping, backoff.WithContext(bo, ctx)); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{rdb: rdb}, nil
}

func roomKey(roomID string) string { return "room:" + roomID }

func (s *RedisStore) Load(ctx context.Context, roomID string) (*domain.RoomRecord, error) {
	m, err := s.rdb.HGetAll(ctx, roomKey(roomID)).Result()
	if err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, ErrNotFound
	}

	rec := &domain.RoomRecord{
		RoomID:   roomID,
		Text:     m["text"],
		Language: m["language"],
	}
	// unknown fields in the hash are ignored; absent ones default to zero
	if ts, ok := m["updated_at"]; ok {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			rec.UpdatedAt = t
		}
	}
	return rec, nil
}

func (s *RedisStore) Create(ctx context.Context, rec domain.RoomRecord) error {
	key := roomKey(rec.RoomID)
	pipe := s.rdb.TxPipeline()
	pipe.HSetNX(ctx, key, "text", rec.Text)
	pipe.HSetNX(ctx, key, "language", rec.Language)
	pipe.HSetNX(ctx, key, "updated_at", time.Now().Format(time.RFC3339Nano))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) SaveText(ctx context.Context, roomID, text string) error {
	return s.save(ctx, roomID, "text", text)
}

func (s *RedisStore) SaveLanguage(ctx context.Context, roomID, language string) error {
	return s.save(ctx, roomID, "language", language)
}

func (s *RedisStore) save(ctx context.Context, roomID, field, value string) error {
	key := roomKey(roomID)
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, field, value)
	pipe.HSet(ctx, key, "updated_at", time.Now().Format(time.RFC3339Nano))
	// fill the sibling field so a partial record still reads back whole
	if field == "text" {
		pipe.HSetNX(ctx, key, "language", domain.DefaultLanguage)
	} else {
		pipe.HSetNX(ctx, key, "text", domain.DefaultText)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
