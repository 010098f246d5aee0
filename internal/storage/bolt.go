package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/Tharunkunamalla/realtime-editor/internal/domain"
)

var roomsBucket = []byte("rooms")

// BoltStore keeps room records in an embedded bbolt file; the zero-ops
// default backend. Records are JSON, so added fields default safely on
// read.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt.Open: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(roomsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Load(_ context.Context, roomID string) (*domain.RoomRecord, error) {
	var rec *domain.RoomRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(roomsBucket).Get([]byte(roomID))
		if raw == nil {
			return ErrNotFound
		}
		rec = &domain.RoomRecord{}
		return json.Unmarshal(raw, rec)
	})
	if err != nil {
		return nil, err
	}
	rec.RoomID = roomID
	return rec, nil
}

func (s *BoltStore) Create(_ context.Context, rec domain.RoomRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(roomsBucket)
		if b.Get([]byte(rec.RoomID)) != nil {
			return nil
		}
		rec.UpdatedAt = time.Now()
		raw, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put([]byte(rec.RoomID), raw)
	})
}

func (s *BoltStore) SaveText(_ context.Context, roomID, text string) error {
	return s.update(roomID, func(rec *domain.RoomRecord) { rec.Text = text })
}

func (s *BoltStore) SaveLanguage(_ context.Context, roomID, language string) error {
	return s.update(roomID, func(rec *domain.RoomRecord) { rec.Language = language })
}

func (s *BoltStore) update(roomID string, mut func(*domain.RoomRecord)) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(roomsBucket)
		rec := domain.RoomRecord{
			RoomID:   roomID,
			Text:     domain.DefaultText,
			Language: domain.DefaultLanguage,
		}
		if raw := b.Get([]byte(roomID)); raw != nil {
			if err := json.Unmarshal(raw, &rec); err != nil {
				return err
			}
			rec.RoomID = roomID
		}
		mut(&rec)
		rec.UpdatedAt = time.Now()
		raw, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return b.Put([]byte(roomID), raw)
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
