// Package debounce coalesces bursts of per-key writes into a single
// delayed write holding the latest value. Each key owns one slot of
// {pending value, timer}; Schedule overwrites the value and resets the
// timer, Flush cancels the timer and writes inline.
package debounce

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Kind string

const (
	KindText     Kind = "text"
	KindLanguage Kind = "language"
)

// Key identifies one debounce slot. Text and language changes for the
// same room use separate slots so they never reset each other's timers.
type Key struct {
	RoomID string
	Kind   Kind
}

// WriteFunc performs the durable write for a fired slot.
type WriteFunc func(ctx context.Context, key Key, value string) error

const writeTimeout = 10 * time.Second

type slot struct {
	pending    string
	hasPending bool
	seq        uint64
	timer      *time.Timer

	// writeMu serializes durable writes for this key, so a slow earlier
	// write can never clobber a newer on-disk value.
	writeMu sync.Mutex
}

// Scheduler debounces writes per key with last-value-wins coalescing.
type Scheduler struct {
	write  WriteFunc
	delays map[Kind]time.Duration

	mu    sync.Mutex
	slots map[Key]*slot
}

func NewScheduler(write WriteFunc, textDelay, languageDelay time.Duration) *Scheduler {
	return &Scheduler{
		write: write,
		delays: map[Kind]time.Duration{
			KindText:     textDelay,
			KindLanguage: languageDelay,
		},
		slots: make(map[Key]*slot),
	}
}

// Schedule records value as the latest pending write for key and restarts
// the key's timer from now (pure debounce, not throttle).
func (s *Scheduler) Schedule(key Key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[key]
	if !ok {
		sl = &slot{}
		s.slots[key] = sl
	}
	sl.pending = value
	sl.hasPending = true
	sl.seq++
	seq := sl.seq

	if sl.timer != nil {
		sl.timer.Stop()
	}
	sl.timer = time.AfterFunc(s.delays[key.Kind], func() {
		_ = s.commit(context.Background(), key, sl, seq, false)
	})
}

// Flush synchronously writes any pending value for both kinds of roomID,
// ignoring the debounce delay. Called when the last participant leaves.
func (s *Scheduler) Flush(ctx context.Context, roomID string) {
	for _, kind := range []Kind{KindText, KindLanguage} {
		s.flushKey(ctx, Key{RoomID: roomID, Kind: kind})
	}
}

// FlushAll drains every pending slot; used on process shutdown.
func (s *Scheduler) FlushAll(ctx context.Context) {
	s.mu.Lock()
	keys := make([]Key, 0, len(s.slots))
	for k := range s.slots {
		keys = append(keys, k)
	}
	s.mu.Unlock()

	for _, k := range keys {
		s.flushKey(ctx, k)
	}
}

func (s *Scheduler) flushKey(ctx context.Context, key Key) {
	s.mu.Lock()
	sl, ok := s.slots[key]
	if !ok || !sl.hasPending {
		s.mu.Unlock()
		return
	}
	if sl.timer != nil {
		sl.timer.Stop()
	}
	seq := sl.seq
	s.mu.Unlock()

	_ = s.commit(ctx, key, sl, seq, true)

	// drop the slot once drained so evicted rooms leave nothing behind
	s.mu.Lock()
	if sl, ok := s.slots[key]; ok && !sl.hasPending {
		delete(s.slots, key)
	}
	s.mu.Unlock()
}

// commit performs one durable write for the slot. With latest=false (timer
// path) a seq mismatch means the value was superseded and the newer slot
// timer owns the write. With latest=true (flush path) the freshest pending
// value is taken regardless. On failure the pending marker is retained so
// a later mutation or flush retries it; it is never silently dropped.
func (s *Scheduler) commit(ctx context.Context, key Key, sl *slot, seq uint64, latest bool) error {
	sl.writeMu.Lock()
	defer sl.writeMu.Unlock()

	s.mu.Lock()
	if !sl.hasPending || (!latest && sl.seq != seq) {
		s.mu.Unlock()
		return nil
	}
	value := sl.pending
	seq = sl.seq
	s.mu.Unlock()

	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	err := s.write(wctx, key, value)

	s.mu.Lock()
	if err != nil {
		slog.Warn("debounced write failed, pending value retained",
			"room", key.RoomID, "kind", key.Kind, "err", err)
	} else if sl.seq == seq {
		sl.pending = ""
		sl.hasPending = false
	}
	s.mu.Unlock()
	return err
}
