// Package collab is the session engine: it admits connections into rooms,
// serializes and fans out mutations, and drives debounced persistence.
package collab

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Tharunkunamalla/realtime-editor/internal/debounce"
	"github.com/Tharunkunamalla/realtime-editor/internal/domain"
	"github.com/Tharunkunamalla/realtime-editor/internal/registry"
	"github.com/Tharunkunamalla/realtime-editor/internal/storage"
)

// Service routes mutations between participants of a room. All in-memory
// mutation and fan-out for one room happens under that room's lock, which
// is the single point of serialization the ordering guarantee rests on.
// Persistence runs behind the debouncer and never blocks the broadcast
// path.
type Service struct {
	reg   *registry.Registry
	store storage.RoomStore
	sched *debounce.Scheduler
	send  Sender

	mu      sync.Mutex
	roomMus map[string]*sync.Mutex // lock entries outlive room eviction
}

func NewService(reg *registry.Registry, store storage.RoomStore, send Sender, textDelay, languageDelay time.Duration) *Service {
	s := &Service{
		reg:     reg,
		store:   store,
		send:    send,
		roomMus: make(map[string]*sync.Mutex),
	}
	s.sched = debounce.NewScheduler(s.persist, textDelay, languageDelay)
	return s
}

func (s *Service) persist(ctx context.Context, key debounce.Key, value string) error {
	switch key.Kind {
	case debounce.KindLanguage:
		return s.store.SaveLanguage(ctx, key.RoomID, value)
	default:
		return s.store.SaveText(ctx, key.RoomID, value)
	}
}

func (s *Service) roomLock(roomID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	mu, ok := s.roomMus[roomID]
	if !ok {
		mu = &sync.Mutex{}
		s.roomMus[roomID] = mu
	}
	return mu
}

// Join admits a connection into a room. The first member triggers a
// durable load (or first-touch create); every member then receives the
// join announcement, and the joiner gets the current room state replayed
// before any later mutation can reach it. Registration, load, announce
// and replay form one critical section under the room lock, so a
// concurrent second joiner cannot read its snapshot before the first
// joiner's durable state has been adopted.
func (s *Service) Join(ctx context.Context, connID, roomID, username string) error {
	if roomID == "" {
		return domain.ErrEmptyRoomID
	}

	// a join on an already-placed connection is a move: settle the old
	// room (departure announcement, flush-on-empty) before entering the
	// new one
	if prev, _, ok := s.reg.RoomOf(connID); ok && prev != roomID {
		s.Leave(ctx, connID)
	}

	mu := s.roomLock(roomID)
	mu.Lock()
	defer mu.Unlock()

	res, err := s.reg.Join(connID, roomID, username)
	if err != nil {
		return err
	}

	if res.IsFirst {
		rec, err := s.store.Load(ctx, roomID)
		switch {
		case err == nil:
			s.reg.Adopt(roomID, rec.Text, rec.Language)
		case errors.Is(err, storage.ErrNotFound):
			// make the room durably known from first touch
			create := domain.RoomRecord{
				RoomID:   roomID,
				Text:     domain.DefaultText,
				Language: domain.DefaultLanguage,
			}
			if err := s.store.Create(ctx, create); err != nil {
				slog.Warn("create room record failed", "room", roomID, "err", err)
			}
		default:
			slog.Error("load room record failed", "room", roomID, "err", err)
		}
	}

	s.send.ToRoom(roomID, "", EvtJoined, JoinedPayload{
		Members:  res.Members,
		Username: username,
		ConnID:   connID,
	})

	// replay authoritative in-memory state to the joiner; covers rooms
	// whose live edits have not reached durable storage yet
	text, language, ok := s.reg.Snapshot(roomID)
	if ok {
		s.send.ToConn(connID, EvtTextChange, TextChangePayload{Text: text})
		s.send.ToConn(connID, EvtLanguageChange, LanguageChangePayload{Language: language})
	}
	return nil
}

// Leave deregisters the connection, announces the departure, and flushes
// pending persistence when the room empties. Idempotent.
func (s *Service) Leave(ctx context.Context, connID string) {
	for _, dep := range s.reg.Leave(connID) {
		mu := s.roomLock(dep.RoomID)
		mu.Lock()
		s.send.ToRoom(dep.RoomID, connID, EvtDisconnected, DisconnectedPayload{
			ConnID:   connID,
			Username: dep.Participant.Username,
		})
		mu.Unlock()

		if dep.WasLast {
			// synchronous: nothing accepted before this disconnect may be lost
			s.sched.Flush(ctx, dep.RoomID)
			s.reg.DropIfEmpty(dep.RoomID)
		}
	}
}

// ApplyText accepts a full-text replacement: in-memory update and fan-out
// first, then a debounced persistence schedule. The text is never
// inspected; this is a textual-replacement contract.
func (s *Service) ApplyText(connID, roomID, text string, cursor *domain.Cursor) error {
	p, err := s.member(connID, roomID)
	if err != nil {
		return err
	}

	mu := s.roomLock(roomID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.reg.SetText(roomID, text); err != nil {
		return err
	}
	s.send.ToRoom(roomID, connID, EvtTextChange, TextChangePayload{
		Text:     text,
		Cursor:   cursor,
		ConnID:   connID,
		Username: p.Username,
	})
	s.sched.Schedule(debounce.Key{RoomID: roomID, Kind: debounce.KindText}, text)
	return nil
}

// ApplyLanguage switches the room language; separate debounce bucket from
// text so the two never reset each other's timers.
func (s *Service) ApplyLanguage(connID, roomID, language string) error {
	p, err := s.member(connID, roomID)
	if err != nil {
		return err
	}
	if !domain.LanguageSupported(language) {
		return domain.ErrUnsupportedLanguage
	}

	mu := s.roomLock(roomID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.reg.SetLanguage(roomID, language); err != nil {
		return err
	}
	s.send.ToRoom(roomID, connID, EvtLanguageChange, LanguageChangePayload{
		Language: language,
		ConnID:   connID,
		Username: p.Username,
	})
	s.sched.Schedule(debounce.Key{RoomID: roomID, Kind: debounce.KindLanguage}, language)
	return nil
}

// ApplyCursor fans a caret move out to peers. Never persisted, never
// debounced; recent wins.
func (s *Service) ApplyCursor(connID, roomID string, cursor domain.Cursor) error {
	p, err := s.member(connID, roomID)
	if err != nil {
		return err
	}

	mu := s.roomLock(roomID)
	mu.Lock()
	defer mu.Unlock()

	s.send.ToRoom(roomID, connID, EvtCursorChange, CursorChangePayload{
		ConnID:   connID,
		Cursor:   cursor,
		Username: p.Username,
	})
	return nil
}

// RelaySync forwards a peer's state push to a single target connection;
// used when an existing member answers a newcomer's sync request.
func (s *Service) RelaySync(connID, targetConnID, text, language string) error {
	roomID, _, ok := s.reg.RoomOf(connID)
	if !ok {
		return domain.ErrNotInRoom
	}
	targetRoom, _, ok := s.reg.RoomOf(targetConnID)
	if !ok || targetRoom != roomID {
		return domain.ErrNotInRoom
	}

	s.send.ToConn(targetConnID, EvtTextChange, TextChangePayload{Text: text})
	if language != "" {
		s.send.ToConn(targetConnID, EvtLanguageChange, LanguageChangePayload{Language: language})
	}
	return nil
}

// Shutdown drains every pending durable write.
func (s *Service) Shutdown(ctx context.Context) {
	s.sched.FlushAll(ctx)
}

func (s *Service) member(connID, roomID string) (domain.Participant, error) {
	actual, p, ok := s.reg.RoomOf(connID)
	if !ok || actual != roomID {
		return domain.Participant{}, domain.ErrNotInRoom
	}
	return p, nil
}
