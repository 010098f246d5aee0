package registry

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/Tharunkunamalla/realtime-editor/internal/domain"
)

// Participant colors for cursor decoration. Assignment is by connection id
// hash, so a connection keeps its color for its whole session.
var palette = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231",
	"#911eb4", "#46f0f0", "#f032e6", "#bcf60c", "#fabebe",
	"#008080", "#e6beff", "#9a6324", "#800000", "#aaffc3",
}

func colorFor(connID string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(connID))
	return palette[h.Sum32()%uint32(len(palette))]
}

type session struct {
	participant domain.Participant
	roomID      string
}

// room is the in-memory authority for one collaborative session. Text and
// language always reflect the most recent accepted mutation, even when the
// durable store lags behind.
type room struct {
	text     string
	language string
	members  []string // conn ids in join order
}

// Registry maps live connections to rooms and owns per-room state.
// Empty on process start; rebuilt entirely from live connections.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
	rooms    map[string]*room
}

func New() *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		rooms:    make(map[string]*room),
	}
}

type JoinResult struct {
	IsFirst     bool
	Participant domain.Participant
	Members     []domain.Participant
}

// Join registers the connection in roomID, creating the room entry if
// absent. A connection already joined elsewhere is moved (defensive; the
// protocol only ever joins once per connection).
func (r *Registry) Join(connID, roomID, username string) (JoinResult, error) {
	if roomID == "" {
		return JoinResult{}, domain.ErrEmptyRoomID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.sessions[connID]; ok {
		r.removeMemberLocked(prev.roomID, connID)
		delete(r.sessions, connID)
	}

	rm, ok := r.rooms[roomID]
	isFirst := !ok
	if !ok {
		rm = &room{
			text:     domain.DefaultText,
			language: domain.DefaultLanguage,
		}
		r.rooms[roomID] = rm
	}

	p := domain.Participant{
		ConnID:   connID,
		Username: username,
		Color:    colorFor(connID),
		JoinedAt: time.Now(),
	}
	r.sessions[connID] = &session{participant: p, roomID: roomID}
	rm.members = append(rm.members, connID)

	return JoinResult{
		IsFirst:     isFirst,
		Participant: p,
		Members:     r.membersLocked(roomID),
	}, nil
}

type Departure struct {
	RoomID      string
	Participant domain.Participant
	Remaining   []domain.Participant
	WasLast     bool
}

// Leave removes the connection from every room it belongs to (at most one
// in practice). Idempotent: an unknown connection yields no departures.
func (r *Registry) Leave(connID string) []Departure {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[connID]
	if !ok {
		return nil
	}
	delete(r.sessions, connID)
	r.removeMemberLocked(s.roomID, connID)

	remaining := r.membersLocked(s.roomID)
	return []Departure{{
		RoomID:      s.roomID,
		Participant: s.participant,
		Remaining:   remaining,
		WasLast:     len(remaining) == 0,
	}}
}

// Members returns participant summaries in join order. Duplicate usernames
// are kept as-is; collapsing them for presence display is the presentation
// layer's job.
func (r *Registry) Members(roomID string) []domain.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.membersLocked(roomID)
}

// RoomOf resolves a connection to its room and participant identity.
func (r *Registry) RoomOf(connID string) (string, domain.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[connID]
	if !ok {
		return "", domain.Participant{}, false
	}
	return s.roomID, s.participant, true
}

// Snapshot returns the room's current text and language.
func (r *Registry) Snapshot(roomID string) (text, language string, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return "", "", false
	}
	return rm.text, rm.language, true
}

func (r *Registry) SetText(roomID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return domain.ErrRoomNotFound
	}
	rm.text = text
	return nil
}

func (r *Registry) SetLanguage(roomID, language string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok {
		return domain.ErrRoomNotFound
	}
	rm.language = language
	return nil
}

// Adopt overwrites a room's state with a freshly loaded durable record.
func (r *Registry) Adopt(roomID, text, language string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rm, ok := r.rooms[roomID]; ok {
		rm.text = text
		rm.language = language
	}
}

// DropIfEmpty evicts an inert room from memory. Callers must have flushed
// pending persistence first.
func (r *Registry) DropIfEmpty(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomID]
	if !ok || len(rm.members) > 0 {
		return false
	}
	delete(r.rooms, roomID)
	return true
}

func (r *Registry) membersLocked(roomID string) []domain.Participant {
	rm, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]domain.Participant, 0, len(rm.members))
	for _, id := range rm.members {
		if s, ok := r.sessions[id]; ok {
			out = append(out, s.participant)
		}
	}
	return out
}

func (r *Registry) removeMemberLocked(roomID, connID string) {
	rm, ok := r.rooms[roomID]
	if !ok {
		return
	}
	for i, id := range rm.members {
		if id == connID {
			rm.members = append(rm.members[:i], rm.members[i+1:]...)
			break
		}
	}
}
