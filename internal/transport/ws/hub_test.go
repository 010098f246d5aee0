package ws

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id string

	mu   sync.Mutex
	msgs []Message
}

func (c *fakeConn) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *fakeConn) Close() error { return nil }
func (c *fakeConn) ID() string   { return c.id }

func (c *fakeConn) received() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.msgs))
	copy(out, c.msgs)
	return out
}

func TestHubFanOut(t *testing.T) {
	h := NewHub()
	a := &fakeConn{id: "a"}
	b := &fakeConn{id: "b"}
	c := &fakeConn{id: "c"}
	for _, cn := range []*fakeConn{a, b, c} {
		h.Register(cn)
	}
	h.Place("a", "room-1")
	h.Place("b", "room-1")
	h.Place("c", "room-2")

	h.ToRoom("room-1", "a", "text-change", map[string]string{"text": "x"})

	assert.Empty(t, a.received(), "originator is excluded")
	require.Len(t, b.received(), 1)
	assert.Equal(t, "text-change", b.received()[0].Type)
	assert.Empty(t, c.received(), "other rooms are untouched")
}

func TestHubFanOutWithoutExclusion(t *testing.T) {
	h := NewHub()
	a := &fakeConn{id: "a"}
	b := &fakeConn{id: "b"}
	h.Register(a)
	h.Register(b)
	h.Place("a", "room-1")
	h.Place("b", "room-1")

	h.ToRoom("room-1", "", "joined", nil)

	assert.Len(t, a.received(), 1)
	assert.Len(t, b.received(), 1)
}

func TestHubReplacement(t *testing.T) {
	h := NewHub()
	a := &fakeConn{id: "a"}
	b := &fakeConn{id: "b"}
	h.Register(a)
	h.Register(b)
	h.Place("a", "room-1")
	h.Place("b", "room-1")

	// same socket joins a different room
	h.Place("a", "room-2")

	h.ToRoom("room-1", "b", "text-change", nil)
	assert.Empty(t, a.received(), "moved connection must not get the old room's fan-outs")

	h.ToRoom("room-2", "", "text-change", nil)
	assert.Len(t, a.received(), 1)

	// re-placing into the same room is a no-op
	h.Place("b", "room-1")
	h.ToRoom("room-1", "", "joined", nil)
	assert.Len(t, b.received(), 1)
}

func TestHubToConn(t *testing.T) {
	h := NewHub()
	a := &fakeConn{id: "a"}
	h.Register(a)

	// direct sends work before room placement (state replay on join)
	h.ToConn("a", "language-change", nil)
	require.Len(t, a.received(), 1)

	h.ToConn("ghost", "language-change", nil) // unknown conn is a no-op
}

func TestHubUnregister(t *testing.T) {
	h := NewHub()
	a := &fakeConn{id: "a"}
	b := &fakeConn{id: "b"}
	h.Register(a)
	h.Register(b)
	h.Place("a", "room-1")
	h.Place("b", "room-1")

	h.Unregister("a")

	h.ToRoom("room-1", "", "disconnected", nil)
	assert.Empty(t, a.received())
	assert.Len(t, b.received(), 1)

	h.ToConn("a", "text-change", nil)
	assert.Empty(t, a.received())
}
