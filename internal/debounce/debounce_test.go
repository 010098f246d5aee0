package debounce

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type writeRec struct {
	key   Key
	value string
	at    time.Time
}

type fakeSink struct {
	mu     sync.Mutex
	writes []writeRec
	fail   bool
}

func (f *fakeSink) write(_ context.Context, key Key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("store down")
	}
	f.writes = append(f.writes, writeRec{key: key, value: value, at: time.Now()})
	return nil
}

func (f *fakeSink) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func (f *fakeSink) snapshot() []writeRec {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]writeRec, len(f.writes))
	copy(out, f.writes)
	return out
}

func textKey(room string) Key { return Key{RoomID: room, Kind: KindText} }

func TestScheduleCoalesces(t *testing.T) {
	sink := &fakeSink{}
	s := NewScheduler(sink.write, 80*time.Millisecond, 40*time.Millisecond)

	// five edits inside one debounce window
	var last time.Time
	for _, v := range []string{"v1", "v2", "v3", "v4", "v5"} {
		s.Schedule(textKey("room-a"), v)
		last = time.Now()
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(200 * time.Millisecond)

	writes := sink.snapshot()
	require.Len(t, writes, 1, "burst must coalesce into one write")
	assert.Equal(t, "v5", writes[0].value)
	assert.GreaterOrEqual(t, writes[0].at.Sub(last), 70*time.Millisecond,
		"timer must restart from the last schedule, not the first")
}

func TestScheduleSupersedes(t *testing.T) {
	sink := &fakeSink{}
	s := NewScheduler(sink.write, 50*time.Millisecond, 50*time.Millisecond)

	s.Schedule(textKey("room-a"), "old")
	time.Sleep(25 * time.Millisecond)
	s.Schedule(textKey("room-a"), "new")

	time.Sleep(150 * time.Millisecond)

	writes := sink.snapshot()
	require.Len(t, writes, 1)
	assert.Equal(t, "new", writes[0].value)
}

func TestFlushWritesImmediately(t *testing.T) {
	sink := &fakeSink{}
	s := NewScheduler(sink.write, time.Hour, time.Hour)

	s.Schedule(textKey("room-a"), "edit just before disconnect")
	s.Flush(context.Background(), "room-a")

	writes := sink.snapshot()
	require.Len(t, writes, 1, "flush must not wait for the debounce window")
	assert.Equal(t, "edit just before disconnect", writes[0].value)

	// drained: a second flush has nothing to write
	s.Flush(context.Background(), "room-a")
	assert.Len(t, sink.snapshot(), 1)
}

func TestFlushCoversBothKinds(t *testing.T) {
	sink := &fakeSink{}
	s := NewScheduler(sink.write, time.Hour, time.Hour)

	s.Schedule(Key{RoomID: "room-a", Kind: KindText}, "body")
	s.Schedule(Key{RoomID: "room-a", Kind: KindLanguage}, "python")
	s.Flush(context.Background(), "room-a")

	writes := sink.snapshot()
	require.Len(t, writes, 2)
	got := map[Kind]string{}
	for _, w := range writes {
		got[w.key.Kind] = w.value
	}
	assert.Equal(t, "body", got[KindText])
	assert.Equal(t, "python", got[KindLanguage])
}

func TestKindsDoNotResetEachOther(t *testing.T) {
	sink := &fakeSink{}
	s := NewScheduler(sink.write, 60*time.Millisecond, 60*time.Millisecond)

	s.Schedule(Key{RoomID: "room-a", Kind: KindLanguage}, "go")
	// keep re-scheduling text past the language window
	for i := 0; i < 5; i++ {
		s.Schedule(Key{RoomID: "room-a", Kind: KindText}, "t")
		time.Sleep(20 * time.Millisecond)
	}

	writes := sink.snapshot()
	require.NotEmpty(t, writes, "language timer must fire despite text churn")
	assert.Equal(t, KindLanguage, writes[0].key.Kind)
}

func TestWriteFailureRetainsPending(t *testing.T) {
	sink := &fakeSink{}
	s := NewScheduler(sink.write, 30*time.Millisecond, 30*time.Millisecond)

	sink.setFail(true)
	s.Schedule(textKey("room-a"), "must survive")
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, sink.snapshot())

	// the flush path retries the retained value
	sink.setFail(false)
	s.Flush(context.Background(), "room-a")

	writes := sink.snapshot()
	require.Len(t, writes, 1)
	assert.Equal(t, "must survive", writes[0].value)
}

func TestFlushAll(t *testing.T) {
	sink := &fakeSink{}
	s := NewScheduler(sink.write, time.Hour, time.Hour)

	s.Schedule(textKey("room-a"), "a")
	s.Schedule(textKey("room-b"), "b")
	s.FlushAll(context.Background())

	writes := sink.snapshot()
	require.Len(t, writes, 2)
	got := map[string]string{}
	for _, w := range writes {
		got[w.key.RoomID] = w.value
	}
	assert.Equal(t, map[string]string{"room-a": "a", "room-b": "b"}, got)
}
