package chat

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bandseeking/bandseeking/wire"
)

func openSession(t *testing.T, backend *fakeBackend) *Session {
	t.Helper()
	drafts, err := OpenDraftStore(filepath.Join(t.TempDir(), "drafts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = drafts.Close() })

	s := NewSession(backend, "u1", "u2", drafts)
	require.NoError(t, s.Open(context.Background()))
	t.Cleanup(s.Close)

	backend.lastSub().pushState(StateConnected)
	return s
}

func TestSubmitHappyPath(t *testing.T) {
	backend := newFakeBackend()
	s := openSession(t, backend)

	id, err := s.Submit(context.Background(), "hello")
	assert.NoError(t, err)
	assert.False(t, IsTempID(id))

	msgs := s.Store.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, id, msgs[0].ID)
	assert.Equal(t, wire.StatusSent, s.Tracker.Resolve(msgs[0]))
	assert.Empty(t, s.Draft())
}

func TestSubmitThenReadReceipt(t *testing.T) {
	backend := newFakeBackend()
	s := openSession(t, backend)

	id, err := s.Submit(context.Background(), "hello")
	require.NoError(t, err)

	// The peer's client acknowledges: realtime update flips read=true.
	upd := *backend.inserted[0]
	upd.Read = true
	upd.Delivered = true
	backend.lastSub().pushUpdate(&upd)

	got, ok := s.Store.Get(id)
	require.True(t, ok)
	assert.Equal(t, wire.StatusRead, s.Tracker.Resolve(got))
}

func TestSubmitReadPingBeforeDelivered(t *testing.T) {
	backend := newFakeBackend()
	s := openSession(t, backend)

	id, err := s.Submit(context.Background(), "hello")
	require.NoError(t, err)

	sub := backend.lastSub()
	sub.pushPing(wire.StatusPing{MessageID: id, Status: wire.StatusRead})
	sub.pushPing(wire.StatusPing{MessageID: id, Status: wire.StatusDelivered})

	got, _ := s.Store.Get(id)
	assert.Equal(t, wire.StatusRead, s.Tracker.Resolve(got))
}

func TestSubmitFailure(t *testing.T) {
	backend := newFakeBackend()
	s := openSession(t, backend)
	backend.insertErr = assert.AnError

	tempID, err := s.Submit(context.Background(), "hello")
	assert.Error(t, err)
	assert.True(t, IsTempID(tempID))

	// Optimistic entry removed, status failed, draft preserved.
	assert.Equal(t, 0, s.Store.Len())
	st, _ := s.Tracker.Get(tempID)
	assert.Equal(t, wire.StatusFailed, st)
	assert.Equal(t, "hello", s.Draft())

	// Manual retry once the backend recovers.
	backend.insertErr = nil
	id, err := s.Submit(context.Background(), s.Draft())
	assert.NoError(t, err)
	assert.NotEqual(t, tempID, id)
	assert.Equal(t, 1, s.Store.Len())
	assert.Empty(t, s.Draft())
}

func TestSubmitGatedWhileOffline(t *testing.T) {
	backend := newFakeBackend()
	s := openSession(t, backend)

	s.Conn.SetOnline(false)
	_, err := s.Submit(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNotConnected)

	// Nothing appended, nothing sent, draft kept.
	assert.Equal(t, 0, s.Store.Len())
	assert.Empty(t, backend.inserted)
	assert.Equal(t, "hello", s.Draft())

	// Back online with a connected channel, the same submit succeeds.
	s.Conn.SetOnline(true)
	id, err := s.Submit(context.Background(), s.Draft())
	assert.NoError(t, err)
	assert.False(t, IsTempID(id))
	assert.Equal(t, 1, s.Store.Len())
	assert.Empty(t, s.Draft())
}

func TestSubmitGatedWhileDisconnected(t *testing.T) {
	backend := newFakeBackend()
	s := openSession(t, backend)

	backend.lastSub().pushState(StateDisconnected)
	_, err := s.Submit(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Empty(t, backend.inserted)
}

func TestSubmitEmptyBody(t *testing.T) {
	backend := newFakeBackend()
	s := openSession(t, backend)

	_, err := s.Submit(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyBody)
}

func TestInboundMessageFlow(t *testing.T) {
	backend := newFakeBackend()
	s := openSession(t, backend)

	// Peer message arrives over the channel: merged, acknowledged and
	// receipted without any polling.
	backend.lastSub().pushInsert(msgAt("a", "u2", "u1", "hey there", 100))

	msgs := s.Store.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"a"}, backend.readIDs)
	assert.Equal(t, []string{"a"}, backend.delivIDs)
}

func TestSessionOpenLoadsHistory(t *testing.T) {
	backend := newFakeBackend()
	backend.history = []*wire.Message{
		msgAt("a", "u2", "u1", "1", 100),
		msgAt("b", "u1", "u2", "2", 200),
	}

	s := openSession(t, backend)
	assert.Equal(t, []string{"a", "b"}, ids(s.Store.Messages()))
}
