package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bandseeking/bandseeking/wire"
)

func newTestStore(handlers ...*Handler) *HandlerStore {
	hs := &HandlerStore{handlers: make(map[string]*Handler)}
	for _, h := range handlers {
		hs.add(h)
	}
	return hs
}

func testHandler(uid, sid, channel string, ctime int64) *Handler {
	return &Handler{
		session: &Session{UID: uid, SID: sid, CreateTime: ctime},
		channel: channel,
	}
}

func TestGetByChannel(t *testing.T) {
	conv := wire.ConversationChannel("alice", "bob")

	a := testHandler("alice", "s1", conv, 1)
	b := testHandler("bob", "s2", conv, 2)
	other := testHandler("carol", "s3", wire.ConversationChannel("carol", "bob"), 3)
	idle := testHandler("alice", "s4", "", 4)

	hs := newTestStore(a, b, other, idle)

	got := hs.getByChannel(conv)
	require.Len(t, got, 2)
	sids := map[string]bool{got[0].session.SID: true, got[1].session.SID: true}
	assert.True(t, sids["s1"])
	assert.True(t, sids["s2"])
}

func TestGetOverQuotaKicksOldestFirst(t *testing.T) {
	h1 := testHandler("alice", "s1", "", 100)
	h2 := testHandler("alice", "s2", "", 200)
	h3 := testHandler("alice", "s3", "", 300)
	hb := testHandler("bob", "s4", "", 50)

	hs := newTestStore(h1, h2, h3, hb)

	got := hs.getOverQuota("alice", 2)
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].session.SID)

	assert.Empty(t, hs.getOverQuota("bob", 2))
	assert.Empty(t, hs.getOverQuota("alice", 3))
}

func TestDelIsIdempotent(t *testing.T) {
	h := testHandler("alice", "s1", "", 1)
	hs := newTestStore(h)

	assert.True(t, hs.del("s1"))
	assert.False(t, hs.del("s1"))
	assert.Nil(t, hs.get("s1"))
	assert.Equal(t, 0, hs.count())
}
