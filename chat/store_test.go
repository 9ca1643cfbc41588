package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bandseeking/bandseeking/wire"
)

func ids(msgs []*wire.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestMergeInsertIdempotent(t *testing.T) {
	s := NewStore("u1", "u2")

	m := msgAt("a", "u2", "u1", "hey", 100)
	// Same row arrives via the history load and again via the realtime
	// feed.
	s.MergeInsert(m)
	s.MergeInsert(msgAt("a", "u2", "u1", "hey", 100))

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, []string{"a"}, ids(s.Messages()))
}

func TestMergeInsertOrdersByCreationTime(t *testing.T) {
	s := NewStore("u1", "u2")

	// Network reordering: arrival order T2, T1, T3.
	s.MergeInsert(msgAt("b", "u1", "u2", "2", 200))
	s.MergeInsert(msgAt("a", "u2", "u1", "1", 100))
	s.MergeInsert(msgAt("c", "u2", "u1", "3", 300))

	assert.Equal(t, []string{"a", "b", "c"}, ids(s.Messages()))
}

func TestMergeInsertTieBreaksByID(t *testing.T) {
	s := NewStore("u1", "u2")

	s.MergeInsert(msgAt("b", "u1", "u2", "x", 100))
	s.MergeInsert(msgAt("a", "u2", "u1", "y", 100))

	assert.Equal(t, []string{"a", "b"}, ids(s.Messages()))
}

func TestMergeUpdateReplaces(t *testing.T) {
	s := NewStore("u1", "u2")

	s.MergeInsert(msgAt("a", "u1", "u2", "hi", 100))
	upd := msgAt("a", "u1", "u2", "hi", 100)
	upd.Read = true
	s.MergeUpdate(upd)

	assert.Equal(t, 1, s.Len())
	got, ok := s.Get("a")
	assert.True(t, ok)
	assert.True(t, got.Read)
}

func TestMergeUpdateUnknownDegradesToInsert(t *testing.T) {
	s := NewStore("u1", "u2")

	upd := msgAt("a", "u1", "u2", "hi", 100)
	upd.Read = true
	s.MergeUpdate(upd)

	assert.Equal(t, 1, s.Len())
}

func TestSendOptimistic(t *testing.T) {
	s := NewStore("u1", "u2")

	tempID, err := s.SendOptimistic("  hello  ")
	assert.NoError(t, err)
	assert.True(t, IsTempID(tempID))

	m, ok := s.Get(tempID)
	assert.True(t, ok)
	assert.Equal(t, "hello", m.Body)
	assert.Equal(t, "u1", m.SenderID)
	assert.Equal(t, "u2", m.RecipientID)
	assert.False(t, m.Read)
	assert.False(t, m.Delivered)
}

func TestSendOptimisticRejectsEmptyBody(t *testing.T) {
	s := NewStore("u1", "u2")

	_, err := s.SendOptimistic("   \n\t ")
	assert.ErrorIs(t, err, ErrEmptyBody)
	assert.Equal(t, 0, s.Len())
}

func TestReconcileSuccess(t *testing.T) {
	s := NewStore("u1", "u2")

	s.MergeInsert(msgAt("m1", "u2", "u1", "before", 100))
	tempID, err := s.SendOptimistic("hello")
	assert.NoError(t, err)

	persisted := msgAt("m2", "u1", "u2", "hello", 200)
	s.Reconcile(tempID, persisted)

	// Exactly one entry with the persisted id, not two, in place.
	assert.Equal(t, []string{"m1", "m2"}, ids(s.Messages()))
	_, ok := s.Get(tempID)
	assert.False(t, ok)
}

func TestReconcileSuccessAfterRealtimeEcho(t *testing.T) {
	s := NewStore("u1", "u2")

	tempID, err := s.SendOptimistic("hello")
	assert.NoError(t, err)

	// The feed echoes the insert before the write response lands.
	persisted := msgAt("m1", "u1", "u2", "hello", 200)
	s.MergeInsert(persisted)
	s.Reconcile(tempID, persisted)

	assert.Equal(t, []string{"m1"}, ids(s.Messages()))
}

func TestReconcileFailure(t *testing.T) {
	s := NewStore("u1", "u2")

	tempID, err := s.SendOptimistic("hello")
	assert.NoError(t, err)

	s.Reconcile(tempID, nil)
	assert.Equal(t, 0, s.Len())

	// A manual resend gets a fresh, independent temp id.
	tempID2, err := s.SendOptimistic("hello")
	assert.NoError(t, err)
	assert.NotEqual(t, tempID, tempID2)
	assert.Equal(t, 1, s.Len())
}

func TestLoadHistoryMergesWithOptimistic(t *testing.T) {
	backend := newFakeBackend()
	backend.history = []*wire.Message{
		msgAt("a", "u2", "u1", "1", 100),
		msgAt("b", "u1", "u2", "2", 200),
	}

	s := NewStore("u1", "u2")
	tempID, err := s.SendOptimistic("draft")
	assert.NoError(t, err)

	assert.NoError(t, s.LoadHistory(context.Background(), backend))
	assert.Equal(t, 3, s.Len())
	_, ok := s.Get(tempID)
	assert.True(t, ok)
}
