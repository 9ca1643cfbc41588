package chat

import (
	"sync"

	"github.com/bandseeking/bandseeking/wire"
)

// StatusTracker holds the ephemeral per-message status overlay: state
// the sender already knows but that is not yet reflected in persisted
// read/delivered flags. Entries are keyed by message id -- the temp id
// while a send is in flight, the real id after reconciliation.
//
// The tracked status only ever advances. Signals can arrive reordered
// (a "read" broadcast may outrun the "delivered" one), so Set keeps the
// highest-ranked status seen and silently drops regressions.
type StatusTracker struct {
	mu sync.Mutex
	m  map[string]wire.Status
}

func NewStatusTracker() *StatusTracker {
	return &StatusTracker{m: make(map[string]wire.Status)}
}

// Set records a status for the message. Lower-ranked updates than the
// one already recorded are ignored. Failed is accepted only from
// sending (or from no recorded status): a message that is known sent
// cannot retroactively fail.
func (t *StatusTracker) Set(id string, status wire.Status) {
	if id == "" || !status.Valid() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.m[id]
	if status == wire.StatusFailed {
		if !ok || cur == wire.StatusSending {
			t.m[id] = status
		}
		return
	}
	if ok && (cur == wire.StatusFailed || cur.Rank() >= status.Rank()) {
		return
	}
	t.m[id] = status
}

// Get returns the recorded status, if any.
func (t *StatusTracker) Get(id string) (wire.Status, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.m[id]
	return s, ok
}

// Promote re-keys a temp-id entry to the persisted id once a send
// reconciles, keeping whichever status ranks higher if the real id was
// already being tracked (a broadcast can beat the write response).
func (t *StatusTracker) Promote(tempID, realID string) {
	if tempID == "" || realID == "" || tempID == realID {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	old, ok := t.m[tempID]
	if !ok {
		return
	}
	delete(t.m, tempID)
	if cur, ok := t.m[realID]; ok && cur.Rank() >= old.Rank() {
		return
	}
	t.m[realID] = old
}

// Clear drops the ephemeral entry. Correctness does not depend on
// timely clearing; Resolve applies the precedence rule either way.
func (t *StatusTracker) Clear(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.m, id)
}

// Resolve computes the status to display for a message: the ephemeral
// entry wins when present and not lower-ranked than what the persisted
// flags imply, otherwise the persisted flags decide. A temp-id message
// with no overlay is still sending by definition.
func (t *StatusTracker) Resolve(m *wire.Message) wire.Status {
	implied := wire.StatusSent
	switch {
	case IsTempID(m.ID):
		implied = wire.StatusSending
	case m.Read:
		implied = wire.StatusRead
	case m.Delivered:
		implied = wire.StatusDelivered
	}

	eph, ok := t.Get(m.ID)
	if !ok {
		return implied
	}
	if eph == wire.StatusFailed {
		return eph
	}
	if eph.Rank() > implied.Rank() {
		return eph
	}
	return implied
}
