package chat

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/bandseeking/bandseeking/wire"
)

// ErrEmptyBody is returned for a message whose body is empty after
// trimming.
var ErrEmptyBody = errors.New("chat: empty message body")

// Store is the ordered, de-duplicated view of one conversation. Rows
// arrive from three independent sources -- the one-shot history load,
// the realtime feed and local optimistic sends -- in no guaranteed
// order; Store makes the resulting list idempotent and order-stable
// regardless of interleaving.
//
// A Store is owned by a single conversation view but its methods are
// safe for concurrent use, since realtime callbacks arrive on transport
// goroutines.
type Store struct {
	selfID string
	peerID string

	mu   sync.Mutex
	msgs []*wire.Message
	ids  map[string]struct{}
}

// NewStore creates the view for the conversation between self and peer.
func NewStore(selfID, peerID string) *Store {
	return &Store{
		selfID: selfID,
		peerID: peerID,
		ids:    make(map[string]struct{}),
	}
}

// LoadHistory replaces the current contents with the authoritative
// history fetched from the backend. Optimistic entries already present
// are preserved; persisted rows merge idempotently.
func (s *Store) LoadHistory(ctx context.Context, backend Backend) error {
	msgs, err := backend.FetchMessages(ctx, s.selfID, s.peerID)
	if err != nil {
		return err
	}
	for _, m := range msgs {
		s.MergeInsert(m)
	}
	return nil
}

// MergeInsert adds a message unless a row with the same id is already
// present. The row is placed at its time-ordered position, so reordered
// arrival (history racing the realtime feed) cannot corrupt the order.
func (s *Store) MergeInsert(m *wire.Message) {
	if m == nil || m.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(m)
}

func (s *Store) insertLocked(m *wire.Message) {
	if _, ok := s.ids[m.ID]; ok {
		return
	}
	at := sort.Search(len(s.msgs), func(i int) bool {
		return m.Before(s.msgs[i])
	})
	s.msgs = append(s.msgs, nil)
	copy(s.msgs[at+1:], s.msgs[at:])
	s.msgs[at] = m
	s.ids[m.ID] = struct{}{}
}

// MergeUpdate replaces the row matching the update's id. An update for
// an unknown id degrades to an insert: an update echo can legitimately
// outrun the insert echo.
func (s *Store) MergeUpdate(m *wire.Message) {
	if m == nil || m.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[m.ID]; !ok {
		s.insertLocked(m)
		return
	}
	for i, cur := range s.msgs {
		if cur.ID == m.ID {
			s.msgs[i] = m
			return
		}
	}
}

// SendOptimistic appends a local-only message with a temp id and
// returns that id for later reconciliation.
func (s *Store) SendOptimistic(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", ErrEmptyBody
	}
	m := &wire.Message{
		ID:          NewTempID(),
		SenderID:    s.selfID,
		RecipientID: s.peerID,
		Body:        body,
		CreatedAt:   time.Now().UnixMilli(),
	}
	s.MergeInsert(m)
	return m.ID, nil
}

// Reconcile resolves an optimistic entry against the authoritative
// write response: the temp row is replaced in place by the persisted
// row. If the persisted row already arrived through the realtime feed,
// the temp row is simply dropped.
func (s *Store) Reconcile(tempID string, persisted *wire.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := -1
	for i, cur := range s.msgs {
		if cur.ID == tempID {
			at = i
			break
		}
	}
	if at < 0 {
		glog.V(5).Infof("chat: reconcile: temp id %s not found", tempID)
		if persisted != nil {
			s.insertLocked(persisted)
		}
		return
	}

	delete(s.ids, tempID)
	if persisted == nil {
		// Failed send: remove the optimistic entry entirely.
		s.msgs = append(s.msgs[:at], s.msgs[at+1:]...)
		return
	}
	if _, ok := s.ids[persisted.ID]; ok {
		// Realtime echo won the race; avoid a duplicate.
		s.msgs = append(s.msgs[:at], s.msgs[at+1:]...)
		return
	}
	s.msgs[at] = persisted
	s.ids[persisted.ID] = struct{}{}
}

// Messages returns a snapshot of the conversation in creation-time
// order.
func (s *Store) Messages() []*wire.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*wire.Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// Get returns the message with the given id, if present.
func (s *Store) Get(id string) (*wire.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; !ok {
		return nil, false
	}
	for _, m := range s.msgs {
		if m.ID == id {
			return m, true
		}
	}
	return nil, false
}

// Len returns the number of messages in the view.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}
