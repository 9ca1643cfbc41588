package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bandseeking/bandseeking/wire"
)

// fakeBackend is an in-memory Backend for tests. It records every call
// and exposes the subscriptions it handed out so tests can push
// realtime events and state transitions by hand.
type fakeBackend struct {
	mu sync.Mutex

	history   []*wire.Message
	insertErr error
	subErr    error

	inserted  []*wire.Message
	readIDs   []string
	delivIDs  []string
	pings     []wire.StatusPing
	subs      []*fakeSub
	nextID    int
	createdAt int64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{createdAt: time.Now().UnixMilli()}
}

func (f *fakeBackend) FetchMessages(ctx context.Context, selfID, peerID string) ([]*wire.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*wire.Message, len(f.history))
	copy(out, f.history)
	return out, nil
}

func (f *fakeBackend) InsertMessage(ctx context.Context, selfID, peerID, body string) (*wire.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.nextID++
	f.createdAt++
	m := &wire.Message{
		ID:          fmt.Sprintf("m%d", f.nextID),
		SenderID:    selfID,
		RecipientID: peerID,
		Body:        body,
		CreatedAt:   f.createdAt,
	}
	f.inserted = append(f.inserted, m)
	return m, nil
}

func (f *fakeBackend) MarkRead(ctx context.Context, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readIDs = append(f.readIDs, messageID)
	return nil
}

func (f *fakeBackend) MarkDelivered(ctx context.Context, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivIDs = append(f.delivIDs, messageID)
	return nil
}

func (f *fakeBackend) Subscribe(ctx context.Context, selfID, peerID string, ev Events) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return nil, f.subErr
	}
	sub := &fakeSub{ev: ev, channel: wire.ConversationChannel(selfID, peerID)}
	f.subs = append(f.subs, sub)
	return sub, nil
}

func (f *fakeBackend) SendStatusPing(ctx context.Context, peerID string, ping wire.StatusPing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings = append(f.pings, ping)
	return nil
}

func (f *fakeBackend) lastSub() *fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.subs) == 0 {
		return nil
	}
	return f.subs[len(f.subs)-1]
}

type fakeSub struct {
	ev      Events
	channel string

	mu     sync.Mutex
	closed bool
}

func (s *fakeSub) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *fakeSub) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Event injection helpers. These call the handlers exactly the way a
// live transport would, including after the channel was superseded.

func (s *fakeSub) pushInsert(m *wire.Message) {
	if s.ev.OnInsert != nil {
		s.ev.OnInsert(m)
	}
}

func (s *fakeSub) pushUpdate(m *wire.Message) {
	if s.ev.OnUpdate != nil {
		s.ev.OnUpdate(m)
	}
}

func (s *fakeSub) pushPing(p wire.StatusPing) {
	if s.ev.OnPing != nil {
		s.ev.OnPing(p)
	}
}

func (s *fakeSub) pushState(st ConnState) {
	if s.ev.OnState != nil {
		s.ev.OnState(st)
	}
}

func msgAt(id, sender, recipient, body string, at int64) *wire.Message {
	return &wire.Message{
		ID:          id,
		SenderID:    sender,
		RecipientID: recipient,
		Body:        body,
		CreatedAt:   at,
	}
}
