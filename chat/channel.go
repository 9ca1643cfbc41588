package chat

import (
	"context"
	"sync"

	"github.com/golang/glog"

	"github.com/bandseeking/bandseeking/wire"
)

// ChannelManager owns the realtime subscription of the active
// conversation view. At most one channel is open at a time: opening for
// a new peer tears the previous channel down first, and a generation
// token makes callbacks from a closed channel inert, so a late event
// from conversation N-1 can never mutate conversation N.
type ChannelManager struct {
	backend Backend

	mu      sync.Mutex
	gen     uint64
	sub     Subscription
	state   ConnState
	selfID  string
	peerID  string
	store   *Store
	tracker *StatusTracker

	// message ids already marked read, so a duplicate insert echo does
	// not re-fire the side effect.
	marked map[string]struct{}

	onState func(ConnState)
}

// NewChannelManager creates a manager routing events into the given
// store and tracker. onState, if non-nil, observes normalized
// connection state transitions (the Connectivity monitor plugs in
// here).
func NewChannelManager(backend Backend, onState func(ConnState)) *ChannelManager {
	return &ChannelManager{
		backend: backend,
		state:   StateDisconnected,
		onState: onState,
	}
}

// Open subscribes to the conversation channel for (selfID, peerID) and
// starts routing events into store and tracker. Any previously open
// channel is fully released first.
func (cm *ChannelManager) Open(ctx context.Context, selfID, peerID string, store *Store, tracker *StatusTracker) error {
	cm.Close()

	cm.mu.Lock()
	cm.gen++
	gen := cm.gen
	cm.selfID = selfID
	cm.peerID = peerID
	cm.store = store
	cm.tracker = tracker
	cm.marked = make(map[string]struct{})
	cm.setStateLocked(StateConnecting)
	cm.mu.Unlock()

	ev := Events{
		OnInsert: func(m *wire.Message) { cm.handleInsert(ctx, gen, m) },
		OnUpdate: func(m *wire.Message) { cm.handleUpdate(gen, m) },
		OnPing:   func(p wire.StatusPing) { cm.handlePing(gen, p) },
		OnState:  func(s ConnState) { cm.handleState(gen, s) },
	}

	sub, err := cm.backend.Subscribe(ctx, selfID, peerID, ev)
	if err != nil {
		glog.Errorf("chat: subscribe %s: %v", wire.ConversationChannel(selfID, peerID), err)
		cm.mu.Lock()
		if cm.gen == gen {
			cm.setStateLocked(StateDisconnected)
		}
		cm.mu.Unlock()
		return err
	}

	cm.mu.Lock()
	if cm.gen != gen {
		// Closed (or reopened) while subscribing; release immediately.
		cm.mu.Unlock()
		_ = sub.Close()
		return nil
	}
	cm.sub = sub
	cm.mu.Unlock()
	return nil
}

// Close releases the current subscription and invalidates its
// callbacks. Safe to call when already closed.
func (cm *ChannelManager) Close() {
	cm.mu.Lock()
	cm.gen++
	sub := cm.sub
	cm.sub = nil
	if cm.state != StateDisconnected {
		cm.setStateLocked(StateDisconnected)
	}
	cm.mu.Unlock()

	if sub != nil {
		_ = sub.Close()
	}
}

// State returns the normalized connection state of the channel.
func (cm *ChannelManager) State() ConnState {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.state
}

func (cm *ChannelManager) setStateLocked(s ConnState) {
	cm.state = s
	if cm.onState != nil {
		// Called with the lock held; observers must not call back in.
		cm.onState(s)
	}
}

// stale reports whether an event belongs to a closed generation. It
// also snapshots the routing targets under the lock.
func (cm *ChannelManager) current(gen uint64) (*Store, *StatusTracker, bool) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.gen != gen {
		return nil, nil, false
	}
	return cm.store, cm.tracker, true
}

func (cm *ChannelManager) handleInsert(ctx context.Context, gen uint64, m *wire.Message) {
	store, _, ok := cm.current(gen)
	if !ok || m == nil {
		return
	}
	store.MergeInsert(m)

	// Inbound messages from the peer are acknowledged: delivered first,
	// then read, since this view is the open conversation.
	if m.SenderID == cm.peerID && m.RecipientID == cm.selfID {
		cm.ackInbound(ctx, gen, m)
	}
}

func (cm *ChannelManager) ackInbound(ctx context.Context, gen uint64, m *wire.Message) {
	cm.mu.Lock()
	if cm.gen != gen {
		cm.mu.Unlock()
		return
	}
	if _, dup := cm.marked[m.ID]; dup {
		cm.mu.Unlock()
		return
	}
	cm.marked[m.ID] = struct{}{}
	peerID := cm.peerID
	cm.mu.Unlock()

	if !m.Delivered {
		if err := cm.backend.MarkDelivered(ctx, m.ID); err != nil {
			glog.Errorf("chat: mark delivered %s: %v", m.ID, err)
		}
		if err := cm.backend.SendStatusPing(ctx, peerID, wire.StatusPing{MessageID: m.ID, Status: wire.StatusDelivered}); err != nil {
			glog.V(5).Infof("chat: delivered ping %s: %v", m.ID, err)
		}
	}
	if !m.Read {
		if err := cm.backend.MarkRead(ctx, m.ID); err != nil {
			glog.Errorf("chat: mark read %s: %v", m.ID, err)
		}
		if err := cm.backend.SendStatusPing(ctx, peerID, wire.StatusPing{MessageID: m.ID, Status: wire.StatusRead}); err != nil {
			glog.V(5).Infof("chat: read ping %s: %v", m.ID, err)
		}
	}
}

func (cm *ChannelManager) handleUpdate(gen uint64, m *wire.Message) {
	store, tracker, ok := cm.current(gen)
	if !ok || m == nil {
		return
	}
	store.MergeUpdate(m)

	// Flag changes on our own messages advance the sender-side status.
	if m.SenderID == cm.selfID {
		if m.Read {
			tracker.Set(m.ID, wire.StatusRead)
		} else if m.Delivered {
			tracker.Set(m.ID, wire.StatusDelivered)
		}
	}
}

func (cm *ChannelManager) handlePing(gen uint64, p wire.StatusPing) {
	_, tracker, ok := cm.current(gen)
	if !ok {
		return
	}
	tracker.Set(p.MessageID, p.Status)
}

func (cm *ChannelManager) handleState(gen uint64, s ConnState) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.gen != gen {
		return
	}
	cm.setStateLocked(s)
}
