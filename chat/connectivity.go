package chat

import "sync"

// CombinedStatus is the single gating decision derived from the two
// independent connectivity signals: host-level online/offline and the
// channel's connection state.
type CombinedStatus string

const (
	StatusOffline      CombinedStatus = "offline"
	StatusConnecting   CombinedStatus = "connecting"
	StatusDisconnected CombinedStatus = "disconnected"
	StatusReady        CombinedStatus = "ready"
)

// Connectivity combines the online signal with the channel state.
// Composition is never gated on it; only message submission consults
// Status, and only at submit time.
type Connectivity struct {
	mu      sync.Mutex
	online  bool
	channel ConnState
}

// NewConnectivity starts online with a disconnected channel.
func NewConnectivity() *Connectivity {
	return &Connectivity{online: true, channel: StateDisconnected}
}

// SetOnline records a host online/offline transition.
func (c *Connectivity) SetOnline(online bool) {
	c.mu.Lock()
	c.online = online
	c.mu.Unlock()
}

// SetChannelState records a channel state transition. This is the
// ChannelManager's onState hook.
func (c *Connectivity) SetChannelState(s ConnState) {
	c.mu.Lock()
	c.channel = s
	c.mu.Unlock()
}

// Status returns the combined gating status: offline dominates, then a
// non-connected channel reports its own state, otherwise ready.
func (c *Connectivity) Status() CombinedStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.online {
		return StatusOffline
	}
	switch c.channel {
	case StateConnecting:
		return StatusConnecting
	case StateDisconnected:
		return StatusDisconnected
	}
	return StatusReady
}

// CanSend reports whether submission is currently permitted.
func (c *Connectivity) CanSend() bool {
	return c.Status() == StatusReady
}
