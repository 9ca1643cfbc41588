// Package chat implements the client side of BandSeeking's one-to-one
// messaging: the per-conversation channel lifecycle, the ordered local
// message view, the delivery/read status overlay and the optimistic send
// flow. It has no transport of its own; everything reaches the server
// through the Backend interface, so the whole package is testable with
// an in-memory fake.
package chat

import (
	"context"
	"strings"

	"github.com/pborman/uuid"

	"github.com/bandseeking/bandseeking/wire"
)

// ConnState is the normalized connection state of a conversation
// channel. Provider-specific error/terminal states map to Disconnected,
// a subscribed acknowledgement maps to Connected, everything else is
// Connecting.
type ConnState int

const (
	StateConnecting ConnState = iota
	StateConnected
	StateDisconnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// Events holds the handlers a subscription routes inbound traffic to.
// Nil handlers are skipped.
type Events struct {
	// OnInsert receives new message rows for the subscribed pair, either
	// direction.
	OnInsert func(*wire.Message)

	// OnUpdate receives rows whose read/delivered flags changed.
	OnUpdate func(*wire.Message)

	// OnPing receives ephemeral peer status pings.
	OnPing func(wire.StatusPing)

	// OnState receives normalized connection state transitions.
	OnState func(ConnState)
}

// Subscription is a live realtime feed for one conversation channel.
type Subscription interface {
	// Close releases the subscription. It is idempotent.
	Close() error
}

// Backend is everything the chat core needs from the server. The
// websocket transport implements it for production; tests use fakes.
type Backend interface {
	// FetchMessages loads the full conversation between self and peer,
	// both directions, ascending by creation time.
	FetchMessages(ctx context.Context, selfID, peerID string) ([]*wire.Message, error)

	// InsertMessage persists a new message and returns the authoritative
	// row, including the server-assigned id.
	InsertMessage(ctx context.Context, selfID, peerID, body string) (*wire.Message, error)

	// MarkRead flips the read flag of a message addressed to self. The
	// server treats repeated calls as no-ops.
	MarkRead(ctx context.Context, messageID string) error

	// MarkDelivered flips the delivered flag of a message addressed to
	// self.
	MarkDelivered(ctx context.Context, messageID string) error

	// Subscribe opens the realtime feed for the (self, peer) channel.
	Subscribe(ctx context.Context, selfID, peerID string, ev Events) (Subscription, error)

	// SendStatusPing relays an ephemeral status signal to the peer.
	SendStatusPing(ctx context.Context, peerID string, ping wire.StatusPing) error
}

const tempIDPrefix = "tmp-"

// NewTempID returns a fresh local-only message id. The prefix keeps the
// namespace disjoint from server-assigned ids.
func NewTempID() string {
	return tempIDPrefix + strings.ReplaceAll(uuid.New(), "-", "")
}

// IsTempID reports whether id was produced by NewTempID.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, tempIDPrefix)
}
