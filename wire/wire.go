// Package wire defines the JSON records exchanged between BandSeeking
// chat clients and the server. Every payload that crosses the websocket
// boundary is parsed into one of these tagged structs before it reaches
// the rest of the code.
package wire

import (
	"sort"
	"strings"
	"time"
)

// Status is the delivery state of a message as seen by its sender.
type Status string

const (
	StatusSending   Status = "sending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"
)

// Rank orders the forward path sending < sent < delivered < read.
// Failed is terminal and not part of the forward path; it ranks lowest
// so that callers handle it explicitly.
func (s Status) Rank() int {
	switch s {
	case StatusSending:
		return 1
	case StatusSent:
		return 2
	case StatusDelivered:
		return 3
	case StatusRead:
		return 4
	}
	return 0
}

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	return s == StatusFailed || s.Rank() > 0
}

// Message is one persisted chat message row.
type Message struct {
	ID          string `json:"id"`
	SenderID    string `json:"sender_id"`
	RecipientID string `json:"recipient_id"`
	Body        string `json:"body"`
	CreatedAt   int64  `json:"created_at"` // unix milliseconds
	Read        bool   `json:"read"`
	Delivered   bool   `json:"delivered"`
}

// CreatedTime returns CreatedAt as a time.Time.
func (m *Message) CreatedTime() time.Time {
	return time.UnixMilli(m.CreatedAt)
}

// Before orders messages by creation time, with the id as tie breaker so
// the order is total.
func (m *Message) Before(other *Message) bool {
	if m.CreatedAt != other.CreatedAt {
		return m.CreatedAt < other.CreatedAt
	}
	return m.ID < other.ID
}

// StatusPing is an ephemeral peer-to-peer status signal. It is relayed
// over the conversation channel and never persisted.
type StatusPing struct {
	MessageID string `json:"message_id"`
	Status    Status `json:"status"`
}

// ConversationChannel derives the canonical channel name for an
// unordered pair of user ids. Both participants derive the same name.
func ConversationChannel(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return "conv:" + pair[0] + ":" + pair[1]
}

// ChannelPair is the inverse of ConversationChannel.
func ChannelPair(channel string) (string, string, bool) {
	rest, ok := strings.CutPrefix(channel, "conv:")
	if !ok {
		return "", "", false
	}
	a, b, ok := strings.Cut(rest, ":")
	if !ok || a == "" || b == "" {
		return "", "", false
	}
	return a, b, true
}
