package store

import (
	"context"

	"github.com/bandseeking/bandseeking/wire"
)

type IMessageStore interface {
	// FetchConversation gets all messages between a and b, either
	// direction, ascending by creation time.
	FetchConversation(ctx context.Context, a, b string) ([]*wire.Message, error)

	// Insert persists a new message and returns the authoritative row.
	Insert(ctx context.Context, senderID, recipientID, body string) (*wire.Message, error)

	// SetRead flips the read flag of a message addressed to recipientID.
	// Idempotent; `changed` is false when the flag was already set. The
	// updated row is returned for fan-out.
	SetRead(ctx context.Context, id, recipientID string) (*wire.Message, bool, error)

	// SetDelivered flips the delivered flag of a message addressed to
	// recipientID. Same idempotency contract as SetRead.
	SetDelivered(ctx context.Context, id, recipientID string) (*wire.Message, bool, error)

	// CountUnread counts unread messages addressed to uid.
	CountUnread(ctx context.Context, uid string) (int64, error)

	// ListRecent gets the newest messages across all conversations,
	// newest first, for the admin back-office. Limit is capped.
	ListRecent(ctx context.Context, limit int) ([]*wire.Message, error)

	// DeleteOutdated deletes messages older than ttlDays.
	DeleteOutdated(ctx context.Context, ttlDays int32) (int64, error)

	IsDupKeyError(err error) bool
}
