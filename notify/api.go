// Package notify is the moderation event pipeline: venue reports and
// admin notices are published to kafka by the REST layer, consumed by
// exactly one consumer per deployment, persisted, and pushed to live
// admin sessions.
package notify

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/bandseeking/bandseeking/wire"
)

type IKafkaReader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

type IKafkaWriter interface {
	WriteMessages(context.Context, ...kafka.Message) error
	Close() error
}

// INoticeStore persists consumed notices and resolves their audience.
type INoticeStore interface {
	Save(ctx context.Context, n *wire.Notice) error
	Audience(ctx context.Context) ([]string, error)
	IsDupKeyError(err error) bool
}

// IPusher fans a stored notice out to live sessions.
type IPusher interface {
	PushNoticeTo(uids []string, n *wire.Notice)
}
