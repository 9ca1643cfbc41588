package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pborman/uuid"
	kafka "github.com/segmentio/kafka-go"

	"github.com/bandseeking/bandseeking/wire"
)

const (
	// kafka value size guard, keep in sync with `max.message.bytes`.
	ValueMaxBytes = 4096

	publishTimeout = 3 * time.Second

	KindReport         = "report"
	KindReportResolved = "report_resolved"
)

// Publisher writes moderation notices to kafka. The REST layer owns
// one instance.
type Publisher struct {
	writer IKafkaWriter
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: kafka.NewWriter(kafka.WriterConfig{
			Brokers:  brokers,
			Topic:    topic,
			Balancer: &kafka.Hash{},
			Dialer: &kafka.Dialer{
				Timeout:   10 * time.Second,
				DualStack: true,
			},
		}),
	}
}

// NewPublisherWithWriter is for tests.
func NewPublisherWithWriter(w IKafkaWriter) *Publisher {
	return &Publisher{writer: w}
}

// Publish assigns the notice a fresh key and writes it. The key makes
// redelivery idempotent on the consumer side.
func (p *Publisher) Publish(ctx context.Context, n *wire.Notice) error {
	n.Key = strings.ReplaceAll(uuid.New(), "-", "")
	n.CreatedAt = time.Now().UnixMilli()

	value, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("error marshal notice: %+v, err: %v", n, err)
	}
	if len(value) > ValueMaxBytes {
		return fmt.Errorf("notice exceeds max limit: %d bytes", ValueMaxBytes)
	}

	km := kafka.Message{
		Key:   []byte(n.Key),
		Value: value,
	}

	ctx2, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx2, km); err != nil {
		return fmt.Errorf("error write to kafka: %s", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
