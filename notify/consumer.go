package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/golang/glog"
	kafka "github.com/segmentio/kafka-go"

	"github.com/bandseeking/bandseeking/wire"
)

const (
	BackoffMinInterval = 1 * time.Second
	BackoffMaxInterval = 60 * time.Second
	BackoffMultiplier  = 1.5

	// consumed messages older than this are dropped unseen.
	discardAfter = 7 * 24 * time.Hour
)

// Consumer reads moderation notices from kafka, persists them and
// pushes them to live admin sessions. There MUST be exactly one
// consumer instance per deployment.
type Consumer struct {
	store  INoticeStore
	reader IKafkaReader
	pusher IPusher
	wg     sync.WaitGroup
}

func NewConsumer(brokers []string, topic, groupID string, store INoticeStore, pusher IPusher) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   topic,
		Dialer: &kafka.Dialer{
			Timeout:   10 * time.Second,
			DualStack: true,
		},
	})
	return newConsumer(store, reader, pusher)
}

func newConsumer(store INoticeStore, reader IKafkaReader, pusher IPusher) *Consumer {
	return &Consumer{
		store:  store,
		reader: reader,
		pusher: pusher,
	}
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context, stopDoneNotifyC chan<- struct{}) {
	glog.Info("notify: consumer starting")

	go c.consumeLoop(ctx)

	<-ctx.Done()

	glog.Info("notify: consumer stopping")
	_ = c.reader.Close() // slow: takes a few seconds

	c.wg.Wait()
	glog.Info("notify: consumer stopped")
	stopDoneNotifyC <- struct{}{}
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	glog.Info("notify: consume loop enter")
	c.wg.Add(1)

	defer func() {
		glog.Info("notify: consume loop exited")
		c.wg.Done()
	}()

	var sleep time.Duration

	for {
		glog.V(5).Info("notify: fetching message ...")
		msg, err := c.reader.FetchMessage(ctx)

		if err != nil {
			glog.Errorf("notify: fetch from kafka err: %v", err)
			if err == context.Canceled {
				return
			}
			backoff(&sleep)
			select {
			case <-time.After(sleep):
				continue
			case <-ctx.Done():
				return
			}
		}

		sleep = 0
		// skip: bad format or too old.
		n := decodeKafkaMsg(&msg)
		if n == nil {
			if !c.commit(ctx, &msg, &sleep) {
				return
			}
			continue
		}

		if !c.save(ctx, n, &sleep) {
			return
		}
		if !c.commit(ctx, &msg, &sleep) {
			return
		}
	}
}

// save persists the notice with retry and pushes it to admins. A
// duplicate key means the message was already consumed before a failed
// commit; it is skipped without a push. Returns false when cancelled.
func (c *Consumer) save(ctx context.Context, n *wire.Notice, sleep *time.Duration) bool {
	for {
		glog.V(5).Infof("notify: saving notice, key: %s", n.Key)
		err := c.store.Save(ctx, n)
		if err == nil {
			*sleep = 0
			c.push(ctx, n)
			return true
		}
		if c.store.IsDupKeyError(err) {
			glog.V(5).Infof("notify: notice already consumed, key: %s", n.Key)
			return true
		}
		glog.Errorf("notify: save notice err: %v", err)
		if err == context.Canceled {
			return false
		}
		backoff(sleep)
		select {
		case <-time.After(*sleep):
		case <-ctx.Done():
			return false
		}
	}
}

func (c *Consumer) commit(ctx context.Context, msg *kafka.Message, sleep *time.Duration) bool {
	for {
		err := c.reader.CommitMessages(ctx, *msg)
		if err == nil {
			*sleep = 0
			return true
		}
		// If this message is not committed back, it will be fetched again
		// by the next FetchMessage(). Save() tolerates the duplicate.
		glog.Errorf("notify: commit to kafka err: %v", err)
		if err == context.Canceled {
			return false
		}
		backoff(sleep)
		select {
		case <-time.After(*sleep):
		case <-ctx.Done():
			return false
		}
	}
}

func (c *Consumer) push(ctx context.Context, n *wire.Notice) {
	if c.pusher == nil {
		return
	}
	uids, err := c.store.Audience(ctx)
	if err != nil {
		glog.Errorf("notify: resolve audience err: %v", err)
		return
	}
	if len(uids) > 0 {
		c.pusher.PushNoticeTo(uids, n)
	}
}

func backoff(d *time.Duration) {
	if *d == 0 {
		*d = BackoffMinInterval
	} else {
		*d = time.Duration(float64(*d) * BackoffMultiplier)
		if *d < BackoffMaxInterval {
			*d = d.Truncate(time.Millisecond)
		} else {
			*d = BackoffMinInterval
		}
	}
}

func decodeKafkaMsg(msg *kafka.Message) *wire.Notice {
	if len(msg.Value) > ValueMaxBytes {
		glog.Errorf("notify: kafka value out of limit, msg.Value: %s", string(msg.Value))
		return nil
	}
	var n wire.Notice
	if err := json.Unmarshal(msg.Value, &n); err != nil {
		glog.Errorf("notify: failed to unmarshal kafka msg value: `%s`, error: %v", msg.Value, err)
		return nil
	}
	if n.Key == "" {
		glog.Errorf("notify: notice without key, msg.Offset: %d", msg.Offset)
		return nil
	}
	if time.Since(msg.Time) > discardAfter {
		glog.Errorf("notify: ignore incoming message because too old, msg.Offset: %d, msg.Time: %s", msg.Offset, msg.Time)
		return nil
	}
	return &n
}
