package chat

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"github.com/bandseeking/bandseeking/wire"
)

const (
	wsWriteWait   = 3 * time.Second
	wsCallTimeout = 10 * time.Second
)

// WSBackend implements Backend over one websocket connection to the
// BandSeeking server. Writes are serialized through a send channel;
// request/response pairs are correlated by operation key, realtime
// pushes are routed to the currently subscribed Events.
type WSBackend struct {
	url    string
	header http.Header

	mu      sync.Mutex
	conn    *websocket.Conn
	sendC   chan *wire.ClientMsg
	done    chan struct{}
	waiters map[string]chan *wire.ServerMsg
	ev      Events
	evSet   bool
	closed  bool
}

// NewWSBackend prepares a backend for the given websocket URL. The
// header carries credentials, typically the auth cookie.
func NewWSBackend(url string, header http.Header) *WSBackend {
	return &WSBackend{
		url:     url,
		header:  header,
		waiters: make(map[string]chan *wire.ServerMsg),
	}
}

// Connect dials the server and starts the read/write pumps. Calling it
// again after a disconnect establishes a fresh connection with fresh
// pumps; a new Subscribe is required afterwards.
func (b *WSBackend) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, b.url, b.header)
	if err != nil {
		return fmt.Errorf("chat: dial %s: %w", b.url, err)
	}

	sendC := make(chan *wire.ClientMsg, 16)
	eventC := make(chan *wire.ServerMsg, 64)
	done := make(chan struct{})

	b.mu.Lock()
	b.conn = conn
	b.sendC = sendC
	b.done = done
	b.closed = false
	b.mu.Unlock()

	go b.readPump(conn, eventC, done)
	go b.writePump(conn, sendC, done)
	go b.eventLoop(eventC)
	return nil
}

// Close tears the connection down.
func (b *WSBackend) Close() error {
	b.mu.Lock()
	conn := b.conn
	b.conn = nil
	b.closed = true
	b.mu.Unlock()
	if conn == nil {
		return nil
	}
	_ = conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(wsWriteWait))
	return conn.Close()
}

func (b *WSBackend) readPump(conn *websocket.Conn, eventC chan *wire.ServerMsg, done chan struct{}) {
	defer func() {
		close(done)
		b.notifyState(StateDisconnected)
		b.failAllWaiters()
		close(eventC)
		_ = conn.Close()
	}()

	for {
		var msg wire.ServerMsg
		if err := conn.ReadJSON(&msg); err != nil {
			glog.V(5).Infof("chat: connection closed: %v", err)
			return
		}
		b.dispatch(&msg, eventC)
	}
}

// eventLoop delivers realtime pushes to the subscription handlers in
// arrival order, off the read pump. Handlers may issue calls (mark
// read, status pings) without deadlocking the reader.
func (b *WSBackend) eventLoop(eventC chan *wire.ServerMsg) {
	for msg := range eventC {
		ev, ok := b.events()
		if !ok {
			continue
		}
		switch {
		case msg.Inserted != nil:
			if ev.OnInsert != nil {
				ev.OnInsert(msg.Inserted)
			}
		case msg.Updated != nil:
			if ev.OnUpdate != nil {
				ev.OnUpdate(msg.Updated)
			}
		case msg.Ping != nil:
			if ev.OnPing != nil {
				ev.OnPing(*msg.Ping)
			}
		}
	}
}

func (b *WSBackend) writePump(conn *websocket.Conn, sendC chan *wire.ClientMsg, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case msg := <-sendC:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(msg); err != nil {
				glog.Errorf("chat: write: %v", err)
				_ = conn.Close()
				return
			}
		}
	}
}

// dispatch routes one inbound envelope either to a pending call waiter
// or to the subscription handlers.
func (b *WSBackend) dispatch(msg *wire.ServerMsg, eventC chan *wire.ServerMsg) {
	switch {
	case msg.Error != nil:
		b.resolve(opKey(msg.Error.Op, msg.Error.Ref), msg)
	case msg.Subscribed != nil:
		b.resolve(opKey("subscribe", ""), msg)
		b.notifyState(StateConnected)
	case msg.Sent != nil:
		b.resolve(opKey("send", msg.Sent.ClientRef), msg)
	case msg.History != nil:
		b.resolve(opKey("history", ""), msg)
	case msg.SetRead != nil:
		b.resolve(opKey("set_read", msg.SetRead.MessageID), msg)
	case msg.SetDelivered != nil:
		b.resolve(opKey("set_delivered", msg.SetDelivered.MessageID), msg)
	case msg.Stats != nil:
		b.resolve(opKey("stats", ""), msg)
	case msg.Inserted != nil, msg.Updated != nil, msg.Ping != nil:
		select {
		case eventC <- msg:
		default:
			glog.Warning("chat: event queue full, dropping push")
		}
	case msg.Kickoff:
		glog.Warning("chat: kicked off by server")
		_ = b.Close()
	default:
		glog.V(5).Infof("chat: unhandled server message: %+v", msg)
	}
}

func opKey(op, ref string) string { return op + ":" + ref }

func (b *WSBackend) resolve(key string, msg *wire.ServerMsg) {
	b.mu.Lock()
	ch, ok := b.waiters[key]
	if ok {
		delete(b.waiters, key)
	}
	b.mu.Unlock()
	if ok {
		ch <- msg
	} else {
		glog.V(5).Infof("chat: no waiter for %s", key)
	}
}

func (b *WSBackend) failAllWaiters() {
	b.mu.Lock()
	waiters := b.waiters
	b.waiters = make(map[string]chan *wire.ServerMsg)
	b.mu.Unlock()
	for _, ch := range waiters {
		close(ch)
	}
}

func (b *WSBackend) events() (Events, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ev, b.evSet
}

func (b *WSBackend) notifyState(s ConnState) {
	if ev, ok := b.events(); ok && ev.OnState != nil {
		ev.OnState(s)
	}
}

// enqueue hands req to the current connection's write pump.
func (b *WSBackend) enqueue(ctx context.Context, req *wire.ClientMsg) error {
	b.mu.Lock()
	sendC, done := b.sendC, b.done
	closed := b.closed || b.conn == nil
	b.mu.Unlock()
	if closed {
		return fmt.Errorf("chat: not connected")
	}
	select {
	case sendC <- req:
		return nil
	case <-done:
		return fmt.Errorf("chat: connection lost")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// call sends req and waits for the response registered under key. One
// outstanding call per key.
func (b *WSBackend) call(ctx context.Context, key string, req *wire.ClientMsg) (*wire.ServerMsg, error) {
	ch := make(chan *wire.ServerMsg, 1)

	b.mu.Lock()
	if b.closed || b.conn == nil {
		b.mu.Unlock()
		return nil, fmt.Errorf("chat: not connected")
	}
	if _, busy := b.waiters[key]; busy {
		b.mu.Unlock()
		return nil, fmt.Errorf("chat: %s already in flight", key)
	}
	b.waiters[key] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.waiters, key)
		b.mu.Unlock()
	}()

	if err := b.enqueue(ctx, req); err != nil {
		return nil, err
	}

	timer := time.NewTimer(wsCallTimeout)
	defer timer.Stop()

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("chat: connection lost")
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("chat: %s: server error %d: %v", key, resp.Error.Code, resp.Error.Params)
		}
		return resp, nil
	case <-timer.C:
		return nil, fmt.Errorf("chat: %s timed out", key)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// FetchMessages implements Backend.
func (b *WSBackend) FetchMessages(ctx context.Context, selfID, peerID string) ([]*wire.Message, error) {
	resp, err := b.call(ctx, opKey("history", ""), &wire.ClientMsg{History: &wire.HistoryReq{PeerID: peerID}})
	if err != nil {
		return nil, err
	}
	return resp.History.Messages, nil
}

// InsertMessage implements Backend.
func (b *WSBackend) InsertMessage(ctx context.Context, selfID, peerID, body string) (*wire.Message, error) {
	ref := NewTempID()
	resp, err := b.call(ctx, opKey("send", ref), &wire.ClientMsg{Send: &wire.SendReq{
		PeerID:    peerID,
		Body:      body,
		ClientRef: ref,
	}})
	if err != nil {
		return nil, err
	}
	return resp.Sent.Message, nil
}

// MarkRead implements Backend.
func (b *WSBackend) MarkRead(ctx context.Context, messageID string) error {
	_, err := b.call(ctx, opKey("set_read", messageID), &wire.ClientMsg{SetRead: &wire.SetReadReq{MessageID: messageID}})
	return err
}

// MarkDelivered implements Backend.
func (b *WSBackend) MarkDelivered(ctx context.Context, messageID string) error {
	_, err := b.call(ctx, opKey("set_delivered", messageID), &wire.ClientMsg{SetDelivered: &wire.SetDeliveredReq{MessageID: messageID}})
	return err
}

// Subscribe implements Backend. The connection carries one subscription
// at a time; subscribing replaces the previous routing targets, and the
// server replaces the session's pair on its side.
func (b *WSBackend) Subscribe(ctx context.Context, selfID, peerID string, ev Events) (Subscription, error) {
	b.mu.Lock()
	b.ev = ev
	b.evSet = true
	b.mu.Unlock()

	if ev.OnState != nil {
		ev.OnState(StateConnecting)
	}
	if _, err := b.call(ctx, opKey("subscribe", ""), &wire.ClientMsg{Subscribe: &wire.SubscribeReq{PeerID: peerID}}); err != nil {
		if ev.OnState != nil {
			ev.OnState(StateDisconnected)
		}
		return nil, err
	}
	return &wsSubscription{backend: b}, nil
}

// SendStatusPing implements Backend. Pings are fire-and-forget.
func (b *WSBackend) SendStatusPing(ctx context.Context, peerID string, ping wire.StatusPing) error {
	return b.enqueue(ctx, &wire.ClientMsg{Broadcast: &wire.BroadcastReq{PeerID: peerID, Ping: ping}})
}

// Stats fetches the unread count.
func (b *WSBackend) Stats(ctx context.Context) (*wire.StatsResp, error) {
	resp, err := b.call(ctx, opKey("stats", ""), &wire.ClientMsg{Stats: &wire.StatsReq{CountUnread: true}})
	if err != nil {
		return nil, err
	}
	return resp.Stats, nil
}

type wsSubscription struct {
	backend *WSBackend
	once    sync.Once
}

func (s *wsSubscription) Close() error {
	s.once.Do(func() {
		s.backend.mu.Lock()
		s.backend.ev = Events{}
		s.backend.evSet = false
		s.backend.mu.Unlock()
	})
	return nil
}
