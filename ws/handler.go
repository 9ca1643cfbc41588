package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/bandseeking/bandseeking/wire"
)

type SessionError int

const (
	ReadError  SessionError = 1
	WriteError SessionError = 2
	PingError  SessionError = 3
	BadRequest SessionError = 4
	ServerStop SessionError = 5
	KickedOff  SessionError = 6
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 3 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	// Recommend configure nginx with `keep-alive_timeout` >= 65s.
	pingPeriod = 20 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 25 * time.Second

	// websocket max message size to read.
	readLimit = 8192

	// Sustained message sends per second per session, with burst.
	sendRateLimit = 1
	sendRateBurst = 5
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Fix error: request origin not allowed by Upgrader.CheckOrigin
	CheckOrigin: func(r *http.Request) bool {
		// When the node is behind nginx: host=ws-backend, see dev/nginx.conf.
		// TODO: possible SECURITY LEAK.
		return true
	},
}

// Handler manages an active connection to an end user.
// Every new websocket connection creates a new session.
type Handler struct {
	sync.Mutex

	api *MsgApi
	hub *Hub

	session *Session
	conn    *websocket.Conn

	dataChan chan *SessionData

	// Active conversation channel, empty until the first subscribe.
	channel string

	sendLimiter *rate.Limiter

	closing bool
}

// SessionData is the data structure for `dataChan`.
type SessionData struct {
	Error     SessionError   `json:"error,omitempty"`
	ServerMsg *wire.ServerMsg `json:"resp,omitempty"`
}

func (h *Handler) String() string {
	out, _ := json.Marshal(h.session)
	return string(out)
}

func (h *Handler) subscribedChannel() string {
	h.Lock()
	defer h.Unlock()
	return h.channel
}

func (h *Handler) setChannel(channel string) {
	h.Lock()
	h.channel = channel
	h.Unlock()
}

func (h *Handler) close(cause SessionError) {
	h.Lock()
	defer h.Unlock()
	if h.closing {
		return
	}

	h.closing = true

	h.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = h.conn.WriteMessage(websocket.CloseMessage, []byte{})
	h.conn.Close()

	close(h.dataChan)

	if cause != ServerStop {
		glog.V(5).Infof("session closed, cause: %d, %s", cause, h)
		// Ask the hub to remove this handler.
		h.hub.delHandler(h.session.SID)
	}
}

func (h *Handler) appendDataChan(v *SessionData) {
	h.Lock()
	defer h.Unlock()
	if !h.closing {
		h.dataChan <- v
	}
}

func sendServerMsg(conn *websocket.Conn, msg *wire.ServerMsg) error {
	out, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, out)
}

func (h *Handler) replyError(err *wire.ErrorInfo) {
	interceptError(err)
	h.appendDataChan(&SessionData{ServerMsg: &wire.ServerMsg{Error: err}})
}

func (h *Handler) recvLoop() {
	defer func() { glog.V(5).Infof("recvLoop(): exited, session: %s", h.String()) }()

	h.conn.SetReadLimit(readLimit)
	h.conn.SetReadDeadline(time.Now().Add(pongWait))
	h.conn.SetPongHandler(func(s string) error {
		h.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for !h.closing {
		msgType, msg, err := h.conn.ReadMessage()
		if err != nil {
			glog.Errorf("recvLoop(): read error: %v", err)
			h.appendDataChan(&SessionData{Error: ReadError})
			return
		}

		glog.V(5).Infof("recvLoop(): incoming client message: %v", string(msg))

		if msgType != websocket.TextMessage {
			glog.Errorf("recvLoop(): unexpected message type: %d", msgType)
			h.appendDataChan(&SessionData{ServerMsg: &wire.ServerMsg{
				Error: newInvalidArgumentError("", "", "websocket only supports TextMessage"),
			}})
			h.appendDataChan(&SessionData{Error: BadRequest})
			return
		}

		req := wire.ClientMsg{}
		if err := json.Unmarshal(msg, &req); err != nil {
			glog.Errorf("recvLoop(): message error: msg: %s, err: %v", string(msg), err)
			h.appendDataChan(&SessionData{ServerMsg: &wire.ServerMsg{
				Error: newInvalidArgumentError("", "", fmt.Sprintf("marshal error: %v", err)),
			}})
			h.appendDataChan(&SessionData{Error: BadRequest})
			return
		}

		h.dispatch(&req)
	}
}

func (h *Handler) dispatch(req *wire.ClientMsg) {
	uid := h.session.UID

	if v := req.Subscribe; v != nil {
		if v.PeerID == "" || v.PeerID == uid {
			h.replyError(newInvalidArgumentError("subscribe", "", "peer_id: required, must not be self"))
			return
		}
		channel := wire.ConversationChannel(uid, v.PeerID)
		h.setChannel(channel)
		glog.V(5).Infof("session subscribed, channel: %s, session: %s", channel, h.String())
		h.appendDataChan(&SessionData{ServerMsg: &wire.ServerMsg{
			Subscribed: &wire.SubscribeResp{Channel: channel},
		}})
	} else if v := req.Send; v != nil {
		if !h.sendLimiter.Allow() {
			messagesThrottled.Inc()
			h.replyError(newRateLimitError("send", v.ClientRef))
			return
		}
		resp, err := h.api.Send(context.Background(), uid, v)
		if err != nil {
			glog.Errorf("dispatch(): Send error: %+v", err)
			h.replyError(err)
			return
		}
		messagesSent.Inc()
		h.appendDataChan(&SessionData{ServerMsg: &wire.ServerMsg{Sent: resp}})
		h.hub.pushInserted(resp.Message)
	} else if v := req.History; v != nil {
		resp, err := h.api.History(context.Background(), uid, v)
		if err != nil {
			glog.Errorf("dispatch(): History error: %+v", err)
			h.replyError(err)
			return
		}
		h.appendDataChan(&SessionData{ServerMsg: &wire.ServerMsg{History: resp}})
	} else if v := req.SetRead; v != nil {
		resp, updated, err := h.api.SetRead(context.Background(), uid, v)
		if err != nil {
			glog.Errorf("dispatch(): SetRead error: %+v", err)
			h.replyError(err)
			return
		}
		h.appendDataChan(&SessionData{ServerMsg: &wire.ServerMsg{SetRead: resp}})
		if updated != nil {
			h.hub.pushUpdated(updated)
		}
	} else if v := req.SetDelivered; v != nil {
		resp, updated, err := h.api.SetDelivered(context.Background(), uid, v)
		if err != nil {
			glog.Errorf("dispatch(): SetDelivered error: %+v", err)
			h.replyError(err)
			return
		}
		h.appendDataChan(&SessionData{ServerMsg: &wire.ServerMsg{SetDelivered: resp}})
		if updated != nil {
			h.hub.pushUpdated(updated)
		}
	} else if v := req.Broadcast; v != nil {
		if err := h.api.ValidateBroadcast(uid, v); err != nil {
			glog.Errorf("dispatch(): Broadcast error: %+v", err)
			h.replyError(err)
			return
		}
		h.hub.pushPing(uid, v)
	} else if v := req.Stats; v != nil {
		resp, err := h.api.Stats(context.Background(), uid, v)
		if err != nil {
			glog.Errorf("dispatch(): Stats error: %+v", err)
			h.replyError(err)
			return
		}
		h.appendDataChan(&SessionData{ServerMsg: &wire.ServerMsg{Stats: resp}})
	} else {
		glog.Errorf("dispatch(): unsupported request: %+v", req)
		h.appendDataChan(&SessionData{ServerMsg: &wire.ServerMsg{
			Error: newInvalidArgumentError("", "", "unsupported request"),
		}})
		h.appendDataChan(&SessionData{Error: BadRequest})
	}
}

func (h *Handler) sendLoop() {
	pingTicker := time.NewTicker(pingPeriod)
	defer func() {
		pingTicker.Stop()
		glog.V(5).Infof("sendLoop(): exited, session: %s", h.String())
	}()

	for {
		select {
		case v, ok := <-h.dataChan:
			if !ok { // chan was closed
				h.conn.Close()
				glog.V(5).Infof("sendLoop(): data chan closed, session: %s", h.String())
				return
			}

			if glog.V(5) {
				dataJson, _ := json.Marshal(v)
				logValue := string(dataJson)
				if len(logValue) > 100 {
					logValue = logValue[:100] + " ..."
				}
				glog.Infof("sendLoop(), get from data chan, value: %s, session: %s", logValue, h.String())
			}

			if v.Error > 0 {
				h.close(v.Error)
				return
			} else if v.ServerMsg == nil {
				// should not happen.
				panic(fmt.Sprintf("sendLoop(), unknown data from dataChan: %#+v", v))
			}

			if err := sendServerMsg(h.conn, v.ServerMsg); err != nil {
				glog.Errorf("sendLoop(), error write message. session: %s, resp: %+v, err: %v",
					h.String(), v.ServerMsg, err)
				h.appendDataChan(&SessionData{Error: WriteError})
				return
			}
			if v.ServerMsg.Kickoff {
				h.close(KickedOff)
			}
		case <-pingTicker.C:
			h.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := h.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				glog.Errorf("sendLoop(), error write ping message. session: %s, err: %v", h, err)
				h.appendDataChan(&SessionData{Error: PingError})
				return
			}
		}
	}
}
