package ws

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/pborman/uuid"
	"golang.org/x/time/rate"

	"github.com/bandseeking/bandseeking/auth"
	"github.com/bandseeking/bandseeking/store"
	"github.com/bandseeking/bandseeking/wire"
)

// Conf carries the tunables of the websocket endpoint.
type Conf struct {
	// Max live sessions per user. Oldest sessions are kicked off first.
	SessionQuota int
}

// Hub works as a hub that manages and serves sessions.
type Hub struct {
	conf       *Conf
	msgApi     *MsgApi
	authClient auth.Client
	hstore     *HandlerStore
	online     bool
}

// NewHub creates a `Hub`.
func NewHub(authClient auth.Client, msgStore store.IMessageStore, conf *Conf) *Hub {
	return &Hub{
		conf:       conf,
		msgApi:     NewApi(msgStore),
		authClient: authClient,
		hstore: &HandlerStore{
			handlers: make(map[string]*Handler),
		},
	}
}

// Run blocks until ctx is cancelled, then closes every live session.
func (h *Hub) Run(ctx context.Context, stopDoneNotifyC chan<- struct{}) {
	h.online = true

	<-ctx.Done()
	h.online = false

	glog.Infof("close connections ...")
	h.hstore.close()
	glog.Infof("close connections done")
	stopDoneNotifyC <- struct{}{}
}

// ServeHTTP handles websocket requests from the peer.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.online {
		http.Error(w, "This node is temporarily offline", http.StatusServiceUnavailable)
		return
	}

	uid, err := h.authClient.Auth(r)
	if err != nil {
		glog.Errorf("ServeHTTP(): authenticate error: %v", err)
		http.Error(w, "Authenticate error", http.StatusForbidden)
		return
	}

	sess := &Session{
		UID:        uid,
		SID:        strings.ReplaceAll(uuid.New(), "-", ""),
		CreateTime: time.Now().Unix(),
		IP:         getRemoteIP(r),
	}

	// If the upgrade fails, then Upgrade replies to the client with an HTTP error response.
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Errorf("ServeHTTP(): upgrader.Upgrade error, uid: %s, err: %s", uid, err)
		return
	}

	// NOTE: after upgrade, `w.WriteHeader(...)` causes error `response.Write on hijacked connection`.

	handler := &Handler{
		dataChan:    make(chan *SessionData, 16),
		session:     sess,
		conn:        conn,
		api:         h.msgApi,
		hub:         h,
		sendLimiter: rate.NewLimiter(sendRateLimit, sendRateBurst),
	}

	conn.SetCloseHandler(func(code int, text string) error {
		glog.Infof("session closed by peer, session: %s, code: %d, text: %s", handler, code, text)
		h.delHandler(sess.SID)
		return nil
	})

	h.addHandler(handler)

	go handler.recvLoop()
	go handler.sendLoop()
}

func (h *Hub) addHandler(handler *Handler) {
	h.hstore.add(handler)
	liveSessions.Set(float64(h.hstore.count()))
	h.kickoffOverQuota(handler.session.UID)
}

func (h *Hub) delHandler(sid string) {
	if h.hstore.del(sid) {
		liveSessions.Set(float64(h.hstore.count()))
	}
}

// kickoffOverQuota closes a user's oldest sessions beyond the quota.
func (h *Hub) kickoffOverQuota(uid string) {
	for _, s := range h.hstore.getOverQuota(uid, h.conf.SessionQuota) {
		glog.V(5).Infof("kickoff local session: %s", s)
		s.appendDataChan(&SessionData{ServerMsg: &wire.ServerMsg{Kickoff: true}})
		h.hstore.del(s.session.SID)
	}
	liveSessions.Set(float64(h.hstore.count()))
}

// pushInserted fans a freshly stored message out to every live session
// subscribed to its conversation channel, the sender's own included.
func (h *Hub) pushInserted(msg *wire.Message) {
	channel := wire.ConversationChannel(msg.SenderID, msg.RecipientID)
	for _, s := range h.hstore.getByChannel(channel) {
		s.appendDataChan(&SessionData{ServerMsg: &wire.ServerMsg{Inserted: msg}})
	}
}

// pushUpdated fans a flag change (read, delivered) out to the
// conversation channel.
func (h *Hub) pushUpdated(msg *wire.Message) {
	channel := wire.ConversationChannel(msg.SenderID, msg.RecipientID)
	for _, s := range h.hstore.getByChannel(channel) {
		s.appendDataChan(&SessionData{ServerMsg: &wire.ServerMsg{Updated: msg}})
	}
}

// PushNoticeTo delivers a moderation notice to every live session of
// the given users. The notify consumer resolves the audience.
func (h *Hub) PushNoticeTo(uids []string, n *wire.Notice) {
	for _, uid := range uids {
		for _, s := range h.hstore.getByUid(uid) {
			s.appendDataChan(&SessionData{ServerMsg: &wire.ServerMsg{Notice: n}})
		}
	}
}

// pushPing relays an ephemeral status ping to the peer's subscribed
// sessions only. The broadcaster already knows its own state.
func (h *Hub) pushPing(uid string, req *wire.BroadcastReq) {
	channel := wire.ConversationChannel(uid, req.PeerID)
	ping := req.Ping
	for _, s := range h.hstore.getByChannel(channel) {
		if s.session.UID != req.PeerID {
			continue
		}
		s.appendDataChan(&SessionData{ServerMsg: &wire.ServerMsg{Ping: &ping}})
	}
}

func getRemoteIP(r *http.Request) string {
	ip := r.Header.Get("X-REAL-IP")
	if ip == "" {
		if ips := r.Header.Get("X-FORWARDED-FOR"); ips != "" {
			slice := strings.Split(ips, ",")
			for _, x := range slice {
				if x != "" {
					ip = x
				}
			}
		}
	}
	if ip == "" {
		ip, _, _ = net.SplitHostPort(r.RemoteAddr)
	}

	return ip
}
