package wire

// ClientMsg is the request envelope read from a chat client. Exactly one
// field is expected to be set.
type ClientMsg struct {
	Subscribe    *SubscribeReq    `json:"subscribe,omitempty"`
	Send         *SendReq         `json:"send,omitempty"`
	History      *HistoryReq      `json:"history,omitempty"`
	SetRead      *SetReadReq      `json:"set_read,omitempty"`
	SetDelivered *SetDeliveredReq `json:"set_delivered,omitempty"`
	Broadcast    *BroadcastReq    `json:"broadcast,omitempty"`
	Stats        *StatsReq        `json:"stats,omitempty"`
}

// ServerMsg is the response/push envelope written to a chat client.
type ServerMsg struct {
	Error *ErrorInfo `json:"error,omitempty"`

	Subscribed   *SubscribeResp    `json:"subscribed,omitempty"`
	Sent         *SendResp         `json:"sent,omitempty"`
	History      *HistoryResp      `json:"history,omitempty"`
	SetRead      *SetReadResp      `json:"set_read,omitempty"`
	SetDelivered *SetDeliveredResp `json:"set_delivered,omitempty"`
	Stats        *StatsResp        `json:"stats,omitempty"`

	// Realtime pushes, delivered to every live session subscribed to the
	// message's conversation channel.
	Inserted *Message    `json:"inserted,omitempty"`
	Updated  *Message    `json:"updated,omitempty"`
	Ping     *StatusPing `json:"ping,omitempty"`

	// Moderation notice pushed to admin sessions.
	Notice *Notice `json:"notice,omitempty"`

	Kickoff bool `json:"kickoff,omitempty"`
}

// Notice is a moderation event pushed to admin sessions: a venue report
// was filed or resolved.
type Notice struct {
	Key       string `json:"key"`
	Kind      string `json:"kind"`
	VenueID   uint   `json:"venue_id,omitempty"`
	ReportID  uint   `json:"report_id,omitempty"`
	Subject   string `json:"subject"`
	Body      string `json:"body,omitempty"`
	CreatedAt int64  `json:"created_at"` // unix milliseconds
}

// SubscribeReq switches the session's active conversation to the pair
// (self, peer). A session holds at most one subscription; subscribing to
// a new peer replaces the previous one.
type SubscribeReq struct {
	PeerID string `json:"peer_id"`
}

type SubscribeResp struct {
	Channel string `json:"channel"`
}

// SendReq persists a message to the subscribed peer. ClientRef is an
// opaque client-side id (the optimistic temp id) echoed back in SendResp
// so the sender can reconcile without waiting for the realtime echo.
type SendReq struct {
	PeerID    string `json:"peer_id"`
	Body      string `json:"body"`
	ClientRef string `json:"client_ref,omitempty"`
}

type SendResp struct {
	ClientRef string   `json:"client_ref,omitempty"`
	Message   *Message `json:"message"`
}

// HistoryReq loads the full conversation with PeerID, both directions,
// ascending by creation time.
type HistoryReq struct {
	PeerID string `json:"peer_id"`
}

type HistoryResp struct {
	Messages []*Message `json:"messages"`
}

type SetReadReq struct {
	MessageID string `json:"message_id"`
}

type SetReadResp struct {
	MessageID string `json:"message_id"`
	Changed   bool   `json:"changed"`
}

type SetDeliveredReq struct {
	MessageID string `json:"message_id"`
}

type SetDeliveredResp struct {
	MessageID string `json:"message_id"`
	Changed   bool   `json:"changed"`
}

// BroadcastReq relays a status ping to the peer's live sessions. The
// ping is ephemeral: nothing is written to storage.
type BroadcastReq struct {
	PeerID string     `json:"peer_id"`
	Ping   StatusPing `json:"ping"`
}

type StatsReq struct {
	CountUnread bool `json:"count_unread,omitempty"`
}

type StatsResp struct {
	UnreadCount int64 `json:"unread_count"`
}

// ErrorInfo is the boundary form of any server-side failure. Internal
// errors are masked before they reach a client. Op names the failed
// operation and Ref echoes its client_ref/message id, so clients can
// match an error to the request that caused it.
type ErrorInfo struct {
	Code   int32    `json:"code"`
	Op     string   `json:"op,omitempty"`
	Ref    string   `json:"ref,omitempty"`
	Params []string `json:"params,omitempty"`
}
