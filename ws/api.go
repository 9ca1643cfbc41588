package ws

import (
	"context"

	"github.com/bandseeking/bandseeking/store"
	"github.com/bandseeking/bandseeking/wire"
)

const (
	ErrorCodeInvalidArguments  = 3
	ErrorCodeResourceExhausted = 8
	ErrorCodeInternal          = 13
)

// MsgApi serves websocket client requests against the message store.
type MsgApi struct {
	store store.IMessageStore
}

func NewApi(store store.IMessageStore) *MsgApi {
	return &MsgApi{store: store}
}

func (s *MsgApi) Send(ctx context.Context, uid string, req *wire.SendReq) (*wire.SendResp, *wire.ErrorInfo) {
	var errs []string

	if req.PeerID == "" {
		errs = append(errs, "peer_id: required")
	} else if req.PeerID == uid {
		errs = append(errs, "peer_id: cannot message yourself")
	}

	body, ok := store.ValidateBody(req.Body)
	if !ok {
		errs = append(errs, "body: must be non-empty valid UTF-8 within the size limit")
	}

	if len(errs) > 0 {
		return nil, newInvalidArgumentError("send", req.ClientRef, errs...)
	}

	msg, err := s.store.Insert(ctx, uid, req.PeerID, body)
	if err != nil {
		return nil, newInternalError("send", req.ClientRef, err.Error())
	}

	return &wire.SendResp{ClientRef: req.ClientRef, Message: msg}, nil
}

func (s *MsgApi) History(ctx context.Context, uid string, req *wire.HistoryReq) (*wire.HistoryResp, *wire.ErrorInfo) {
	if req.PeerID == "" {
		return nil, newInvalidArgumentError("history", "", "peer_id: required")
	}
	msgs, err := s.store.FetchConversation(ctx, uid, req.PeerID)
	if err != nil {
		return nil, newInternalError("history", "", err.Error())
	}
	return &wire.HistoryResp{Messages: msgs}, nil
}

// SetRead marks a message read on behalf of its recipient. The store
// enforces that only the recipient can flip the flag, and that the update
// happens at most once.
func (s *MsgApi) SetRead(ctx context.Context, uid string, req *wire.SetReadReq) (*wire.SetReadResp, *wire.Message, *wire.ErrorInfo) {
	if req.MessageID == "" {
		return nil, nil, newInvalidArgumentError("set_read", "", "message_id: required")
	}
	msg, changed, err := s.store.SetRead(ctx, req.MessageID, uid)
	if err != nil {
		return nil, nil, newInternalError("set_read", req.MessageID, err.Error())
	}
	resp := &wire.SetReadResp{MessageID: req.MessageID, Changed: changed}
	if !changed {
		return resp, nil, nil
	}
	return resp, msg, nil
}

func (s *MsgApi) SetDelivered(ctx context.Context, uid string, req *wire.SetDeliveredReq) (*wire.SetDeliveredResp, *wire.Message, *wire.ErrorInfo) {
	if req.MessageID == "" {
		return nil, nil, newInvalidArgumentError("set_delivered", "", "message_id: required")
	}
	msg, changed, err := s.store.SetDelivered(ctx, req.MessageID, uid)
	if err != nil {
		return nil, nil, newInternalError("set_delivered", req.MessageID, err.Error())
	}
	resp := &wire.SetDeliveredResp{MessageID: req.MessageID, Changed: changed}
	if !changed {
		return resp, nil, nil
	}
	return resp, msg, nil
}

func (s *MsgApi) Stats(ctx context.Context, uid string, req *wire.StatsReq) (*wire.StatsResp, *wire.ErrorInfo) {
	resp := &wire.StatsResp{}
	if req.CountUnread {
		n, err := s.store.CountUnread(ctx, uid)
		if err != nil {
			return nil, newInternalError("stats", "", err.Error())
		}
		resp.UnreadCount = n
	}
	return resp, nil
}

// ValidateBroadcast checks a status relay request. Broadcasts never touch
// the store so validation is all there is to do server side.
func (s *MsgApi) ValidateBroadcast(uid string, req *wire.BroadcastReq) *wire.ErrorInfo {
	var errs []string

	if req.PeerID == "" {
		errs = append(errs, "peer_id: required")
	} else if req.PeerID == uid {
		errs = append(errs, "peer_id: cannot broadcast to yourself")
	}
	if req.Ping.MessageID == "" {
		errs = append(errs, "ping.message_id: required")
	}
	if !req.Ping.Status.Valid() {
		errs = append(errs, "ping.status: unknown status")
	}

	if len(errs) > 0 {
		return newInvalidArgumentError("broadcast", req.Ping.MessageID, errs...)
	}
	return nil
}

func newInvalidArgumentError(op, ref string, errs ...string) *wire.ErrorInfo {
	return &wire.ErrorInfo{
		Code:   ErrorCodeInvalidArguments,
		Op:     op,
		Ref:    ref,
		Params: errs,
	}
}

func newInternalError(op, ref, err string) *wire.ErrorInfo {
	return &wire.ErrorInfo{
		Code:   ErrorCodeInternal,
		Op:     op,
		Ref:    ref,
		Params: []string{err},
	}
}

func newRateLimitError(op, ref string) *wire.ErrorInfo {
	return &wire.ErrorInfo{
		Code:   ErrorCodeResourceExhausted,
		Op:     op,
		Ref:    ref,
		Params: []string{"too many requests, slow down"},
	}
}

// interceptError hides storage internals from clients.
func interceptError(err *wire.ErrorInfo) {
	if err.Code == ErrorCodeInternal {
		err.Params = []string{"temp storage error"}
	}
}
