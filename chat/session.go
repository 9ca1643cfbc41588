package chat

import (
	"context"
	"errors"

	"github.com/golang/glog"

	"github.com/bandseeking/bandseeking/wire"
)

// ErrNotConnected is returned by Submit when the combined connectivity
// status is not ready. The drafted text is preserved.
var ErrNotConnected = errors.New("chat: not connected")

// Session ties the conversation view together: one peer, one channel,
// one message store, one status overlay, one connectivity monitor.
type Session struct {
	selfID string
	peerID string

	backend Backend
	Store   *Store
	Tracker *StatusTracker
	Conn    *Connectivity
	Channel *ChannelManager

	// Drafts may be nil; then failed text survives only in memory via
	// the error path.
	Drafts *DraftStore
}

// NewSession wires up a conversation view for (selfID, peerID). Drafts
// is optional.
func NewSession(backend Backend, selfID, peerID string, drafts *DraftStore) *Session {
	conn := NewConnectivity()
	s := &Session{
		selfID:  selfID,
		peerID:  peerID,
		backend: backend,
		Store:   NewStore(selfID, peerID),
		Tracker: NewStatusTracker(),
		Conn:    conn,
		Channel: NewChannelManager(backend, conn.SetChannelState),
		Drafts:  drafts,
	}
	return s
}

// Open loads history and subscribes to the realtime channel. Call Close
// when the view goes away or before opening a session for another peer.
func (s *Session) Open(ctx context.Context) error {
	if err := s.Channel.Open(ctx, s.selfID, s.peerID, s.Store, s.Tracker); err != nil {
		return err
	}
	if err := s.Store.LoadHistory(ctx, s.backend); err != nil {
		s.Channel.Close()
		return err
	}
	return nil
}

// Close releases the realtime channel.
func (s *Session) Close() {
	s.Channel.Close()
}

// Submit runs the send flow: composing -> sending -> {sent, failed}.
//
// Connectivity is evaluated here, at submit time. When gated, the draft
// is saved and ErrNotConnected returned; nothing is appended to the
// view. Otherwise the message is appended optimistically, the write is
// issued, and the optimistic entry is reconciled against the outcome.
// On success the persisted message id is returned; on failure the
// optimistic entry is removed, the temp id is returned with status
// failed, and the draft is kept for a manual retry.
func (s *Session) Submit(ctx context.Context, body string) (string, error) {
	if !s.Conn.CanSend() {
		s.saveDraft(body)
		return "", ErrNotConnected
	}

	tempID, err := s.Store.SendOptimistic(body)
	if err != nil {
		return "", err
	}
	s.Tracker.Set(tempID, wire.StatusSending)
	// The input is considered cleared from here on; the draft store
	// holds the text until the write resolves.
	s.saveDraft(body)

	persisted, err := s.backend.InsertMessage(ctx, s.selfID, s.peerID, body)
	if err != nil {
		glog.Errorf("chat: send to %s failed: %v", s.peerID, err)
		s.Store.Reconcile(tempID, nil)
		s.Tracker.Set(tempID, wire.StatusFailed)
		return tempID, err
	}

	s.Store.Reconcile(tempID, persisted)
	s.Tracker.Promote(tempID, persisted.ID)
	s.Tracker.Set(persisted.ID, wire.StatusSent)
	s.clearDraft()
	return persisted.ID, nil
}

// Draft returns the saved draft for this conversation, if any.
func (s *Session) Draft() string {
	if s.Drafts == nil {
		return ""
	}
	text, err := s.Drafts.Get(s.selfID, s.peerID)
	if err != nil {
		glog.V(5).Infof("chat: read draft: %v", err)
		return ""
	}
	return text
}

func (s *Session) saveDraft(body string) {
	if s.Drafts == nil {
		return
	}
	if err := s.Drafts.Put(s.selfID, s.peerID, body); err != nil {
		glog.V(5).Infof("chat: save draft: %v", err)
	}
}

func (s *Session) clearDraft() {
	if s.Drafts == nil {
		return
	}
	if err := s.Drafts.Delete(s.selfID, s.peerID); err != nil {
		glog.V(5).Infof("chat: clear draft: %v", err)
	}
}
