package chat

import (
	"go.etcd.io/bbolt"

	"github.com/bandseeking/bandseeking/wire"
)

var draftBucket = []byte("drafts")

// DraftStore persists unsent message text per conversation, so a failed
// or gated submit never silently drops what the user typed, even across
// a restart. Keys are canonical conversation channel names.
type DraftStore struct {
	db *bbolt.DB
}

// OpenDraftStore opens (or creates) the bbolt file at path.
func OpenDraftStore(path string) (*DraftStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(draftBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DraftStore{db: db}, nil
}

func (d *DraftStore) Close() error {
	return d.db.Close()
}

// Put stores the draft for the (self, peer) conversation. Empty text
// deletes the draft.
func (d *DraftStore) Put(selfID, peerID, text string) error {
	key := []byte(wire.ConversationChannel(selfID, peerID))
	return d.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(draftBucket)
		if text == "" {
			return b.Delete(key)
		}
		return b.Put(key, []byte(text))
	})
}

// Get returns the draft for the conversation, or "".
func (d *DraftStore) Get(selfID, peerID string) (string, error) {
	key := []byte(wire.ConversationChannel(selfID, peerID))
	var out string
	err := d.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(draftBucket).Get(key); v != nil {
			out = string(v)
		}
		return nil
	})
	return out, err
}

// Delete drops the draft for the conversation.
func (d *DraftStore) Delete(selfID, peerID string) error {
	key := []byte(wire.ConversationChannel(selfID, peerID))
	return d.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(draftBucket).Delete(key)
	})
}
