package ws

import (
	"sort"
	"sync"
)

// Session identifies one live websocket connection.
type Session struct {
	UID        string `json:"uid"`
	SID        string `json:"sid"`
	CreateTime int64  `json:"create_time"`
	IP         string `json:"ip"`
}

// memory handler store for local sessions.
type HandlerStore struct {
	sync.RWMutex
	handlers map[string]*Handler
}

func (hs *HandlerStore) get(sid string) *Handler {
	hs.RLock()
	h := hs.handlers[sid]
	hs.RUnlock()
	return h
}

func (hs *HandlerStore) del(sid string) bool {
	hs.Lock()
	defer hs.Unlock()
	if _, ok := hs.handlers[sid]; ok {
		delete(hs.handlers, sid)
		return true
	}
	return false
}

func (hs *HandlerStore) add(handler *Handler) {
	hs.Lock()
	sid := handler.session.SID
	hs.handlers[sid] = handler
	hs.Unlock()
}

func (hs *HandlerStore) getByUid(uid string) []*Handler {
	hs.RLock()
	defer hs.RUnlock()

	var out []*Handler
	for _, h := range hs.handlers {
		if h.session.UID == uid {
			out = append(out, h)
		}
	}
	return out
}

// getByChannel returns the handlers currently subscribed to a
// conversation channel.
func (hs *HandlerStore) getByChannel(channel string) []*Handler {
	hs.RLock()
	defer hs.RUnlock()

	var out []*Handler
	for _, h := range hs.handlers {
		if h.subscribedChannel() == channel {
			out = append(out, h)
		}
	}
	return out
}

// getOverQuota returns a user's oldest sessions beyond the per-user
// quota, ordered by create time ascending.
func (hs *HandlerStore) getOverQuota(uid string, quota int) []*Handler {
	slice := hs.getByUid(uid)

	n := len(slice) - quota
	if n <= 0 {
		return nil
	}

	sort.Slice(slice, func(i, j int) bool {
		return slice[i].session.CreateTime < slice[j].session.CreateTime
	})

	return slice[:n]
}

func (hs *HandlerStore) count() int {
	hs.RLock()
	defer hs.RUnlock()
	return len(hs.handlers)
}

func (hs *HandlerStore) close() {
	hs.RLock()
	defer hs.RUnlock()
	for _, h := range hs.handlers {
		h.close(ServerStop)
	}
}
