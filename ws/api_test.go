package ws

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	store_mock "github.com/bandseeking/bandseeking/store/mock"
	"github.com/bandseeking/bandseeking/wire"
)

func TestSendValidatesArguments(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	storeMock := store_mock.NewMockIMessageStore(mockCtrl)
	api := NewApi(storeMock)

	cases := []struct {
		name string
		req  *wire.SendReq
	}{
		{"empty peer", &wire.SendReq{Body: "hi"}},
		{"self peer", &wire.SendReq{PeerID: "alice", Body: "hi"}},
		{"empty body", &wire.SendReq{PeerID: "bob", Body: "   "}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := api.Send(context.Background(), "alice", tc.req)
			assert.Nil(t, resp)
			require.NotNil(t, err)
			assert.Equal(t, int32(ErrorCodeInvalidArguments), err.Code)
			assert.Equal(t, "send", err.Op)
		})
	}
}

func TestSendStoresMessage(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	storeMock := store_mock.NewMockIMessageStore(mockCtrl)
	api := NewApi(storeMock)

	stored := &wire.Message{ID: "m1", SenderID: "alice", RecipientID: "bob", Body: "hi"}
	storeMock.EXPECT().Insert(gomock.Any(), "alice", "bob", "hi").Return(stored, nil)

	resp, err := api.Send(context.Background(), "alice", &wire.SendReq{
		PeerID:    "bob",
		Body:      "  hi  ",
		ClientRef: "tmp-1",
	})
	require.Nil(t, err)
	assert.Equal(t, "tmp-1", resp.ClientRef)
	assert.Equal(t, stored, resp.Message)
}

func TestSendInternalError(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	storeMock := store_mock.NewMockIMessageStore(mockCtrl)
	api := NewApi(storeMock)

	storeMock.EXPECT().Insert(gomock.Any(), "alice", "bob", "hi").Return(nil, errors.New("db gone"))

	resp, err := api.Send(context.Background(), "alice", &wire.SendReq{PeerID: "bob", Body: "hi", ClientRef: "tmp-2"})
	assert.Nil(t, resp)
	require.NotNil(t, err)
	assert.Equal(t, int32(ErrorCodeInternal), err.Code)
	assert.Equal(t, "tmp-2", err.Ref)

	interceptError(err)
	assert.Equal(t, []string{"temp storage error"}, err.Params)
}

func TestHistoryRequiresPeer(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	storeMock := store_mock.NewMockIMessageStore(mockCtrl)
	api := NewApi(storeMock)

	resp, err := api.History(context.Background(), "alice", &wire.HistoryReq{})
	assert.Nil(t, resp)
	require.NotNil(t, err)
	assert.Equal(t, int32(ErrorCodeInvalidArguments), err.Code)
}

func TestHistoryFetchesConversation(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	storeMock := store_mock.NewMockIMessageStore(mockCtrl)
	api := NewApi(storeMock)

	msgs := []*wire.Message{{ID: "m1"}, {ID: "m2"}}
	storeMock.EXPECT().FetchConversation(gomock.Any(), "alice", "bob").Return(msgs, nil)

	resp, err := api.History(context.Background(), "alice", &wire.HistoryReq{PeerID: "bob"})
	require.Nil(t, err)
	assert.Equal(t, msgs, resp.Messages)
}

func TestSetReadChanged(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	storeMock := store_mock.NewMockIMessageStore(mockCtrl)
	api := NewApi(storeMock)

	updated := &wire.Message{ID: "m1", SenderID: "alice", RecipientID: "bob", Read: true}
	storeMock.EXPECT().SetRead(gomock.Any(), "m1", "bob").Return(updated, true, nil)

	resp, msg, err := api.SetRead(context.Background(), "bob", &wire.SetReadReq{MessageID: "m1"})
	require.Nil(t, err)
	assert.True(t, resp.Changed)
	assert.Equal(t, updated, msg)
}

func TestSetReadIdempotent(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	storeMock := store_mock.NewMockIMessageStore(mockCtrl)
	api := NewApi(storeMock)

	storeMock.EXPECT().SetRead(gomock.Any(), "m1", "bob").Return(nil, false, nil)

	resp, msg, err := api.SetRead(context.Background(), "bob", &wire.SetReadReq{MessageID: "m1"})
	require.Nil(t, err)
	assert.False(t, resp.Changed)
	assert.Nil(t, msg, "no push when nothing changed")
}

func TestSetDeliveredChanged(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	storeMock := store_mock.NewMockIMessageStore(mockCtrl)
	api := NewApi(storeMock)

	updated := &wire.Message{ID: "m1", SenderID: "alice", RecipientID: "bob", Delivered: true}
	storeMock.EXPECT().SetDelivered(gomock.Any(), "m1", "bob").Return(updated, true, nil)

	resp, msg, err := api.SetDelivered(context.Background(), "bob", &wire.SetDeliveredReq{MessageID: "m1"})
	require.Nil(t, err)
	assert.True(t, resp.Changed)
	assert.Equal(t, updated, msg)
}

func TestStatsCountUnread(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	storeMock := store_mock.NewMockIMessageStore(mockCtrl)
	api := NewApi(storeMock)

	storeMock.EXPECT().CountUnread(gomock.Any(), "bob").Return(int64(7), nil)

	resp, err := api.Stats(context.Background(), "bob", &wire.StatsReq{CountUnread: true})
	require.Nil(t, err)
	assert.Equal(t, int64(7), resp.UnreadCount)
}

func TestValidateBroadcast(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	storeMock := store_mock.NewMockIMessageStore(mockCtrl)
	api := NewApi(storeMock)

	ok := &wire.BroadcastReq{
		PeerID: "alice",
		Ping:   wire.StatusPing{MessageID: "m1", Status: wire.StatusRead},
	}
	assert.Nil(t, api.ValidateBroadcast("bob", ok))

	cases := []struct {
		name string
		req  *wire.BroadcastReq
	}{
		{"empty peer", &wire.BroadcastReq{Ping: wire.StatusPing{MessageID: "m1", Status: wire.StatusRead}}},
		{"self peer", &wire.BroadcastReq{PeerID: "bob", Ping: wire.StatusPing{MessageID: "m1", Status: wire.StatusRead}}},
		{"empty message id", &wire.BroadcastReq{PeerID: "alice", Ping: wire.StatusPing{Status: wire.StatusRead}}},
		{"bad status", &wire.BroadcastReq{PeerID: "alice", Ping: wire.StatusPing{MessageID: "m1", Status: "teleported"}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := api.ValidateBroadcast("bob", tc.req)
			require.NotNil(t, err)
			assert.Equal(t, int32(ErrorCodeInvalidArguments), err.Code)
		})
	}
}
