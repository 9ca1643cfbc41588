package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombinedStatus(t *testing.T) {
	cases := []struct {
		name    string
		online  bool
		channel ConnState
		want    CombinedStatus
	}{
		{"offline dominates", false, StateConnected, StatusOffline},
		{"offline while connecting", false, StateConnecting, StatusOffline},
		{"connecting", true, StateConnecting, StatusConnecting},
		{"disconnected", true, StateDisconnected, StatusDisconnected},
		{"ready", true, StateConnected, StatusReady},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewConnectivity()
			c.SetOnline(tc.online)
			c.SetChannelState(tc.channel)
			assert.Equal(t, tc.want, c.Status())
			assert.Equal(t, tc.want == StatusReady, c.CanSend())
		})
	}
}

func TestConnectivityTransitions(t *testing.T) {
	c := NewConnectivity()
	c.SetChannelState(StateConnected)
	assert.True(t, c.CanSend())

	c.SetOnline(false)
	assert.Equal(t, StatusOffline, c.Status())

	c.SetOnline(true)
	assert.True(t, c.CanSend())
}
