package ws

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	liveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "bandseeking",
		Subsystem: "ws",
		Name:      "live_sessions",
		Help:      "Number of live websocket sessions.",
	})

	messagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bandseeking",
		Subsystem: "ws",
		Name:      "messages_sent_total",
		Help:      "Messages accepted and stored via the send op.",
	})

	messagesThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bandseeking",
		Subsystem: "ws",
		Name:      "messages_throttled_total",
		Help:      "Send ops rejected by the per-session rate limiter.",
	})
)
