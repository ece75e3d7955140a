// Package metrics declares the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Results recorded by ChatMessages.
const (
	ResultAccepted  = "accepted"
	ResultEmpty     = "empty"
	ResultMalformed = "malformed"
)

var (
	// WSClients - open WebSocket connections registered with the hub.
	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hxchat_ws_clients",
		Help: "Number of WebSocket clients currently registered",
	})

	// ChatMessages - inbound chat frames by outcome.
	ChatMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hxchat_chat_messages_total",
			Help: "Inbound chat messages by result",
		}, []string{"result"},
	)

	// Broadcasts - rendered message lists fanned out to clients.
	Broadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hxchat_broadcasts_total",
		Help: "Number of message list broadcasts",
	})

	// Todos - current length of the todo list.
	Todos = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hxchat_todos",
		Help: "Number of todos currently stored",
	})
)
