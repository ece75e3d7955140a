// Package server defines shared message payload types and utility helpers that
// are reused across client and hub logic.
package server

import (
	"strings"

	"github.com/Tyrowin/hxchat/internal/store"
)

// BroadcastMessage is a validated chat message on its way to the hub,
// together with the client that sent it.
type BroadcastMessage struct {
	Sender  *Client
	Message store.ChatMessage
}

// MessageRenderer renders the full chat history into the fragment that is
// pushed to every client.
type MessageRenderer interface {
	MessageList(messages []store.ChatMessage) ([]byte, error)
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
