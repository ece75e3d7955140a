// Package server manages individual WebSocket clients, handling read/write
// pumps, payload decoding, and lifecycle control for each connection.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/hxchat/internal/log"
	"github.com/Tyrowin/hxchat/internal/metrics"
	"github.com/Tyrowin/hxchat/internal/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	sendBufferSize = 256
)

// Client is one open WebSocket connection. It is Open while registered with
// the hub and Closed once unregistered; there is no way back.
type Client struct {
	conn           *websocket.Conn
	send           chan []byte
	hub            *Hub
	addr           string
	closed         bool
	maxMessageSize int64
}

// NewClient creates a new Client for conn. addr is used for logging only.
func NewClient(conn *websocket.Conn, hub *Hub, addr string, maxMessageSize int64) *Client {
	if maxMessageSize <= 0 {
		maxMessageSize = defaultMaxMessageSize
	}
	if conn != nil {
		conn.SetReadLimit(maxMessageSize)
	}

	return &Client{
		conn:           conn,
		send:           make(chan []byte, sendBufferSize),
		hub:            hub,
		addr:           addr,
		closed:         false,
		maxMessageSize: maxMessageSize,
	}
}

// GetSendChan returns the client's send channel for reading outgoing messages.
func (c *Client) GetSendChan() <-chan []byte {
	return c.send
}

// setupReadConnection configures read deadlines and pong handler for the WebSocket connection
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Error().Err(err).Str("addr", c.addr).Msg("error setting initial read deadline")
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Error().Err(err).Str("addr", c.addr).Msg("error setting read deadline in pong handler")
		}
		return nil
	})
}

// handleReadError logs the read error and reports whether the read loop
// should stop. Every read error is final for a gorilla connection.
func (c *Client) handleReadError(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		log.Warn().Str("addr", c.addr).Int64("limit", c.maxMessageSize).Msg("message exceeded maximum size")
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived):
		log.Debug().Str("addr", c.addr).Err(err).Msg("client disconnected")
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		log.Debug().Str("addr", c.addr).Err(err).Msg("client connection closed")
	case websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig):
		log.Warn().Str("addr", c.addr).Err(err).Msg("unexpected WebSocket close")
	default:
		log.Error().Str("addr", c.addr).Err(err).Msg("WebSocket read error")
	}
	return true
}

// decodeMessage parses a raw frame into a chat message. Unknown fields are
// ignored; the htmx ws extension sends its own HEADERS field.
func decodeMessage(raw []byte) (store.ChatMessage, error) {
	var msg store.ChatMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return store.ChatMessage{}, err
	}
	return msg, nil
}

// processMessage decodes a raw frame and hands valid messages to the hub.
// It returns true if the message was accepted.
func (c *Client) processMessage(rawMessage []byte) bool {
	msg, err := decodeMessage(rawMessage)
	if err != nil {
		metrics.ChatMessages.WithLabelValues(metrics.ResultMalformed).Inc()
		log.Warn().Str("addr", c.addr).Err(err).Msg("dropping malformed chat message")
		return false
	}

	if !msg.Valid() {
		metrics.ChatMessages.WithLabelValues(metrics.ResultEmpty).Inc()
		log.Debug().Str("addr", c.addr).Msg("dropping chat message with empty name or message")
		return false
	}

	log.Info().Str("addr", c.addr).Str("name", msg.Name).Str("message", msg.Message).Msg("received message")
	if !c.hub.Broadcast(BroadcastMessage{Sender: c, Message: msg}) {
		return false
	}
	metrics.ChatMessages.WithLabelValues(metrics.ResultAccepted).Inc()
	return true
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Error().Err(err).Str("addr", c.addr).Msg("error closing connection in readPump")
		}
	}()

	c.setupReadConnection()

	for {
		_, rawMessage, err := c.conn.ReadMessage()
		if c.handleReadError(err) {
			return
		}

		c.processMessage(rawMessage)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message, ok := <-c.send:
		return c.handleMessage(message, ok)
	case <-ticker.C:
		return c.handlePing()
	case <-c.hub.ctx.Done():
		return false
	}
}

// closeConnection safely closes the WebSocket connection with proper error handling
func (c *Client) closeConnection() {
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		log.Error().Err(err).Str("addr", c.addr).Msg("error closing connection in writePump")
	}
}

// handleMessage processes outgoing messages and returns false if the connection should be closed
func (c *Client) handleMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		log.Error().Err(err).Str("addr", c.addr).Msg("error setting write deadline")
		return false
	}

	if !ok {
		return c.writeCloseMessage()
	}

	return c.writeTextMessage(message)
}

// writeCloseMessage sends a close message to the client
func (c *Client) writeCloseMessage() bool {
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
		log.Error().Err(err).Str("addr", c.addr).Msg("error writing close message")
	}
	return false
}

// writeTextMessage writes one rendered fragment as its own text frame. Each
// fragment replaces the whole message list, so frames are never joined.
func (c *Client) writeTextMessage(message []byte) bool {
	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		if !isExpectedCloseError(err) {
			log.Error().Err(err).Str("addr", c.addr).Msg("error writing message")
		}
		return false
	}
	return true
}

// handlePing sends a ping message to keep the connection alive
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		log.Error().Err(err).Str("addr", c.addr).Msg("error setting write deadline for ping")
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		log.Error().Err(err).Str("addr", c.addr).Msg("error writing ping message")
		return false
	}
	return true
}
