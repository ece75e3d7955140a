// Package server coordinates client registration, chat broadcast, and
// connection cleanup for the WebSocket chat room via the Hub type.
package server

import (
	"context"
	"sync"
	"time"

	"github.com/Tyrowin/hxchat/internal/log"
	"github.com/Tyrowin/hxchat/internal/metrics"
	"github.com/Tyrowin/hxchat/internal/store"
)

// Hub manages all WebSocket client connections. Every accepted chat message
// goes through its event loop, which appends it to the chat history, renders
// the history and fans the result out to all registered clients.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan BroadcastMessage
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}

	chat     *store.ChatStore
	renderer MessageRenderer
}

// NewHub creates a Hub that records messages in chat and renders broadcasts
// with renderer. Run must be started before clients are registered.
func NewHub(chat *store.ChatStore, renderer MessageRenderer) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan BroadcastMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		chat:       chat,
		renderer:   renderer,
	}
}

// Register hands a client to the hub, which starts its pumps. It returns
// false if the hub is shutting down.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Unregister removes a client from the hub. Safe to call after shutdown.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// Broadcast submits a chat message for storage and fan-out. It returns false
// if the hub is shutting down.
func (h *Hub) Broadcast(msg BroadcastMessage) bool {
	select {
	case h.broadcast <- msg:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) safeSend(client *Client, message []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic in safeSend")
		}
	}()

	// The read lock keeps unregister from closing client.send mid-send.
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.clients[client]
	if !exists || client.closed {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// Run starts the hub's main event loop, handling client registration,
// unregistration, and message broadcasting. It returns after Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				log.Warn().Msg("received nil client registration; skipping")
				continue
			}
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case broadcastMsg := <-h.broadcast:
			h.handleBroadcast(broadcastMsg)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mutex.Lock()
	client.closed = false
	h.clients[client] = true
	clientCount := len(h.clients)
	h.mutex.Unlock()

	metrics.WSClients.Set(float64(clientCount))
	log.Info().Str("addr", client.addr).Int("clients", clientCount).Msg("WebSocket connection opened")

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

func (h *Hub) removeClient(client *Client) {
	h.mutex.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mutex.Unlock()
		return
	}
	delete(h.clients, client)
	client.closed = true
	clientCount := len(h.clients)
	h.mutex.Unlock()

	close(client.send)
	metrics.WSClients.Set(float64(clientCount))
	log.Info().Str("addr", client.addr).Int("clients", clientCount).Msg("WebSocket connection closed")
}

// handleBroadcast stores the message, renders the whole history and sends it
// to every client, the sender included.
func (h *Hub) handleBroadcast(broadcastMsg BroadcastMessage) {
	history := h.chat.Append(broadcastMsg.Message)

	payload, err := h.renderer.MessageList(history)
	if err != nil {
		log.Error().Err(err).Msg("failed to render message list")
		return
	}

	clients := h.getClientSnapshot()
	event := log.Debug().Int("clients", len(clients)).Int("history", len(history))
	if broadcastMsg.Sender != nil {
		event = event.Str("from", broadcastMsg.Sender.addr)
	}
	event.Msg("broadcasting message list")

	clientsToRemove := h.broadcastToClients(clients, payload)
	h.removeFailedClients(clientsToRemove)
	metrics.Broadcasts.Inc()
}

// getClientSnapshot returns a thread-safe snapshot of all current clients
func (h *Hub) getClientSnapshot() []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

// broadcastToClients sends payload to every client and returns the ones that
// could not take it.
func (h *Hub) broadcastToClients(clients []*Client, payload []byte) []*Client {
	var clientsToRemove []*Client

	for _, client := range clients {
		if !h.safeSend(client, payload) {
			clientsToRemove = append(clientsToRemove, client)
		}
	}

	return clientsToRemove
}

// removeFailedClients removes clients that failed to receive messages and closes their channels
func (h *Hub) removeFailedClients(clientsToRemove []*Client) {
	if len(clientsToRemove) == 0 {
		return
	}

	h.mutex.Lock()
	var channelsToClose []chan []byte
	for _, client := range clientsToRemove {
		if _, exists := h.clients[client]; exists {
			delete(h.clients, client)
			client.closed = true
			channelsToClose = append(channelsToClose, client.send)
			log.Warn().Str("addr", client.addr).Msg("client removed due to full send buffer")
		}
	}
	clientCount := len(h.clients)
	h.mutex.Unlock()

	for _, ch := range channelsToClose {
		close(ch)
	}
	metrics.WSClients.Set(float64(clientCount))
}

// shutdownClients closes all active client connections
func (h *Hub) shutdownClients() {
	log.Info().Msg("shutting down all client connections")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
				log.Error().Err(err).Str("addr", client.addr).Msg("error closing client connection")
			}
		}
	}

	log.Info().Int("clients", len(clients)).Msg("closed client connections")
}

// Shutdown initiates graceful shutdown of the hub and waits for all goroutines to complete.
// It returns after all client connections are closed and goroutines have finished,
// or when the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Info().Msg("initiating hub shutdown")

	h.cancel()

	select {
	case <-h.done:
	case <-time.After(timeout):
		log.Warn().Msg("hub event loop did not stop before timeout")
		return context.DeadlineExceeded
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Warn().Msg("hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
