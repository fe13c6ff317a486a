package websocket

import (
	"context"
	"sync"
	"time"

	"audionav/logging"
	"audionav/types"

	"go.uber.org/zap"
)

// Hub fans browser snapshots out to the WebSocket clients of each session.
type Hub interface {
	Run(ctx context.Context)
	PublishState(sessionID string, seq uint64, state types.BrowserState)
	CloseSession(sessionID string)
	RegisterClient(client *Client)
	UnregisterClient(client *Client)
	ClientCount(sessionID string) int
}

// hub maintains the set of active clients and broadcasts messages to them
type hub struct {
	// Registered clients mapped by session ID
	clients map[string]map[*Client]bool

	// Snapshots waiting to be delivered
	broadcast chan types.StateMessage

	// Latest message per session that did not fit in broadcast. Once a session has a
	// pending message, its later messages replace it until the loop flushes.
	pending   map[string]types.StateMessage
	pendingMu sync.Mutex
	flush     chan struct{}

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex
}

const broadcastBuffer = 256

// NewHub creates a new WebSocket hub
func NewHub() Hub {
	return &hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan types.StateMessage, broadcastBuffer),
		pending:    make(map[string]types.StateMessage),
		flush:      make(chan struct{}, 1),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main event loop. It returns when ctx is done, closing every client.
func (h *hub) Run(ctx context.Context) {
	defer close(h.done)
	logger := logging.L()
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, clients := range h.clients {
				for client := range clients {
					close(client.send)
				}
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.sessionID] == nil {
				h.clients[client.sessionID] = make(map[*Client]bool)
			}
			h.clients[client.sessionID][client] = true
			h.mu.Unlock()
			logger.Debug("websocket client connected", zap.String("session", client.sessionID))

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			logger.Debug("websocket client disconnected", zap.String("session", client.sessionID))

		case message := <-h.broadcast:
			h.deliver(message)

		case <-h.flush:
			for _, message := range h.takePending() {
				h.deliver(message)
			}
		}
	}
}

// deliver hands message to the clients of its session.
func (h *hub) deliver(message types.StateMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.clients[message.SessionID]
	if !ok {
		return
	}
	for client := range clients {
		select {
		case client.send <- message:
		default:
			// Slow consumer; it reconnects and fetches the state again.
			h.remove(client)
		}
	}
	if message.Type == types.MessageClosed {
		for client := range clients {
			h.remove(client)
		}
	}
}

// takePending returns the queued broadcasts followed by the coalesced messages, in
// delivery order.
func (h *hub) takePending() []types.StateMessage {
	h.pendingMu.Lock()
	defer h.pendingMu.Unlock()

	var out []types.StateMessage
	for {
		select {
		case message := <-h.broadcast:
			out = append(out, message)
			continue
		default:
		}
		break
	}
	for id, message := range h.pending {
		out = append(out, message)
		delete(h.pending, id)
	}
	return out
}

// remove closes client's queue and forgets it. Callers hold h.mu.
func (h *hub) remove(client *Client) {
	clients, ok := h.clients[client.sessionID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.sessionID)
	}
}

// PublishState queues a snapshot for the clients of sessionID.
func (h *hub) PublishState(sessionID string, seq uint64, state types.BrowserState) {
	h.enqueue(types.StateMessage{
		SessionID: sessionID,
		Type:      types.MessageState,
		Seq:       seq,
		State:     &state,
		Timestamp: time.Now(),
	})
}

// CloseSession tells the clients of sessionID that the session is gone and disconnects them.
func (h *hub) CloseSession(sessionID string) {
	h.enqueue(types.StateMessage{
		SessionID: sessionID,
		Type:      types.MessageClosed,
		Timestamp: time.Now(),
	})
}

// enqueue queues message for the loop. When the queue is full the message is kept as
// its session's pending message instead, so the newest snapshot and a closed
// notification always reach the clients.
func (h *hub) enqueue(message types.StateMessage) {
	h.pendingMu.Lock()
	defer h.pendingMu.Unlock()

	if queued, ok := h.pending[message.SessionID]; ok {
		if queued.Type != types.MessageClosed {
			h.pending[message.SessionID] = message
		}
		return
	}

	select {
	case h.broadcast <- message:
		return
	default:
	}

	logging.L().Warn("websocket broadcast channel full, coalescing session messages",
		zap.String("session", message.SessionID), zap.String("type", message.Type))
	h.pending[message.SessionID] = message
	select {
	case h.flush <- struct{}{}:
	default:
	}
}

// RegisterClient registers a new client with the hub. A client registered after the
// hub stopped is closed immediately.
func (h *hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// UnregisterClient unregisters a client from the hub
func (h *hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of clients connected to sessionID.
func (h *hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}
