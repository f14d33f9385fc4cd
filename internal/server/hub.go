// Package server coordinates client registration, message broadcast,
// direct replies and connection cleanup for the chat socket via the Hub type.
package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/Tyrowin/coinchat/internal/chat"
)

// ErrHubClosed is returned by Broadcast once the hub has shut down.
var ErrHubClosed = errors.New("hub closed")

// MessageSender is the part of the chat service the hub dispatches
// sendMessage events to.
type MessageSender interface {
	SendMessage(ctx context.Context, sender, content string) error
}

// Hub manages all WebSocket client connections, broadcasts accepted
// messages to every client and replies to individual clients. Client
// membership is guarded by mutex.
type Hub struct {
	clients        map[*Client]bool
	broadcast      chan []byte
	register       chan *Client
	unregister     chan *Client
	mutex          sync.RWMutex
	wg             sync.WaitGroup
	ctx            context.Context
	cancel         context.CancelFunc
	done           chan struct{}
	log            *slog.Logger
	sender         MessageSender
	maxMessageSize int64
}

// NewHub creates a Hub that hands sendMessage events to sender. Frames
// larger than maxMessageSize close the offending connection.
func NewHub(log *slog.Logger, sender MessageSender, maxMessageSize int64) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:        make(map[*Client]bool),
		broadcast:      make(chan []byte),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
		log:            log,
		sender:         sender,
		maxMessageSize: maxMessageSize,
	}
}

// ClientCount reports how many clients are registered.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Broadcast implements chat.Broadcaster. It queues a receiveMessage event
// for every registered client, the sender included.
func (h *Hub) Broadcast(ctx context.Context, msg chat.Outbound) error {
	payload, err := encodeEvent(EventReceiveMessage, ReceiveMessagePayload(msg))
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- payload:
		return nil
	case <-h.ctx.Done():
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reply sends an errorMessage event to client only.
func (h *Hub) Reply(client *Client, text string) {
	payload, err := encodeEvent(EventErrorMessage, text)
	if err != nil {
		h.log.Error("Error encoding reply", "addr", client.addr, "error", err)
		return
	}
	if !h.safeSend(client, payload) {
		h.removeFailedClients([]*Client{client})
	}
}

// dispatch runs the send flow for one sendMessage event on its own
// goroutine so the client's read loop is never blocked on store I/O.
func (h *Hub) dispatch(client *Client, payload SendMessagePayload) {
	if h.sender == nil {
		h.log.Error("No message handler attached; dropping event", "addr", client.addr)
		h.Reply(client, ErrTextSendingFailed)
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		err := h.sender.SendMessage(h.ctx, payload.Sender, payload.Content)
		if err == nil {
			return
		}

		switch chat.KindOf(err) {
		case chat.UserNotFound, chat.InsufficientFunds:
			h.log.Info("Message rejected", "addr", client.addr, "sender", payload.Sender, "reason", chat.KindOf(err))
		default:
			h.log.Error("Error sending message", "addr", client.addr, "sender", payload.Sender, "error", err)
		}
		h.Reply(client, errorText(err))
	}()
}

func (h *Hub) safeSend(client *Client, message []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("Recovered from panic in safeSend", "panic", r)
		}
	}()

	// Hold the lock during the entire send operation to prevent race conditions
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
// unregistration and message broadcasting. It returns after Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				h.log.Warn("Received nil client registration; skipping")
				continue
			}

			h.mutex.Lock()
			client.closed = false
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mutex.Unlock()
			h.log.Info("New client connected", "addr", client.addr, "clients", clientCount)

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				client.writePump()
			}()
			go func() {
				defer h.wg.Done()
				client.readPump()
			}()

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closed = true
				clientCount := len(h.clients)
				h.mutex.Unlock()
				close(client.send)
				h.log.Info("Client disconnected", "addr", client.addr, "clients", clientCount)
			} else {
				h.mutex.Unlock()
			}

		case payload := <-h.broadcast:
			h.handleBroadcast(payload)
		}
	}
}

// handleBroadcast delivers payload to every registered client.
func (h *Hub) handleBroadcast(payload []byte) {
	clients := h.getClientSnapshot()
	h.log.Debug("Broadcasting message", "clients", len(clients))

	clientsToRemove := lo.Filter(clients, func(client *Client, _ int) bool {
		return !h.safeSend(client, payload)
	})
	h.removeFailedClients(clientsToRemove)
}

// getClientSnapshot returns a thread-safe snapshot of all current clients
func (h *Hub) getClientSnapshot() []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return lo.Keys(h.clients)
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
			h.log.Warn("Client removed due to full send buffer", "addr", client.addr)
		}
	}
	h.mutex.Unlock()

	for _, ch := range channelsToClose {
		close(ch)
	}
}

// shutdownClients unregisters every client, closing its send channel so the
// write pump exits, and closes its connection so the read pump exits.
func (h *Hub) shutdownClients() {
	h.log.Info("Shutting down all client connections...")

	h.mutex.Lock()
	clients := lo.Keys(h.clients)
	for _, client := range clients {
		delete(h.clients, client)
		client.closed = true
		close(client.send)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
				h.log.Error("Error closing client connection", "addr", client.addr, "error", err)
			}
		}
	}

	h.log.Info("Closed client connections", "count", len(clients))
}

// Shutdown cancels in-flight message handling, closes all connections and
// waits for client goroutines to finish or for timeout to elapse.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.log.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
