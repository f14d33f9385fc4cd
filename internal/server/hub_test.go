package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/coinchat/internal/chat"
)

type senderFunc func(ctx context.Context, sender, content string) error

func (f senderFunc) SendMessage(ctx context.Context, sender, content string) error {
	return f(ctx, sender, content)
}

func newTestHub(sender MessageSender) *Hub {
	return NewHub(logs.GetLoggerFromLevel(slog.LevelDebug), sender, 4096)
}

// addClients registers detached clients without starting their pumps.
func addClients(h *Hub, addrs ...string) []*Client {
	clients := make([]*Client, 0, len(addrs))
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for _, addr := range addrs {
		c := NewClient(nil, h, addr)
		h.clients[c] = true
		clients = append(clients, c)
	}
	return clients
}

func decode(t *testing.T, raw []byte) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func TestNewHub(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(nil)

	req.NotNil(hub.register)
	req.NotNil(hub.unregister)
	req.NotNil(hub.broadcast)
	req.Zero(hub.ClientCount())
}

func TestNewClient(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(nil)

	client := NewClient(nil, hub, "127.0.0.1:12345")
	req.NotNil(client.send)
	req.Equal(int64(4096), client.maxMessageSize)

	select {
	case <-client.send:
		t.Fatal("Expected empty send channel but received a message")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestHandleBroadcastReachesEveryClientOnce(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(nil)
	clients := addClients(hub, "a", "b", "c")

	payload, err := encodeEvent(EventReceiveMessage, ReceiveMessagePayload{Sender: "alice", Content: "hi"})
	req.NoError(err)
	hub.handleBroadcast(payload)

	for _, c := range clients {
		req.Len(c.send, 1, c.addr)
		env := decode(t, <-c.send)
		req.Equal(EventReceiveMessage, env.Event)
		req.JSONEq(`{"sender":"alice","content":"hi"}`, string(env.Data))
	}
}

func TestHandleBroadcastDropsFullClients(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(nil)
	clients := addClients(hub, "slow", "fast")
	slow, fast := clients[0], clients[1]

	for i := 0; i < cap(slow.send); i++ {
		slow.send <- []byte("backlog")
	}

	hub.handleBroadcast([]byte(`{"event":"receiveMessage"}`))

	req.Equal(1, hub.ClientCount())
	req.True(slow.closed)
	req.Len(fast.send, 1)
}

func TestReplyOnlyReachesAddressee(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(nil)
	clients := addClients(hub, "alice", "bob")

	hub.Reply(clients[0], ErrTextNotEnoughCoins)

	req.Len(clients[0].send, 1)
	req.Empty(clients[1].send)
	env := decode(t, <-clients[0].send)
	req.Equal(EventErrorMessage, env.Event)
	req.JSONEq(`"Not enough coins to send the message"`, string(env.Data))
}

func TestDispatchRepliesWithErrorText(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"unknown sender", chat.E(chat.UserNotFound, "op", nil), ErrTextUserNotFound},
		{"balance too low", chat.E(chat.InsufficientFunds, "op", nil), ErrTextNotEnoughCoins},
		{"store down", chat.E(chat.StoreError, "op", errors.New("down")), ErrTextSendingFailed},
		{"unclassified", errors.New("boom"), ErrTextSendingFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			hub := newTestHub(senderFunc(func(context.Context, string, string) error { return tt.err }))
			client := addClients(hub, "x")[0]

			hub.dispatch(client, SendMessagePayload{Sender: "alice", Content: "hi"})
			hub.wg.Wait()

			req.Len(client.send, 1)
			env := decode(t, <-client.send)
			req.Equal(EventErrorMessage, env.Event)
			var text string
			req.NoError(json.Unmarshal(env.Data, &text))
			req.Equal(tt.expected, text)
		})
	}
}

func TestDispatchSuccessSendsNothingDirect(t *testing.T) {
	req := require.New(t)
	var got SendMessagePayload
	hub := newTestHub(senderFunc(func(_ context.Context, sender, content string) error {
		got = SendMessagePayload{Sender: sender, Content: content}
		return nil
	}))
	client := addClients(hub, "x")[0]

	hub.dispatch(client, SendMessagePayload{Sender: "alice", Content: "hello world"})
	hub.wg.Wait()

	req.Empty(client.send)
	req.Equal(SendMessagePayload{Sender: "alice", Content: "hello world"}, got)
}

func TestDispatchWithoutSender(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(nil)
	client := addClients(hub, "x")[0]

	hub.dispatch(client, SendMessagePayload{Sender: "alice"})

	req.Len(client.send, 1)
}

func TestProcessMessage(t *testing.T) {
	req := require.New(t)
	called := make(chan SendMessagePayload, 1)
	hub := newTestHub(senderFunc(func(_ context.Context, sender, content string) error {
		called <- SendMessagePayload{Sender: sender, Content: content}
		return nil
	}))
	client := addClients(hub, "x")[0]

	req.False(client.processMessage([]byte("not json")))
	req.False(client.processMessage([]byte(`{"event":"joinRoom","data":{}}`)))
	req.False(client.processMessage([]byte(`{"event":"sendMessage","data":"oops"}`)))
	req.True(client.processMessage([]byte(`{"event":"sendMessage","data":{"sender":"alice","content":"hey"}}`)))

	hub.wg.Wait()
	req.Equal(SendMessagePayload{Sender: "alice", Content: "hey"}, <-called)
}

func TestHubBroadcastAfterShutdown(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(nil)
	go hub.Run()

	req.NoError(hub.Shutdown(time.Second))
	req.ErrorIs(hub.Broadcast(context.Background(), chat.Outbound{Sender: "a"}), ErrHubClosed)
}

func TestHubBroadcastHonoursCallerContext(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Run is not started, so nothing drains the broadcast channel.
	req.ErrorIs(hub.Broadcast(ctx, chat.Outbound{Sender: "a"}), context.Canceled)
}

func TestHubShutdownTimeout(t *testing.T) {
	hub := newTestHub(nil)
	go hub.Run()
	time.Sleep(20 * time.Millisecond)

	start := time.Now()
	_ = hub.Shutdown(50 * time.Millisecond)
	require.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestHubIgnoresNilRegistration(t *testing.T) {
	hub := newTestHub(nil)
	go hub.Run()
	defer func() { _ = hub.Shutdown(time.Second) }()

	select {
	case hub.register <- nil:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("register channel blocked")
	}
	require.Zero(t, hub.ClientCount())
}

func TestShutdownClosesClientQueues(t *testing.T) {
	req := require.New(t)
	hub := newTestHub(nil)
	clients := addClients(hub, "a", "b")
	go hub.Run()

	req.NoError(hub.Shutdown(time.Second))

	req.Zero(hub.ClientCount())
	for _, c := range clients {
		_, ok := <-c.send
		req.False(ok, c.addr)
	}
}
