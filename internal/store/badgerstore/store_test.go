package badgerstore

import (
	"context"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/coinchat/internal/chat"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, logs.GetLoggerFromLevel(slog.LevelDebug))
}

func Test_Create_And_Find_User(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()

	req.NoError(store.CreateUser(ctx, chat.User{Username: "alice", Coins: 10}))

	user, err := store.FindUser(ctx, "alice")
	req.NoError(err)
	req.Equal(chat.User{Username: "alice", Coins: 10}, user)
}

func Test_Find_Missing_User_Is_NotFound(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)

	_, err := store.FindUser(context.Background(), "nobody")
	req.ErrorIs(err, chat.ErrNotFound)
}

func Test_Create_Duplicate_User_Is_Conflict(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()

	req.NoError(store.CreateUser(ctx, chat.User{Username: "alice", Coins: 10}))
	err := store.CreateUser(ctx, chat.User{Username: "alice", Coins: 99})
	req.ErrorIs(err, chat.ErrConflict)

	user, err := store.FindUser(ctx, "alice")
	req.NoError(err)
	req.Equal(10, user.Coins)
}

func Test_Save_User_Overwrites_Balance(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()

	req.NoError(store.CreateUser(ctx, chat.User{Username: "alice", Coins: 10}))
	req.NoError(store.SaveUser(ctx, chat.User{Username: "alice", Coins: 5}))

	user, err := store.FindUser(ctx, "alice")
	req.NoError(err)
	req.Equal(5, user.Coins)
}

func Test_Insert_Messages(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()

	first := chat.Message{Sender: "alice", Content: "hi", WordCount: 1, CoinsSpent: 5}
	second := chat.Message{Sender: "alice", Content: "hi", WordCount: 1, CoinsSpent: 5}
	req.NoError(store.InsertMessage(ctx, first))
	req.NoError(store.InsertMessage(ctx, second))

	messages, err := store.Messages(ctx)
	req.NoError(err)
	req.Len(messages, 2)
	req.ElementsMatch([]chat.Message{first, second}, messages)
}

func Test_Cancelled_Context(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.FindUser(ctx, "alice")
	req.ErrorIs(err, context.Canceled)
	req.ErrorIs(store.InsertMessage(ctx, chat.Message{}), context.Canceled)
}

func Test_Service_Over_Badger(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	sent := make(chan chat.Outbound, 1)
	svc := chat.NewService(log, store, store, broadcastFunc(func(_ context.Context, msg chat.Outbound) error {
		sent <- msg
		return nil
	}))

	_, err := svc.CreateUser(ctx, "alice", 3)
	req.NoError(err)

	err = svc.SendMessage(ctx, "alice", "too poor")
	req.ErrorIs(err, chat.ErrInsufficientFunds)

	user, err := store.FindUser(ctx, "alice")
	req.NoError(err)
	req.Equal(3, user.Coins)

	messages, err := store.Messages(ctx)
	req.NoError(err)
	req.Empty(messages)
	req.Empty(sent)

	err = svc.SendMessage(ctx, "nobody", "hello")
	req.ErrorIs(err, chat.ErrUserNotFound)
	messages, err = store.Messages(ctx)
	req.NoError(err)
	req.Empty(messages)
}

type broadcastFunc func(ctx context.Context, msg chat.Outbound) error

func (f broadcastFunc) Broadcast(ctx context.Context, msg chat.Outbound) error {
	return f(ctx, msg)
}
