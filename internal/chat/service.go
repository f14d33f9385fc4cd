// Package chat holds the coin-metered messaging rules: pricing a message,
// checking and debiting the sender's balance, persisting the accepted
// message and handing it to the broadcaster. It also owns user
// registration and lookup.
package chat

import (
	"context"
	"errors"
	"log/slog"
)

// Service applies the messaging and user rules over injected stores.
type Service struct {
	users       UserStore
	messages    MessageStore
	broadcaster Broadcaster
	log         *slog.Logger
}

// NewService wires a Service. The broadcaster may be attached later with
// SetBroadcaster when the hub is built after the service.
func NewService(log *slog.Logger, users UserStore, messages MessageStore, broadcaster Broadcaster) *Service {
	return &Service{
		users:       users,
		messages:    messages,
		broadcaster: broadcaster,
		log:         log,
	}
}

// SetBroadcaster replaces the broadcaster. It must be called before the
// service handles any message.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SendMessage accepts content from sender if their balance covers its cost.
//
// The balance is read, compared and written back without any lock, and the
// debit, the insert and the broadcast are separate steps. Two concurrent
// sends by the same user can both pass the check against the same stale
// balance, and a failure after the debit is not compensated.
func (s *Service) SendMessage(ctx context.Context, sender, content string) error {
	const op = "chat.SendMessage"

	words := WordCount(content)
	cost := CostForWords(words)

	user, err := s.users.FindUser(ctx, sender)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return E(UserNotFound, op, nil)
		}
		return E(StoreError, op, err)
	}

	if user.Coins < cost {
		s.log.Debug("Rejected message, balance too low",
			"sender", sender, "coins", user.Coins, "cost", cost)
		return E(InsufficientFunds, op, nil)
	}

	user.Coins -= cost
	if err := s.users.SaveUser(ctx, user); err != nil {
		return E(StoreError, op, err)
	}

	msg := Message{
		Sender:     sender,
		Content:    content,
		WordCount:  words,
		CoinsSpent: cost,
	}
	if err := s.messages.InsertMessage(ctx, msg); err != nil {
		return E(StoreError, op, err)
	}

	if s.broadcaster == nil {
		return E(TransportError, op, errors.New("no broadcaster attached"))
	}
	if err := s.broadcaster.Broadcast(ctx, Outbound{Sender: sender, Content: content}); err != nil {
		return E(TransportError, op, err)
	}

	s.log.Info("Message accepted",
		"sender", sender, "words", words, "cost", cost, "balance", user.Coins)
	return nil
}

// CreateUser registers username with an initial balance.
func (s *Service) CreateUser(ctx context.Context, username string, coins int) (User, error) {
	const op = "chat.CreateUser"

	_, err := s.users.FindUser(ctx, username)
	switch {
	case err == nil:
		return User{}, E(Conflict, op, nil)
	case !errors.Is(err, ErrNotFound):
		return User{}, E(StoreError, op, err)
	}

	user := User{Username: username, Coins: coins}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrConflict) {
			return User{}, E(Conflict, op, nil)
		}
		return User{}, E(StoreError, op, err)
	}

	s.log.Info("User created", "username", username, "coins", coins)
	return user, nil
}

// GetUser looks up username.
func (s *Service) GetUser(ctx context.Context, username string) (User, error) {
	const op = "chat.GetUser"

	user, err := s.users.FindUser(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, E(NotFound, op, nil)
		}
		return User{}, E(StoreError, op, err)
	}
	return user, nil
}
