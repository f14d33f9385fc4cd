// Package badgerstore keeps users and messages in an embedded Badger
// database. Users live under "user:<username>", messages under
// "message:<uuid>"; both are stored as JSON documents.
package badgerstore

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Tyrowin/coinchat/internal/chat"
)

const (
	userPrefix    = "user:"
	messagePrefix = "message:"
)

// Store implements chat.UserStore and chat.MessageStore on one *badger.DB.
type Store struct {
	db  *badger.DB
	log *slog.Logger
}

// Open opens (or creates) a Badger database at path.
func Open(path string, log *slog.Logger) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, errors.Wrap(err, "badger: open")
	}
	return New(db, log), nil
}

// New wraps an already opened database.
func New(db *badger.DB, log *slog.Logger) *Store {
	return &Store{db: db, log: log}
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func userKey(username string) []byte {
	return []byte(userPrefix + username)
}

// FindUser implements chat.UserStore.
func (s *Store) FindUser(ctx context.Context, username string) (chat.User, error) {
	if err := ctx.Err(); err != nil {
		return chat.User{}, err
	}

	var user chat.User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return chat.User{}, chat.E(chat.NotFound, "badger.FindUser", nil)
	}
	if err != nil {
		return chat.User{}, errors.Wrap(err, "badger: FindUser")
	}
	return user, nil
}

// CreateUser implements chat.UserStore.
func (s *Store) CreateUser(ctx context.Context, user chat.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "badger: marshal user")
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		key := userKey(user.Username)
		if _, err := txn.Get(key); err == nil {
			return chat.E(chat.Conflict, "badger.CreateUser", nil)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
	if chat.KindOf(err) == chat.Conflict {
		return err
	}
	if err != nil {
		return errors.Wrap(err, "badger: CreateUser")
	}
	return nil
}

// SaveUser implements chat.UserStore. It overwrites the stored balance
// unconditionally.
func (s *Store) SaveUser(ctx context.Context, user chat.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "badger: marshal user")
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(user.Username), data)
	}); err != nil {
		return errors.Wrap(err, "badger: SaveUser")
	}
	return nil
}

// InsertMessage implements chat.MessageStore.
func (s *Store) InsertMessage(ctx context.Context, msg chat.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "badger: marshal message")
	}
	key := []byte(messagePrefix + uuid.NewString())
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	}); err != nil {
		return errors.Wrap(err, "badger: InsertMessage")
	}
	s.log.Debug("Message stored", "key", string(key), "sender", msg.Sender)
	return nil
}

// Messages returns every stored message. Used by tooling and tests; the
// chat protocol itself never reads history.
func (s *Store) Messages(ctx context.Context) ([]chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []chat.Message
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(messagePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var msg chat.Message
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &msg)
			}); err != nil {
				return err
			}
			out = append(out, msg)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "badger: Messages")
	}
	return out, nil
}
