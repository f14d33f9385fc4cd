// Package mongostore keeps users and messages in the MongoDB collections
// "users" and "messages".
package mongostore

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/Tyrowin/coinchat/internal/chat"
)

const (
	usersCollection    = "users"
	messagesCollection = "messages"
)

// Store implements chat.UserStore and chat.MessageStore.
type Store struct {
	client   *mongo.Client
	users    *mongo.Collection
	messages *mongo.Collection
	log      *slog.Logger
}

type messageDocument struct {
	ID         bson.ObjectID `bson:"_id,omitempty"`
	Sender     string        `bson:"sender"`
	Content    string        `bson:"content"`
	WordCount  int           `bson:"wordCount"`
	CoinsSpent int           `bson:"coinsSpent"`
	CreatedAt  time.Time     `bson:"createdAt"`
}

// Connect dials uri, checks the primary is reachable and makes sure the
// username index exists.
func Connect(ctx context.Context, uri, database string, log *slog.Logger) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "mongo: connect")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "mongo: ping")
	}

	s := New(client, database, log)
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	log.Info("MongoDB connected", "database", database)
	return s, nil
}

// New builds a Store over an existing client.
func New(client *mongo.Client, database string, log *slog.Logger) *Store {
	db := client.Database(database)
	return &Store{
		client:   client,
		users:    db.Collection(usersCollection),
		messages: db.Collection(messagesCollection),
		log:      log,
	}
}

// EnsureIndexes creates the unique username index. Duplicate usernames
// already in the collection make this fail.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return errors.Wrap(err, "mongo: create username index")
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func byUsername(username string) bson.D {
	return bson.D{{Key: "username", Value: username}}
}

// FindUser implements chat.UserStore.
func (s *Store) FindUser(ctx context.Context, username string) (chat.User, error) {
	var user chat.User
	if err := s.users.FindOne(ctx, byUsername(username)).Decode(&user); err != nil {
		return chat.User{}, findUserError(err)
	}
	return user, nil
}

// findUserError maps a FindOne failure: no document is NotFound.
func findUserError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return chat.E(chat.NotFound, "mongo.FindUser", nil)
	}
	return errors.Wrap(err, "mongo: FindUser")
}

// CreateUser implements chat.UserStore.
func (s *Store) CreateUser(ctx context.Context, user chat.User) error {
	_, err := s.users.InsertOne(ctx, user)
	return createUserError(err)
}

// createUserError maps an InsertOne failure: a unique index violation on
// username is Conflict. A nil err stays nil.
func createUserError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return chat.E(chat.Conflict, "mongo.CreateUser", nil)
	}
	return errors.Wrap(err, "mongo: CreateUser")
}

// SaveUser implements chat.UserStore. The stored balance is replaced with
// user.Coins as-is.
func (s *Store) SaveUser(ctx context.Context, user chat.User) error {
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "coins", Value: user.Coins}}}}
	res, err := s.users.UpdateOne(ctx, byUsername(user.Username), update)
	if err != nil {
		return errors.Wrap(err, "mongo: SaveUser")
	}
	if res.MatchedCount == 0 {
		return chat.E(chat.NotFound, "mongo.SaveUser", nil)
	}
	return nil
}

// InsertMessage implements chat.MessageStore.
func (s *Store) InsertMessage(ctx context.Context, msg chat.Message) error {
	doc := messageDocument{
		Sender:     msg.Sender,
		Content:    msg.Content,
		WordCount:  msg.WordCount,
		CoinsSpent: msg.CoinsSpent,
		CreatedAt:  time.Now().UTC(),
	}
	res, err := s.messages.InsertOne(ctx, doc)
	if err != nil {
		return errors.Wrap(err, "mongo: InsertMessage")
	}
	s.log.Debug("Message stored", "id", res.InsertedID, "sender", msg.Sender)
	return nil
}
