//go:generate go run go.uber.org/mock/mockgen -source=types.go -destination=../mocks/mock_chat.go -package=mocks
package chat

import "context"

// User is a chat participant and their coin balance.
type User struct {
	Username string `json:"username" bson:"username"`
	Coins    int    `json:"coins" bson:"coins"`
}

// Message is the persisted record of an accepted chat message.
type Message struct {
	Sender     string `json:"sender" bson:"sender"`
	Content    string `json:"content" bson:"content"`
	WordCount  int    `json:"wordCount" bson:"wordCount"`
	CoinsSpent int    `json:"coinsSpent" bson:"coinsSpent"`
}

// Outbound is what every connected client sees for an accepted message.
type Outbound struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

// UserStore persists users. FindUser returns an error of Kind NotFound when
// no user has the given username, and CreateUser one of Kind Conflict when
// the username is taken.
type UserStore interface {
	FindUser(ctx context.Context, username string) (User, error)
	CreateUser(ctx context.Context, user User) error
	SaveUser(ctx context.Context, user User) error
}

// MessageStore persists accepted messages.
type MessageStore interface {
	InsertMessage(ctx context.Context, msg Message) error
}

// Broadcaster delivers an accepted message to every connected client.
type Broadcaster interface {
	Broadcast(ctx context.Context, msg Outbound) error
}
