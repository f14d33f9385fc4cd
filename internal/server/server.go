// Package server assembles the hub, user service and origin policy into
// the Server whose methods are the HTTP handlers.
package server

import (
	"context"
	"log/slog"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/coinchat/internal/chat"
)

// UserService is the part of the chat service the HTTP user API calls.
type UserService interface {
	CreateUser(ctx context.Context, username string, coins int) (chat.User, error)
	GetUser(ctx context.Context, username string) (chat.User, error)
}

// Server bundles the handles every HTTP and socket handler needs.
type Server struct {
	hub      *Hub
	users    UserService
	origins  *OriginPolicy
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// New creates a Server. The hub must be running before requests arrive.
func New(log *slog.Logger, hub *Hub, users UserService, origins *OriginPolicy) *Server {
	return &Server{
		hub:     hub,
		users:   users,
		origins: origins,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.CheckOrigin,
		},
		log: log,
	}
}
