package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/cobra"

	"github.com/Tyrowin/coinchat/internal/chat"
	"github.com/Tyrowin/coinchat/internal/config"
	"github.com/Tyrowin/coinchat/internal/server"
	"github.com/Tyrowin/coinchat/internal/store/badgerstore"
	"github.com/Tyrowin/coinchat/internal/store/mongostore"
)

// RootOptions holds command-line overrides for the environment config.
type RootOptions struct {
	EnvFile string
	Port    string
	Store   string
}

// NewRootCommand creates the coinchat server command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "coinchat",
		Short:         "Coin-metered real-time chat server",
		Long:          "Serves the user API over HTTP and relays chat messages over WebSocket, charging coins per message.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&opts.EnvFile, "env-file", ".env", "optional dotenv file loaded before reading the environment")
	cmd.Flags().StringVar(&opts.Port, "port", "", "listening port (overrides PORT)")
	cmd.Flags().StringVar(&opts.Store, "store", "", "store driver: mongo or badger (overrides STORE_DRIVER)")

	return cmd
}

func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return config.Config{}, err
	}
	if opts.Port != "" {
		cfg.Port = opts.Port
	}
	if opts.Store != "" {
		cfg.StoreDriver = opts.Store
	}
	return config.Sanitize(cfg)
}

type chatStore interface {
	chat.UserStore
	chat.MessageStore
}

// openStore connects the configured store and returns a closer for it.
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (chatStore, io.Closer, error) {
	switch cfg.StoreDriver {
	case config.DriverBadger:
		store, err := badgerstore.Open(cfg.BadgerPath, log)
		if err != nil {
			return nil, nil, fmt.Errorf("database opening failed: %w", err)
		}
		log.Info("Badger store opened", "path", cfg.BadgerPath)
		return store, store, nil
	default:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		store, err := mongostore.Connect(connectCtx, cfg.MongoURI, cfg.MongoDatabase, log)
		if err != nil {
			return nil, nil, fmt.Errorf("database connection failed: %w", err)
		}
		return store, closerFunc(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			return store.Close(ctx)
		}), nil
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// run wires the store, chat service, hub and HTTP server, then blocks until
// ctx is cancelled or the server fails. Deferred teardown always runs.
func run(ctx context.Context, cfg config.Config) error {
	log := logs.GetLoggerFromString(cfg.LogLevel)

	store, closer, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("Closing store...")
		if err := closer.Close(); err != nil {
			log.Error("Error closing store", "error", err)
		}
	}()

	service := chat.NewService(log, store, store, nil)
	hub := server.NewHub(log, service, int64(cfg.MaxMessageSize))
	service.SetBroadcaster(hub)
	server.StartHub(log, hub)

	srv := server.New(log, hub, service, server.NewOriginPolicy(log, cfg.AllowedOrigin))
	httpServer := server.CreateServer(cfg.Addr(), srv.Routes())

	errChan := make(chan error, 1)
	go func() {
		if err := server.StartServer(log, httpServer); err != nil {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		_ = hub.Shutdown(cfg.ShutdownTimeout)
		return err
	}

	if err := server.ShutdownServer(log, httpServer, cfg.ShutdownTimeout); err != nil {
		log.Error("HTTP server did not stop cleanly", "error", err)
	}
	if err := hub.Shutdown(cfg.ShutdownTimeout); err != nil {
		log.Error("Hub did not stop cleanly", "error", err)
	}
	log.Info("Program stopped cleanly")
	return nil
}
