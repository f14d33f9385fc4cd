package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/coinchat/internal/config"
	"github.com/Tyrowin/coinchat/internal/testhelpers"
)

func TestLoadConfigFlagsOverrideEnvironment(t *testing.T) {
	req := require.New(t)
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_DRIVER", "mongo")

	cfg, err := loadConfig(&RootOptions{Port: "9100", Store: "badger"})
	req.NoError(err)
	req.Equal("9100", cfg.Port)
	req.Equal(config.DriverBadger, cfg.StoreDriver)
}

func TestLoadConfigRejectsUnknownStore(t *testing.T) {
	_, err := loadConfig(&RootOptions{Store: "redis"})
	require.Error(t, err)
}

func TestRootCommandFlags(t *testing.T) {
	req := require.New(t)
	cmd := NewRootCommand()

	for _, name := range []string{"env-file", "port", "store"} {
		req.NotNil(cmd.Flags().Lookup(name), name)
	}
}

func TestRunServesUntilCancelled(t *testing.T) {
	req := require.New(t)

	cfg, err := config.Sanitize(config.Config{
		Port:            "38431",
		StoreDriver:     config.DriverBadger,
		BadgerPath:      filepath.Join(t.TempDir(), "badger"),
		ShutdownTimeout: 2 * time.Second,
	})
	req.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg) }()

	req.Eventually(func() bool {
		conn, err := testhelpers.DialWebSocket("ws://localhost:38431/ws", cfg.AllowedOrigin)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 5*time.Second, 50*time.Millisecond)

	status, body := testhelpers.MakeRequest(t, "GET", "http://localhost:38431/", "")
	req.Equal(200, status)
	req.Equal("Chat Server is running", body)

	cancel()
	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
}
