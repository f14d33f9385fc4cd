// Package config loads coinchat runtime settings from the environment,
// an optional .env file, and sanitizes them against defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverMongo  = "mongo"
	DriverBadger = "badger"
)

const (
	defaultPort            = "3030"
	defaultAllowedOrigin   = "http://localhost:5173"
	defaultStoreDriver     = DriverMongo
	defaultMongoURI        = "mongodb://localhost:27017"
	defaultMongoDatabase   = "chatApp"
	defaultBadgerPath      = "data/badger"
	defaultMaxMessageSize  = 1 << 20
	defaultLogLevel        = "INFO"
	defaultShutdownTimeout = 10 * time.Second
)

// Config holds the server configuration.
type Config struct {
	Port            string        `env:"PORT,default=3030"`
	AllowedOrigin   string        `env:"ALLOWED_ORIGIN,default=http://localhost:5173"`
	StoreDriver     string        `env:"STORE_DRIVER,default=mongo"`
	MongoURI        string        `env:"MONGO_URI,default=mongodb://localhost:27017"`
	MongoDatabase   string        `env:"MONGO_DATABASE,default=chatApp"`
	BadgerPath      string        `env:"BADGER_PATH,default=data/badger"`
	MaxMessageSize  int           `env:"MAX_MESSAGE_SIZE,default=1048576"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// Default returns a Config populated with default values for all settings.
func Default() Config {
	return Config{
		Port:            defaultPort,
		AllowedOrigin:   defaultAllowedOrigin,
		StoreDriver:     defaultStoreDriver,
		MongoURI:        defaultMongoURI,
		MongoDatabase:   defaultMongoDatabase,
		BadgerPath:      defaultBadgerPath,
		MaxMessageSize:  defaultMaxMessageSize,
		LogLevel:        defaultLogLevel,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// Load reads envFile into the process environment when it exists, then
// unmarshals the environment into a sanitized Config.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	return Sanitize(cfg)
}

// Sanitize replaces empty or out-of-range values with defaults and checks
// the store driver and origin.
func Sanitize(cfg Config) (Config, error) {
	cfg.Port = strings.TrimPrefix(strings.TrimSpace(cfg.Port), ":")
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}

	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}

	if cfg.MongoURI == "" {
		cfg.MongoURI = defaultMongoURI
	}
	if cfg.MongoDatabase == "" {
		cfg.MongoDatabase = defaultMongoDatabase
	}
	if cfg.BadgerPath == "" {
		cfg.BadgerPath = defaultBadgerPath
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	switch cfg.StoreDriver {
	case "":
		cfg.StoreDriver = defaultStoreDriver
	case DriverMongo, DriverBadger:
	default:
		return Config{}, fmt.Errorf("unknown store driver %q: must be %q or %q", cfg.StoreDriver, DriverMongo, DriverBadger)
	}

	if strings.TrimSpace(cfg.AllowedOrigin) == "" {
		cfg.AllowedOrigin = defaultAllowedOrigin
	}

	return cfg, nil
}

// Addr is the listen address for net/http.
func (c Config) Addr() string {
	return ":" + c.Port
}
