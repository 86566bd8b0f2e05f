// Package redis provides an arus.Storage backed by a Redis server.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis"

	"github.com/ryanbekhen/arus"
	"github.com/ryanbekhen/arus/log"
)

// Config configures the Redis storage.
type Config struct {
	// Network is "tcp" or "unix". Default: "tcp"
	Network string
	// Addr is the host:port of the server. Default: "127.0.0.1:6379"
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every key. Clear only removes prefixed keys.
	// Default: "arus:"
	Prefix string
	// Logger receives connection events. Default: log.GetLogger()
	Logger log.ILogger
}

// DefaultConfig returns the default Redis storage configuration.
func DefaultConfig() Config {
	return Config{
		Network: "tcp",
		Addr:    "127.0.0.1:6379",
		Prefix:  "arus:",
	}
}

// Storage is an arus.Storage implementation on a go-redis client.
type Storage struct {
	client *redis.Client
	prefix string
	logger log.ILogger
}

var _ arus.Storage = (*Storage)(nil)

// New connects to the configured server and verifies the connection with
// a PING.
func New(config ...Config) (*Storage, error) {
	cfg := DefaultConfig()
	if len(config) > 0 {
		c := config[0]
		if c.Network != "" {
			cfg.Network = c.Network
		}
		if c.Addr != "" {
			cfg.Addr = c.Addr
		}
		if c.Prefix != "" {
			cfg.Prefix = c.Prefix
		}
		cfg.Password = c.Password
		cfg.DB = c.DB
		cfg.Logger = c.Logger
	}
	if cfg.Logger == nil {
		cfg.Logger = log.GetLogger()
	}

	cfg.Logger.Info().Str("network", cfg.Network).Str("addr", cfg.Addr).Msg("connecting to redis")
	client := redis.NewClient(&redis.Options{
		Network:  cfg.Network,
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping().Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Storage{client: client, prefix: cfg.Prefix, logger: cfg.Logger}, nil
}

func (s *Storage) key(k string) string {
	return s.prefix + k
}

// Get returns the value stored under key. A missing key yields
// arus.ErrNotFound.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err := s.client.WithContext(ctx).Get(s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, arus.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Set stores value under key. Redis expires the key when ttl is positive.
func (s *Storage) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	return s.client.WithContext(ctx).Set(s.key(key), value, ttl).Err()
}

// Delete removes key. Missing keys are not an error.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.client.WithContext(ctx).Del(s.key(key)).Err()
}

// Clear removes every key carrying the storage prefix.
func (s *Storage) Clear(ctx context.Context) error {
	client := s.client.WithContext(ctx)
	var cursor uint64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		keys, next, err := client.Scan(cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := client.Del(keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Has reports whether key exists.
func (s *Storage) Has(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	n, err := s.client.WithContext(ctx).Exists(s.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close disconnects from the server.
func (s *Storage) Close() error {
	s.logger.Info().Msg("closing redis connection")
	return s.client.Close()
}
