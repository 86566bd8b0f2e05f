// Package bbolt provides an arus.Storage persisted in a single bbolt file.
package bbolt

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ryanbekhen/arus"
	"github.com/ryanbekhen/arus/log"
)

// headerSize is the length of the expiry stamp stored ahead of each value.
const headerSize = 8

// Config configures the bbolt storage.
type Config struct {
	// Filename is the database path. Default: "arus.db"
	Filename string
	// Bucket holds every key. Default: "arus"
	Bucket string
	// ReapInterval controls how often expired keys are removed in the
	// background. Zero disables the reaper.
	ReapInterval time.Duration
	// Timeout bounds how long Open waits for the file lock. Default: 1s
	Timeout time.Duration
	Logger  log.ILogger
}

// DefaultConfig returns the default bbolt storage configuration.
func DefaultConfig() Config {
	return Config{
		Filename:     "arus.db",
		Bucket:       "arus",
		ReapInterval: time.Minute,
		Timeout:      time.Second,
	}
}

// Storage implements arus.Storage on bbolt.
type Storage struct {
	db     *bolt.DB
	bucket []byte
	logger log.ILogger

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

var _ arus.Storage = (*Storage)(nil)

// New opens (or creates) the database file and its bucket.
func New(config ...Config) (*Storage, error) {
	cfg := DefaultConfig()
	if len(config) > 0 {
		c := config[0]
		if c.Filename != "" {
			cfg.Filename = c.Filename
		}
		if c.Bucket != "" {
			cfg.Bucket = c.Bucket
		}
		if c.Timeout > 0 {
			cfg.Timeout = c.Timeout
		}
		cfg.ReapInterval = c.ReapInterval
		cfg.Logger = c.Logger
	}
	if cfg.Logger == nil {
		cfg.Logger = log.GetLogger()
	}

	cfg.Logger.Info().Str("file", cfg.Filename).Msg("opening bbolt storage")
	db, err := bolt.Open(cfg.Filename, 0o644, &bolt.Options{Timeout: cfg.Timeout})
	if err != nil {
		return nil, err
	}

	bucket := []byte(cfg.Bucket)
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Storage{db: db, bucket: bucket, logger: cfg.Logger}
	if cfg.ReapInterval > 0 {
		s.stop = make(chan struct{})
		s.done = make(chan struct{})
		go s.reapLoop(cfg.ReapInterval)
	}
	return s, nil
}

// encode prefixes value with its expiry as unix nanoseconds. Zero means the
// value never expires.
func encode(value []byte, ttl time.Duration) []byte {
	out := make([]byte, headerSize+len(value))
	if ttl > 0 {
		binary.BigEndian.PutUint64(out, uint64(time.Now().Add(ttl).UnixNano()))
	}
	copy(out[headerSize:], value)
	return out
}

func expired(raw []byte, now time.Time) bool {
	if len(raw) < headerSize {
		return true
	}
	exp := int64(binary.BigEndian.Uint64(raw))
	return exp != 0 && now.UnixNano() > exp
}

// Get returns the value stored under key. Expired and missing keys yield
// arus.ErrNotFound.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(s.bucket).Get([]byte(key))
		if raw == nil || expired(raw, time.Now()) {
			return arus.ErrNotFound
		}
		// bbolt memory is only valid inside the transaction.
		value = append([]byte(nil), raw[headerSize:]...)
		return nil
	})
	return value, err
}

// Set stores value under key.
func (s *Storage) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), encode(value, ttl))
	})
}

// Delete removes key.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
}

// Clear drops and recreates the bucket.
func (s *Storage) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(s.bucket); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(s.bucket)
		return err
	})
}

// Has reports whether key exists and has not expired.
func (s *Storage) Has(ctx context.Context, key string) (bool, error) {
	_, err := s.Get(ctx, key)
	if err == arus.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

// Reap removes every expired key and returns how many were removed.
func (s *Storage) Reap() (int, error) {
	now := time.Now()
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		var keys [][]byte
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if expired(v, now) {
				keys = append(keys, append([]byte(nil), k...))
			}
		}
		b := tx.Bucket(s.bucket)
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(keys)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Debug().Int("keys", removed).Msg("bbolt storage reaped expired keys")
	}
	return removed, nil
}

func (s *Storage) reapLoop(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := s.Reap(); err != nil {
				s.logger.Error().Err(err).Msg("bbolt reap failed")
			}
		case <-s.stop:
			return
		}
	}
}

// Close stops the reaper and closes the database file.
func (s *Storage) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.stop != nil {
			close(s.stop)
			<-s.done
		}
		err = s.db.Close()
	})
	return err
}
