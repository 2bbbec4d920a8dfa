// Package redisstore keeps hunt progress in Redis.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/verte-zerg/spookhunt/internal/progress"
)

// KeyPrefix namespaces every key this package writes.
const KeyPrefix = "spookhunt:progress:"

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Store is a progress.Store backed by a single Redis string key.
type Store struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

var _ progress.Store = (*Store)(nil)

// Key returns the Redis key used for namespace.
func Key(namespace string) string {
	return KeyPrefix + namespace
}

// Open connects to Redis and verifies the connection.
func Open(ctx context.Context, opts Options, namespace string, logger *zap.Logger) (*Store, error) {
	if namespace == "" {
		return nil, fmt.Errorf("progress namespace is empty")
	}
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		if cerr := client.Close(); cerr != nil {
			// Best-effort close on failed ping.
			_ = cerr
		}
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return New(client, namespace, logger), nil
}

// New wraps an existing client.
func New(client *redis.Client, namespace string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, key: Key(namespace), logger: logger}
}

// Close closes the Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Load implements progress.Store.
func (s *Store) Load(ctx context.Context) (progress.Record, bool) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("failed to read progress", zap.String("key", s.key), zap.Error(err))
		}
		return progress.Record{}, false
	}
	rec, ok := progress.Decode(raw)
	if !ok {
		s.logger.Warn("discarding unreadable progress", zap.String("key", s.key))
	}
	return rec, ok
}

// Save implements progress.Store.
func (s *Store) Save(ctx context.Context, r progress.Record) error {
	payload, err := progress.Encode(r)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// Clear implements progress.Store.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear progress: %w", err)
	}
	return nil
}
