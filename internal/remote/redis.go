package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// redisSource reads the configuration document stored as a JSON string under a single key.
type redisSource struct {
	availability
	client redisClient
	key    string
}

func newRedisSource(ctx context.Context, creds Credentials) (*redisSource, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         creds.Address,
		Password:     creds.Password,
		DB:           creds.DB,
		DialTimeout:  defaultTimeout,
		ReadTimeout:  defaultTimeout,
		WriteTimeout: defaultTimeout,
	})
	return openRedis(ctx, client, creds.Key)
}

func openRedis(ctx context.Context, client redisClient, key string) (*redisSource, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &redisSource{
		availability: newAvailability(),
		client:       client,
		key:          key,
	}, nil
}

func (s *redisSource) Fetch(ctx context.Context) (map[string]any, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}

	doc, err := s.read(ctx)
	s.record(err)
	return doc, err
}

func (s *redisSource) read(ctx context.Context) (map[string]any, error) {
	payload, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: redis key %s", ErrDocumentNotFound, s.key)
	}
	if err != nil {
		return nil, fmt.Errorf("get redis key %s: %w", s.key, err)
	}
	return decodeDocument(payload)
}

// Publish stores doc under the configured key without expiration.
func (s *redisSource) Publish(ctx context.Context, doc map[string]any) error {
	if s.isClosed() {
		return ErrClosed
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := s.client.Set(ctx, s.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("set redis key %s: %w", s.key, err)
	}
	return nil
}

func (s *redisSource) Close() error {
	if !s.markClosed() {
		return nil
	}
	return s.client.Close()
}
