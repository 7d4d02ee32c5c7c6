package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sweetpotato0/docsum/document"
)

// RedisStore keeps reports as JSON strings under a key prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig holds Redis configuration for reports.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	// TTL expires reports; zero keeps them forever.
	TTL time.Duration
}

// DefaultRedisConfig returns a local Redis configuration.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:   "localhost:6379",
		Prefix: "docsum:report:",
	}
}

// NewRedisStore creates a Redis-backed report store.
func NewRedisStore(config *RedisConfig) *RedisStore {
	if config == nil {
		config = DefaultRedisConfig()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	return &RedisStore{
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
	}
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Save stores report and returns its key.
func (s *RedisStore) Save(ctx context.Context, source string, report *document.Report) (string, error) {
	if report == nil {
		return "", errNilReport
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	key := s.key(ArtifactName(source))
	if err := s.client.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}
	return key, nil
}

// Load fetches a report by artifact name.
func (s *RedisStore) Load(ctx context.Context, artifact string) (*document.Report, error) {
	raw, err := s.client.Get(ctx, s.key(artifact)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, artifact)
		}
		return nil, fmt.Errorf("failed to load report: %w", err)
	}

	var report document.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &report, nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(artifact string) string {
	if strings.HasPrefix(artifact, s.prefix) {
		return artifact
	}
	return s.prefix + artifact
}
