package store

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendNone     = "none"
)

// Options selects and configures a store backend.
type Options struct {
	Backend  string
	Dir      string
	Redis    *RedisConfig
	Postgres *PostgresConfig
	Mongo    *MongoConfig
}

// Open creates the store named by opts.Backend. BackendNone returns a nil
// Store and no error.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		s, err := NewFileStore(opts.Dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendRedis:
		s := NewRedisStore(opts.Redis)
		if err := s.Ping(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case BackendPostgres:
		s, err := NewPostgresStore(ctx, opts.Postgres)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMongo:
		s, err := NewMongoStore(ctx, opts.Mongo)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
