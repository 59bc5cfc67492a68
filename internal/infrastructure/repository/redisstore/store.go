package redisstore

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultKeyPrefix = "wr-cn-meta:"

	// Documents expire after retentionFactor times their freshness TTL.
	retentionFactor = 4
)

// Client is the subset of *redis.Client the store uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

type Config struct {
	Client    Client
	KeyPrefix string
	// TTLs maps a document name to its freshness TTL. Unlisted documents
	// never expire.
	TTLs map[string]time.Duration
}

type Store struct {
	client Client
	prefix string
	ttls   map[string]time.Duration
}

func NewStore(cfg Config) *Store {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{client: cfg.Client, prefix: prefix, ttls: cfg.TTLs}
}

// NewClient builds a go-redis client from connection settings.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 1,
		PoolTimeout:  30 * time.Second,
	})
}

func (s *Store) Key(name string) string {
	return s.prefix + name
}

func (s *Store) Read(ctx context.Context, name string) ([]byte, bool, error) {
	raw, err := s.client.Get(ctx, s.Key(name)).Bytes()
	if crerr.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, crerr.Wrapf(err, "redis get %s", s.Key(name))
	}
	return raw, true, nil
}

func (s *Store) Write(ctx context.Context, name string, _ time.Time, payload []byte) error {
	expiration := s.ttls[name] * retentionFactor
	if err := s.client.Set(ctx, s.Key(name), payload, expiration).Err(); err != nil {
		return crerr.Wrapf(err, "redis set %s", s.Key(name))
	}
	return nil
}
