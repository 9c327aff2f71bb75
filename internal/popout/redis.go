package popout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisTTL bounds how long an untaken config lives in redis.
const DefaultRedisTTL = 10 * time.Minute

// RedisConfig configures a RedisStorage.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces the keys, e.g. "dock:".
	Prefix string
	TTL    time.Duration
}

// RedisStorage keeps pop-out configs in redis so windows on other hosts
// can take them.
type RedisStorage struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage connects to redis and checks the connection.
func NewRedisStorage(ctx context.Context, cfg RedisConfig) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &RedisStorage{client: client, prefix: cfg.Prefix, ttl: ttl}, nil
}

// Put implements Storage.
func (r *RedisStorage) Put(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.prefix+key, value, r.ttl).Err()
}

// Get implements Storage.
func (r *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return b, err
}

// Take implements Storage with GETDEL.
func (r *RedisStorage) Take(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.GetDel(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return b, err
}

// Delete implements Storage.
func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

// Close closes the connection pool.
func (r *RedisStorage) Close() error {
	return r.client.Close()
}
