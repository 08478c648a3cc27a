package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/valpere/lexpure/internal/script"
)

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Address  string
	Password string
	DB       int
	// Prefix namespaces keys, "lexpure:" by default.
	Prefix string
}

// RedisClient is the subset of *redis.Client the backend uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Redis is a Backend shared by every process pointing at the same server.
// Entries are stored as JSON with a server-side expiry matching ExpiresAt.
type Redis struct {
	client RedisClient
	prefix string
}

// NewRedis opens a client for opts. Nothing is sent until first use.
func NewRedis(opts RedisOptions) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisWithClient(client, opts.Prefix)
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client RedisClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "lexpure:"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(hash string, target script.Language) string {
	return r.prefix + target.String() + ":" + hash
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, hash string, target script.Language) (*Entry, error) {
	data, err := r.client.Get(ctx, r.key(hash, target)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return decodeEntry(data)
}

func (r *Redis) Put(ctx context.Context, e Entry) error {
	ttl := time.Until(e.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	data, err := encodeEntry(e)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(e.ContentHash, e.TargetLanguage), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func encodeEntry(e Entry) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return data, nil
}

// decodeEntry rejects payloads that do not look like an entry so a
// corrupted value reads as an error, and therefore as a miss.
func decodeEntry(data []byte) (*Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	if e.ContentHash == "" || e.RuleSetVersion == "" {
		return nil, fmt.Errorf("failed to decode cache entry: missing fields")
	}
	return &e, nil
}
