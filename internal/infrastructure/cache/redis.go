package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bimakw/swap-router/internal/domain/entities"
)

// Cache defines the interface for quote caching.
type Cache interface {
	GetQuote(ctx context.Context, key string) (*entities.Quote, error)
	SetQuote(ctx context.Context, key string, quote *entities.Quote, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RedisCache implements Cache using Redis
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache client
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetQuote retrieves a cached quote
func (c *RedisCache) GetQuote(ctx context.Context, key string) (*entities.Quote, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var quote entities.Quote
	if err := json.Unmarshal(data, &quote); err != nil {
		return nil, err
	}

	return &quote, nil
}

// SetQuote caches a quote with TTL
func (c *RedisCache) SetQuote(ctx context.Context, key string, quote *entities.Quote, ttl time.Duration) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes a key from cache
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// QuoteCacheKey generates a cache key for a quote along a path
func QuoteCacheKey(mode string, path entities.Path, amount *big.Int) string {
	return fmt.Sprintf("quote:%s:%x:%s", mode, []byte(path), amount)
}

// InMemoryCache implements Cache using in-memory storage (for testing/development)
type InMemoryCache struct {
	mu     sync.Mutex
	quotes map[string]*cachedQuote
}

type cachedQuote struct {
	quote     *entities.Quote
	expiresAt time.Time
}

// NewInMemoryCache creates a new in-memory cache
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		quotes: make(map[string]*cachedQuote),
	}
}

func (c *InMemoryCache) GetQuote(ctx context.Context, key string) (*entities.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.quotes[key]; ok {
		if time.Now().Before(cached.expiresAt) {
			return cached.quote, nil
		}
		delete(c.quotes, key)
	}
	return nil, nil
}

func (c *InMemoryCache) SetQuote(ctx context.Context, key string, quote *entities.Quote, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes[key] = &cachedQuote{
		quote:     quote,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (c *InMemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.quotes, key)
	return nil
}
