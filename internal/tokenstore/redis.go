package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "revoked:"

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

type RedisStore struct {
	client  *redis.Client
	breaker *CircuitBreaker
	timeout time.Duration
}

func NewRedisStore(config *RedisConfig, breaker *CircuitBreaker) *RedisStore {
	if config == nil {
		config = DefaultRedisConfig()
	}
	if breaker == nil {
		breaker = NewCircuitBreaker(nil)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		MaxRetries:   config.MaxRetries,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	return &RedisStore{client: client, breaker: breaker, timeout: 3 * time.Second}
}

func (r *RedisStore) do(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.breaker.Execute(func() error { return fn(ctx) })
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *RedisStore) Revoke(ctx context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.do(ctx, func(ctx context.Context) error {
		return r.client.Set(ctx, keyPrefix+id, 1, ttl).Err()
	})
}

func (r *RedisStore) IsRevoked(ctx context.Context, id string) (bool, error) {
	var revoked bool
	err := r.do(ctx, func(ctx context.Context) error {
		err := r.client.Get(ctx, keyPrefix+id).Err()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		revoked = true
		return nil
	})
	return revoked, err
}

func (r *RedisStore) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Stats() map[string]interface{} {
	poolStats := r.client.PoolStats()

	return map[string]interface{}{
		"pool_hits":     poolStats.Hits,
		"pool_misses":   poolStats.Misses,
		"pool_timeouts": poolStats.Timeouts,
		"pool_total":    poolStats.TotalConns,
		"pool_idle":     poolStats.IdleConns,
		"breaker":       r.breaker.GetStats(),
	}
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
