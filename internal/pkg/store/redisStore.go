package store

import (
	"context"
	"errors"
	"fmt"
	"github.com/redis/go-redis/v9"
	"time"
)

const redisConnectTimeout = 5 * time.Second

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// TTL of 0 keeps records forever. Every Save extends it.
	TTL time.Duration
}

// RedisStore keeps records as JSON strings under session:<id>.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(ctx context.Context, config RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, ttl: config.TTL}, nil
}

func (instance *RedisStore) Save(ctx context.Context, record *SessionRecord) error {
	data, err := encodeRecord(record)
	if err != nil {
		return err
	}

	if err := instance.client.Set(ctx, sessionKey(record.ID), data, instance.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session record: %w", err)
	}
	return nil
}

func (instance *RedisStore) Load(ctx context.Context, id string) (*SessionRecord, error) {
	data, err := instance.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("failed to get session record: %w", err)
	}
	return decodeRecord(data)
}

func (instance *RedisStore) Delete(ctx context.Context, id string) error {
	if err := instance.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session record: %w", err)
	}
	return nil
}

func (instance *RedisStore) Close() error {
	return instance.client.Close()
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}
