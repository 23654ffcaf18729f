package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/smartnotes/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type RedisStore struct {
	redisClient *redis.Client
}

func NewRedisStore(redisClient *redis.Client) *RedisStore {
	return &RedisStore{
		redisClient: redisClient,
	}
}

func (s *RedisStore) Read(ctx context.Context, key string) ([]byte, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "redisStore.read")
	defer span.End()
	span.SetAttributes(attribute.String("key", key))

	value, err := s.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			span.SetStatus(codes.Ok, "not-found")
			return nil, ErrNotFound
		}
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return nil, fmt.Errorf("redis get [%s]: %w", key, err)
	}

	span.SetStatus(codes.Ok, "ok")
	return value, nil
}

func (s *RedisStore) Write(ctx context.Context, key string, value []byte) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "redisStore.write")
	defer span.End()
	span.SetAttributes(
		attribute.String("key", key),
		attribute.Int("size", len(value)),
	)

	// no expiration, notes live until deleted
	if err := s.redisClient.Set(ctx, key, value, 0).Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return fmt.Errorf("redis set [%s]: %w", key, err)
	}

	span.SetStatus(codes.Ok, "ok")
	return nil
}

// Close is a no-op, the redis client belongs to the caller.
func (s *RedisStore) Close() error {
	return nil
}
