package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("key not found")

const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendBolt     = "bolt"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

var _ Adapter = (*MemoryStore)(nil)
var _ Adapter = (*FileStore)(nil)
var _ Adapter = (*BoltStore)(nil)
var _ Adapter = (*RedisStore)(nil)
var _ Adapter = (*PsqlStore)(nil)

// Adapter is a key-value byte store. Read returns ErrNotFound for a key that
// was never written.
type Adapter interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, value []byte) error
	Close() error
}

type Params struct {
	Backend         string
	MemoryMaxBlobKB int
	FileDir         string
	BoltPath        string
	PostgresTable   string

	// redis and postgres clients are owned by the caller
	RedisClient *redis.Client
	DBPool      *pgxpool.Pool
}

func New(ctx context.Context, params Params) (Adapter, error) {
	switch strings.ToLower(params.Backend) {
	case "", BackendMemory:
		return NewMemoryStore(params.MemoryMaxBlobKB), nil
	case BackendFile:
		return NewFileStore(params.FileDir)
	case BackendBolt:
		return NewBoltStore(params.BoltPath)
	case BackendRedis:
		if params.RedisClient == nil {
			return nil, errors.New("redis backend: redis client not set")
		}
		return NewRedisStore(params.RedisClient), nil
	case BackendPostgres:
		if params.DBPool == nil {
			return nil, errors.New("postgres backend: db pool not set")
		}
		return NewPsqlStore(ctx, params.DBPool, params.PostgresTable)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", params.Backend)
	}
}
