package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/coocood/freecache"
)

const (
	DefaultMemoryMaxBlobKB = 256
	MaxMemoryMaxBlobKB     = 4096

	// freecache splits the cache into 256 segments and refuses entries over
	// a quarter of a segment, i.e. over 1/1024 of the whole cache
	freecacheEntryRatio = 1024
	// room for the entry header and the key
	freecacheEntrySlack = 1024
)

var ErrValueTooLarge = errors.New("value larger than the memory store limit")

// MemoryStore keeps values in an in-process freecache. The cache is sized so
// that a single value of up to maxValueBytes always fits.
type MemoryStore struct {
	cache         *freecache.Cache
	maxValueBytes int
}

// NewMemoryStore creates a store taking values of up to maxBlobKB kilobytes.
// Zero or less selects DefaultMemoryMaxBlobKB.
func NewMemoryStore(maxBlobKB int) *MemoryStore {
	if maxBlobKB <= 0 {
		maxBlobKB = DefaultMemoryMaxBlobKB
	}
	maxValueBytes := maxBlobKB * 1024
	return &MemoryStore{
		cache:         freecache.NewCache(memoryCacheSize(maxValueBytes)),
		maxValueBytes: maxValueBytes,
	}
}

// memoryCacheSize returns a freecache size whose entry limit covers a value
// of maxValueBytes plus its key. Only the segment a key hashes to is written.
func memoryCacheSize(maxValueBytes int) int {
	return (maxValueBytes + freecacheEntrySlack) * freecacheEntryRatio
}

func (s *MemoryStore) MaxValueBytes() int {
	return s.maxValueBytes
}

func (s *MemoryStore) Read(_ context.Context, key string) ([]byte, error) {
	value, err := s.cache.Get([]byte(key))
	if err != nil {
		if errors.Is(err, freecache.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("memory get [%s]: %w", key, err)
	}
	return value, nil
}

func (s *MemoryStore) Write(_ context.Context, key string, value []byte) error {
	if len(value) > s.maxValueBytes {
		return fmt.Errorf("memory set [%s]: %d bytes over %d: %w", key, len(value), s.maxValueBytes, ErrValueTooLarge)
	}
	// no expiration
	if err := s.cache.Set([]byte(key), value, 0); err != nil {
		return fmt.Errorf("memory set [%s]: %w", key, err)
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.cache.Clear()
	return nil
}
