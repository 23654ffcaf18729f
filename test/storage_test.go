//go:build integration_test || all_tests

package test

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/smartnotes/internal/db"
	"github.com/2beens/smartnotes/internal/notes"
	"github.com/2beens/smartnotes/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestPsqlStore() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	t := s.T()

	pool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost: "localhost",
		DBPort: s.pgPort,
		DBName: testDBName,
	})
	require.NoError(t, err)
	defer pool.Close()

	store, err := storage.NewPsqlStore(ctx, pool, "kv_store_it")
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Read(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Write(ctx, "k", []byte(`[{"id":1,"title":"a","content":"b"}]`)))
	require.NoError(t, store.Write(ctx, "k", []byte(`[]`)))

	value, err := store.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(value))

	var rows int
	require.NoError(t, s.DB.QueryRowContext(ctx, `SELECT count(*) FROM kv_store_it`).Scan(&rows))
	assert.Equal(t, 1, rows)

	// creating the store again keeps existing rows
	again, err := storage.NewPsqlStore(ctx, pool, "kv_store_it")
	require.NoError(t, err)
	value, err = again.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(value))
}

func (s *IntegrationTestSuite) TestRedisStore_NotesRoundTrip() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	t := s.T()

	key := fmt.Sprintf("smartnotes-redis-it-%d", time.Now().UnixNano())
	adapter := storage.NewRedisStore(s.redisClient)

	store := notes.NewStore(adapter, notes.WithKey(key))
	store.Initialize(ctx)
	assert.Empty(t, store.List())

	deadline := time.Date(2031, time.February, 3, 4, 5, 6, 0, time.UTC)
	_, err := store.Add(ctx, "Redis", "backed note", &deadline)
	require.NoError(t, err)
	_, err = store.Add(ctx, "Second", "one", nil)
	require.NoError(t, err)

	reloaded := notes.NewStore(adapter, notes.WithKey(key))
	reloaded.Initialize(ctx)
	require.Len(t, reloaded.List(), 2)
	assert.Equal(t, store.List()[0].ID, reloaded.List()[0].ID)
	require.NotNil(t, reloaded.List()[0].Deadline)
	assert.True(t, deadline.Equal(*reloaded.List()[0].Deadline))
	assert.Nil(t, reloaded.List()[1].Deadline)

	ttl, err := s.redisClient.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl)
}
