package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/smartnotes/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DefaultPostgresTable = "kv_store"

// PsqlStore keeps each key as one row of a two column table.
type PsqlStore struct {
	db    *pgxpool.Pool
	table string
}

func NewPsqlStore(ctx context.Context, db *pgxpool.Pool, table string) (*PsqlStore, error) {
	if table == "" {
		table = DefaultPostgresTable
	}
	s := &PsqlStore{
		db:    db,
		table: pgx.Identifier{table}.Sanitize(),
	}

	if _, err := db.Exec(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (
			key        VARCHAR PRIMARY KEY,
			value      BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		s.table,
	)); err != nil {
		return nil, fmt.Errorf("create table %s: %w", s.table, err)
	}

	log.Debugf("postgres store using table: %s", s.table)
	return s, nil
}

func (s *PsqlStore) Read(ctx context.Context, key string) ([]byte, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "psqlStore.read")
	defer span.End()
	span.SetAttributes(attribute.String("key", key))

	var value []byte
	err := s.db.QueryRow(
		ctx,
		fmt.Sprintf(`SELECT value FROM %s WHERE key = $1;`, s.table),
		key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Ok, "not-found")
			return nil, ErrNotFound
		}
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return nil, fmt.Errorf("select [%s]: %w", key, err)
	}

	span.SetStatus(codes.Ok, "ok")
	return value, nil
}

func (s *PsqlStore) Write(ctx context.Context, key string, value []byte) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "psqlStore.write")
	defer span.End()
	span.SetAttributes(
		attribute.String("key", key),
		attribute.Int("size", len(value)),
	)

	if _, err := s.db.Exec(
		ctx,
		fmt.Sprintf(
			`INSERT INTO %s (key, value, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now();`,
			s.table,
		),
		key, value,
	); err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return fmt.Errorf("upsert [%s]: %w", key, err)
	}

	span.SetStatus(codes.Ok, "ok")
	return nil
}

// Close is a no-op, the pool belongs to the caller.
func (s *PsqlStore) Close() error {
	return nil
}
