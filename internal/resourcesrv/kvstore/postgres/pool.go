// Package postgres provides the durable Store implementation. Items live in
// one table keyed by (pk, sk) with a jsonb attribute document; a second
// btree index on (sk, pk) is the role-swapped forward index.
package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/kudocloud/kudo-internal/internal/resourcesrv/kvstore"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/kvstore/kverror"
)

// Config carries the connection settings for the store.
type Config struct {
	DSN string
	// Table is the resource table name. Defaults to "kudo_resources".
	Table string
	// MaxAttempts bounds the adapter's transient-failure retries per call.
	// Defaults to 3.
	MaxAttempts uint
	// MaxOpenConns bounds the pool. Defaults to 16.
	MaxOpenConns int
}

// New opens the pool, verifies connectivity and ensures the table and the
// forward index exist.
func New(ctx context.Context, cfg Config) (kvstore.Store, error) {
	if cfg.Table == "" {
		cfg.Table = "kudo_resources"
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 16
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to open store")
		return nil, kverror.ErrStoreUnavailable.Err(err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to ping store")
		db.Close()
		return nil, kverror.ErrStoreUnavailable.Err(err)
	}

	s := &store{
		db:       db,
		table:    pq.QuoteIdentifier(cfg.Table),
		attempts: cfg.MaxAttempts,
	}
	if err := s.ensureSchema(ctx, cfg.Table); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *store) ensureSchema(ctx context.Context, rawTable string) error {
	createTable := `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
		pk    text NOT NULL,
		sk    text NOT NULL,
		attrs jsonb NOT NULL DEFAULT '{}'::jsonb,
		PRIMARY KEY (pk, sk)
	)`
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to create resource table")
		return kverror.ErrStoreUnavailable.Err(err)
	}
	createIndex := `CREATE INDEX IF NOT EXISTS ` +
		pq.QuoteIdentifier(rawTable+"_forward_idx") +
		` ON ` + s.table + ` (sk, pk)`
	if _, err := s.db.ExecContext(ctx, createIndex); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to create forward index")
		return kverror.ErrStoreUnavailable.Err(err)
	}
	return nil
}
