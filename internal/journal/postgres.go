package journal

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS sync_journal (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL,
	command    TEXT NOT NULL,
	language   TEXT NOT NULL,
	domain     TEXT NOT NULL,
	msg_key    TEXT NOT NULL,
	op         TEXT NOT NULL,
	old_hash   TEXT NOT NULL,
	new_hash   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS sync_journal_created_at_idx ON sync_journal (created_at DESC);
`

const pgInsert = `
INSERT INTO sync_journal (id, run_id, command, language, domain, msg_key, op, old_hash, new_hash, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const pgRecent = `
SELECT id, run_id, command, language, domain, msg_key, op, old_hash, new_hash, created_at
FROM sync_journal
ORDER BY created_at DESC, id
LIMIT $1`

type pgBackend struct {
	pool *pgxpool.Pool
}

func openPostgres(ctx context.Context, dsn string) (*pgBackend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	log.Info().Msg("Connected to PostgreSQL journal")
	return &pgBackend{pool: pool}, nil
}

func (b *pgBackend) ensureSchema(ctx context.Context) error {
	_, err := b.pool.Exec(ctx, pgSchema)
	return err
}

func (b *pgBackend) insert(ctx context.Context, entries []Entry) error {
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(pgInsert, e.ID, e.RunID, e.Command, e.Language, e.Domain, e.Key, e.Op, e.OldHash, e.NewHash, e.CreatedAt)
	}

	br := b.pool.SendBatch(ctx, batch)
	defer br.Close()
	for _, e := range entries {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert %s: %w", e.Key, err)
		}
	}
	return nil
}

func (b *pgBackend) recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := b.pool.Query(ctx, pgRecent, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.RunID, &e.Command, &e.Language, &e.Domain, &e.Key, &e.Op, &e.OldHash, &e.NewHash, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (b *pgBackend) close() {
	b.pool.Close()
}
