package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
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
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS sync_journal_created_at_idx ON sync_journal (created_at DESC);
`

const sqliteInsert = `
INSERT INTO sync_journal (id, run_id, command, language, domain, msg_key, op, old_hash, new_hash, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const sqliteRecent = `
SELECT id, run_id, command, language, domain, msg_key, op, old_hash, new_hash, created_at
FROM sync_journal
ORDER BY created_at DESC, rowid DESC
LIMIT ?`

type sqliteBackend struct {
	db *sql.DB
}

func openSQLite(path string) (*sqliteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open SQLite %s: %w", path, err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) ensureSchema(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, sqliteSchema)
	return err
}

func (b *sqliteBackend) insert(ctx context.Context, entries []Entry) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, sqliteInsert)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.ID, e.RunID, e.Command, e.Language, e.Domain, e.Key, e.Op, e.OldHash, e.NewHash, e.CreatedAt.UnixNano()); err != nil {
			return fmt.Errorf("insert %s: %w", e.Key, err)
		}
	}
	return tx.Commit()
}

func (b *sqliteBackend) recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := b.db.QueryContext(ctx, sqliteRecent, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.ID, &e.RunID, &e.Command, &e.Language, &e.Domain, &e.Key, &e.Op, &e.OldHash, &e.NewHash, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(0, created).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (b *sqliteBackend) close() {
	b.db.Close()
}
