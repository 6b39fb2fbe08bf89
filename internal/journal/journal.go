// Package journal records every key a sync run changed. Values are stored as
// BLAKE3 fingerprints, never in clear text.
package journal

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"contao-l10n-sync/internal/textutil"
	"contao-l10n-sync/internal/translation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Entry is one recorded change.
type Entry struct {
	ID        string
	RunID     string
	Command   string
	Language  string
	Domain    string
	Key       string
	Op        string
	OldHash   string
	NewHash   string
	CreatedAt time.Time
}

// Scope identifies the file pair a list of changes belongs to.
type Scope struct {
	RunID    string
	Command  string
	Language string
	Domain   string
}

// NewRunID returns a fresh identifier grouping the entries of one command run.
func NewRunID() string {
	return uuid.NewString()
}

// Entries converts the changes of one sync into journal entries.
func Entries(scope Scope, changes []translation.Change) []Entry {
	entries := make([]Entry, 0, len(changes))
	for _, c := range changes {
		entries = append(entries, Entry{
			RunID:    scope.RunID,
			Command:  scope.Command,
			Language: scope.Language,
			Domain:   scope.Domain,
			Key:      c.Key,
			Op:       string(c.Op),
			OldHash:  textutil.HashValue(c.Old),
			NewHash:  textutil.HashValue(c.New),
		})
	}
	return entries
}

type backend interface {
	ensureSchema(ctx context.Context) error
	insert(ctx context.Context, entries []Entry) error
	recent(ctx context.Context, limit int) ([]Entry, error)
	close()
}

// Journal persists entries in PostgreSQL or SQLite, or keeps them in memory
// when no database is configured. Record is safe for concurrent use.
type Journal struct {
	mu      sync.RWMutex
	backend backend
	memory  []Entry
	now     func() time.Time
}

// Open connects to the journal database named by dsn:
//
//	postgres://... or postgresql://...  PostgreSQL via pgx
//	sqlite:<path>                       SQLite file
//	""                                  in-memory, lost on exit
func Open(ctx context.Context, dsn string) (*Journal, error) {
	j := &Journal{now: time.Now}

	switch {
	case dsn == "":
		log.Debug().Msg("No journal database configured, keeping journal in memory")
		return j, nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		b, err := openPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		j.backend = b
	case strings.HasPrefix(dsn, "sqlite:"):
		path := strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite:"), "//")
		b, err := openSQLite(path)
		if err != nil {
			return nil, err
		}
		j.backend = b
	default:
		return nil, fmt.Errorf("unsupported journal database %q", dsn)
	}

	if err := j.backend.ensureSchema(ctx); err != nil {
		j.backend.close()
		return nil, fmt.Errorf("ensure journal schema: %w", err)
	}
	return j, nil
}

// Record stores entries, assigning ids and timestamps where missing.
func (j *Journal) Record(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	now := j.now().UTC()
	stamped := make([]Entry, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		stamped[i] = e
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.backend == nil {
		j.memory = append(j.memory, stamped...)
		return nil
	}
	if err := j.backend.insert(ctx, stamped); err != nil {
		return fmt.Errorf("record journal entries: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.backend == nil {
		out := slices.Clone(j.memory)
		slices.Reverse(out)
		if len(out) > limit {
			out = out[:limit]
		}
		return out, nil
	}

	entries, err := j.backend.recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	return entries, nil
}

// Close releases the database connection.
func (j *Journal) Close() {
	if j.backend != nil {
		j.backend.close()
	}
}
