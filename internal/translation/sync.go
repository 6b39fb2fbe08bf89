// Package translation reconciles two key/value translation stores.
package translation

import (
	"slices"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Store is a flat key/value view of one translation file.
type Store interface {
	// Keys returns every key held by the store.
	Keys() []string
	// Get returns the value of key; ok is false when the key holds no value.
	Get(key string) (value string, ok bool, err error)
	// Set stores value under key.
	Set(key, value string) error
	// Remove deletes key.
	Remove(key string) error
}

// Op is the kind of mutation applied to a destination store.
type Op string

const (
	OpSet    Op = "set"
	OpRemove Op = "remove"
)

// Change records one mutation applied to a destination store.
type Change struct {
	Key string
	Op  Op
	// Old is nil when the destination held no value.
	Old *string
	// New is nil for removals.
	New *string
}

// Syncer applies source values to a destination and remembers what it did.
// A Syncer is not safe for concurrent use.
type Syncer struct {
	logger  zerolog.Logger
	changes []Change
}

// NewSyncer creates a Syncer logging through logger.
func NewSyncer(logger zerolog.Logger) *Syncer {
	return &Syncer{logger: logger}
}

// Changes returns the mutations applied so far.
func (s *Syncer) Changes() []Change {
	return slices.Clone(s.changes)
}

// Reset forgets recorded changes.
func (s *Syncer) Reset() {
	s.changes = s.changes[:0]
}

// Sync copies every source key into dst. Keys only present in dst are left
// alone. An absent source value removes the key from dst.
func (s *Syncer) Sync(src, dst Store) (bool, error) {
	changed := false
	for _, key := range src.Keys() {
		value, ok, err := src.Get(key)
		if err != nil {
			return changed, err
		}
		old, oldOK, err := dst.Get(key)
		if err != nil {
			return changed, err
		}
		if ok == oldOK && value == old {
			continue
		}

		changed = true
		if !ok {
			if err := dst.Remove(key); err != nil {
				return changed, err
			}
			s.record(Change{Key: key, Op: OpRemove, Old: optional(old, oldOK)})
			continue
		}
		if err := dst.Set(key, value); err != nil {
			return changed, err
		}
		s.record(Change{Key: key, Op: OpSet, Old: optional(old, oldOK), New: optional(value, true)})
	}
	return changed, nil
}

// CleanUp removes every dst key that src does not have.
func (s *Syncer) CleanUp(src, dst Store) (bool, error) {
	known := make(map[string]struct{})
	for _, key := range src.Keys() {
		known[key] = struct{}{}
	}

	removed := false
	// Remove may reorder the slice Keys returned.
	for _, key := range slices.Clone(dst.Keys()) {
		if _, ok := known[key]; ok {
			continue
		}
		old, oldOK, err := dst.Get(key)
		if err != nil {
			return removed, err
		}
		if err := dst.Remove(key); err != nil {
			return removed, err
		}
		removed = true
		s.record(Change{Key: key, Op: OpRemove, Old: optional(old, oldOK)})
	}
	return removed, nil
}

// SyncFrom runs CleanUp (when cleanUp is set) and then Sync. The result is
// true if either step changed dst.
func (s *Syncer) SyncFrom(src, dst Store, cleanUp bool) (bool, error) {
	changed := false
	if cleanUp {
		removed, err := s.CleanUp(src, dst)
		if err != nil {
			return removed, err
		}
		changed = removed
	}

	synced, err := s.Sync(src, dst)
	return changed || synced, err
}

func (s *Syncer) record(c Change) {
	s.changes = append(s.changes, c)
	s.logger.Debug().Str("key", c.Key).Str("op", string(c.Op)).Msg("Translation changed")
}

func optional(v string, ok bool) *string {
	if !ok {
		return nil
	}
	return &v
}

// Sync copies src into dst using the global logger. See Syncer.Sync.
func Sync(src, dst Store) (bool, error) {
	return NewSyncer(log.Logger).Sync(src, dst)
}

// CleanUp removes dst keys missing from src. See Syncer.CleanUp.
func CleanUp(src, dst Store) (bool, error) {
	return NewSyncer(log.Logger).CleanUp(src, dst)
}

// SyncFrom runs cleanup and sync. See Syncer.SyncFrom.
func SyncFrom(src, dst Store, cleanUp bool) (bool, error) {
	return NewSyncer(log.Logger).SyncFrom(src, dst, cleanUp)
}
