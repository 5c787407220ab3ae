// Package identifiers resolves ticker symbols to registry identifiers through a
// versioned, periodically rebuilt snapshot of the bulk ticker registry.
package identifiers

import (
	"sort"
	"strings"
	"time"

	"github.com/aristath/insights/internal/domain"
)

// Snapshot is an immutable symbol -> registry entry index.
// A snapshot is never modified after construction; rebuilds publish a new one.
type Snapshot struct {
	version     uint64
	retrievedAt time.Time
	index       map[string]domain.RegistryEntry
}

func newSnapshot(entries []domain.RegistryEntry, retrievedAt time.Time, version uint64) *Snapshot {
	index := make(map[string]domain.RegistryEntry, len(entries))
	for _, e := range entries {
		e.Symbol = strings.ToUpper(strings.TrimSpace(e.Symbol))
		if e.Symbol == "" || e.Identifier == "" {
			continue
		}
		if _, exists := index[e.Symbol]; exists {
			continue
		}
		index[e.Symbol] = e
	}
	return &Snapshot{
		version:     version,
		retrievedAt: retrievedAt.UTC(),
		index:       index,
	}
}

// Lookup returns the entry for an already-uppercased symbol
func (s *Snapshot) Lookup(symbol string) (domain.RegistryEntry, bool) {
	e, ok := s.index[symbol]
	return e, ok
}

// Version increases by one with every snapshot the cache publishes
func (s *Snapshot) Version() uint64 { return s.version }

// RetrievedAt is when the registry behind this snapshot was fetched
func (s *Snapshot) RetrievedAt() time.Time { return s.retrievedAt }

// Len returns the number of indexed symbols
func (s *Snapshot) Len() int { return len(s.index) }

// Age returns how old the snapshot is relative to now
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.retrievedAt)
}

// FreshAt reports whether now - retrievedAt < window
func (s *Snapshot) FreshAt(now time.Time, window time.Duration) bool {
	return s.Age(now) < window
}

// Entries returns the indexed entries ordered by symbol
func (s *Snapshot) Entries() []domain.RegistryEntry {
	out := make([]domain.RegistryEntry, 0, len(s.index))
	for _, e := range s.index {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// record converts the snapshot to its persisted form
func (s *Snapshot) record() *Record {
	mapping := make(map[string]domain.RegistryEntry, len(s.index))
	for k, v := range s.index {
		mapping[k] = v
	}
	return &Record{Timestamp: s.retrievedAt, Mapping: mapping}
}

func snapshotFromRecord(rec *Record, version uint64) *Snapshot {
	entries := make([]domain.RegistryEntry, 0, len(rec.Mapping))
	for symbol, e := range rec.Mapping {
		if e.Symbol == "" {
			e.Symbol = symbol
		}
		entries = append(entries, e)
	}
	// Map iteration order is random; sort so duplicate resolution is stable.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Symbol < entries[j].Symbol })
	return newSnapshot(entries, rec.Timestamp, version)
}
