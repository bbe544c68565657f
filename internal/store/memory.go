// ABOUTME: In-memory backend for tests and ephemeral use
// ABOUTME: Mirrors SQLite semantics without a native predicate-delete path

package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryBackend is an ephemeral Backend implementation. It deliberately
// does not implement the native predicate-delete interface so the
// engine's fetch-then-delete fallback stays exercised.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[RecordType]map[string]Record
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: newTables()}
}

func newTables() map[RecordType]map[string]Record {
	return map[RecordType]map[string]Record{
		TypeIdentity: {},
		TypePersona:  {},
		TypePost:     {},
		TypeMedia:    {},
	}
}

// Fetch returns copies of records matching the query in its sort order.
func (m *MemoryBackend) Fetch(ctx context.Context, q Query) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var recs []Record
	for _, r := range m.data[q.Type] {
		if q.Match(r) {
			recs = append(recs, r)
		}
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return q.less(recs[i], recs[j])
	})

	if q.Offset > 0 {
		if q.Offset >= len(recs) {
			recs = nil
		} else {
			recs = recs[q.Offset:]
		}
	}
	if q.Limit > 0 && len(recs) > q.Limit {
		recs = recs[:q.Limit]
	}

	out := make([]Record, len(recs))
	for i, r := range recs {
		out[i] = r.Clone()
	}
	return out, nil
}

// Count returns the number of records matching the query's filters.
func (m *MemoryBackend) Count(ctx context.Context, q Query) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, r := range m.data[q.Type] {
		if q.Match(r) {
			n++
		}
	}
	return n, nil
}

// Apply commits a batch of mutations atomically. Updates of missing
// records fail with ErrNotFound before anything is changed; deletes of
// missing records are skipped silently.
func (m *MemoryBackend) Apply(ctx context.Context, muts []Mutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Validate first so a failing update leaves the batch unapplied.
	staged := map[string]bool{}
	for _, mut := range muts {
		key := string(mut.Record.Type()) + "/" + mut.Record.PrimaryKey()
		switch mut.kind {
		case mutInsert:
			staged[key] = true
		case mutUpdate:
			if _, ok := m.data[mut.Record.Type()][mut.Record.PrimaryKey()]; !ok && !staged[key] {
				return ErrNotFound
			}
		}
	}

	for _, mut := range muts {
		table := m.data[mut.Record.Type()]
		switch mut.kind {
		case mutInsert, mutUpdate:
			table[mut.Record.PrimaryKey()] = mut.Record.Clone()
		case mutDelete:
			delete(table, mut.Record.PrimaryKey())
		}
	}
	return nil
}

// Reset clears all records.
func (m *MemoryBackend) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = newTables()
	return nil
}

// Location returns "" — the memory backend has no storage location.
func (m *MemoryBackend) Location() string { return "" }

// Close is a no-op.
func (m *MemoryBackend) Close() error { return nil }
