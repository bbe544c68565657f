// ABOUTME: Store engine serializing all durable-store access behind one writer
// ABOUTME: Batches mutations per write context and commits them atomically

package store

import (
	"context"
	"log/slog"
	"sync"
)

// Backend is the raw storage layer beneath the engine. Apply commits a
// batch of mutations atomically: either every mutation lands or none do.
type Backend interface {
	Fetch(ctx context.Context, q Query) ([]Record, error)
	Count(ctx context.Context, q Query) (int, error)
	Apply(ctx context.Context, muts []Mutation) error
	Reset(ctx context.Context) error
	Location() string
	Close() error
}

// batchDeleter is implemented by backends with a native predicate-delete
// path. Backends without it get the fetch-then-delete-each fallback.
type batchDeleter interface {
	DeleteWhere(ctx context.Context, t RecordType, filters []Filter) (int, error)
}

type mutationKind int

const (
	mutInsert mutationKind = iota
	mutUpdate
	mutDelete
)

// Mutation is a single pending change. Delete mutations are keyed by the
// record's type and primary key; missing rows are skipped silently.
type Mutation struct {
	kind   mutationKind
	Record Record
}

// Writer accumulates mutations inside Engine.Write. Not safe for use
// outside the Write callback.
type Writer struct {
	muts []Mutation
}

// Insert stages a new record.
func (w *Writer) Insert(r Record) {
	w.muts = append(w.muts, Mutation{kind: mutInsert, Record: r})
}

// Update stages a full-record update. Commit fails with ErrNotFound if
// the record no longer exists, rolling back the whole batch.
func (w *Writer) Update(r Record) {
	w.muts = append(w.muts, Mutation{kind: mutUpdate, Record: r})
}

// Delete stages removal of a record. Records that no longer exist are
// skipped silently.
func (w *Writer) Delete(r Record) {
	w.muts = append(w.muts, Mutation{kind: mutDelete, Record: r})
}

// Engine is the single serialized gateway to the durable store. Exactly
// one logical writer is active at a time; reads always observe the
// latest committed write. All methods are safe for concurrent use.
type Engine struct {
	mu      sync.Mutex // serializes writers
	backend Backend
	logger  *slog.Logger
}

// NewEngine wraps a backend. Engines are handed to repositories at
// construction; there is no shared global instance.
func NewEngine(b Backend) *Engine {
	return &Engine{
		backend: b,
		logger:  slog.Default().With("component", "store"),
	}
}

// Fetch returns records matching the query in its sort order.
func (e *Engine) Fetch(ctx context.Context, q Query) ([]Record, error) {
	recs, err := e.backend.Fetch(ctx, q)
	if err != nil {
		return nil, opErr(OpFetch, err)
	}
	return recs, nil
}

// FetchByID returns the record with the given primary key, or nil with
// no error when it does not exist.
func (e *Engine) FetchByID(ctx context.Context, t RecordType, id string) (Record, error) {
	recs, err := e.backend.Fetch(ctx, Query{
		Type:    t,
		Filters: []Filter{Eq("id", id)},
		Limit:   1,
	})
	if err != nil {
		return nil, opErr(OpFetch, err)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}

// Count returns the number of records matching the filters.
func (e *Engine) Count(ctx context.Context, t RecordType, filters ...Filter) (int, error) {
	n, err := e.backend.Count(ctx, Query{Type: t, Filters: filters})
	if err != nil {
		return 0, opErr(OpCount, err)
	}
	return n, nil
}

// Write runs fn with a fresh writer context while holding the writer
// lock. If fn returns nil, all staged mutations commit in one atomic
// save; staging nothing is a no-op. If fn returns an error, nothing is
// saved and the error is returned unwrapped.
func (e *Engine) Write(ctx context.Context, fn func(w *Writer) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	w := &Writer{}
	if err := fn(w); err != nil {
		return err
	}
	if len(w.muts) == 0 {
		return nil
	}
	if err := e.backend.Apply(ctx, w.muts); err != nil {
		return opErr(OpSave, err)
	}
	e.logger.Debug("committed write", "mutations", len(w.muts))
	return nil
}

// Delete removes the given records, silently skipping any that no
// longer exist.
func (e *Engine) Delete(ctx context.Context, recs ...Record) error {
	return e.Write(ctx, func(w *Writer) error {
		for _, r := range recs {
			w.Delete(r)
		}
		return nil
	})
}

// DeleteWhere removes every record of type t matching the filters and
// returns the number removed. Backends with a native predicate-delete
// path use it; others fall back to fetch-all-matching then delete-each.
// Both paths produce the same end state.
func (e *Engine) DeleteWhere(ctx context.Context, t RecordType, filters ...Filter) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if bd, ok := e.backend.(batchDeleter); ok {
		n, err := bd.DeleteWhere(ctx, t, filters)
		if err != nil {
			return 0, opErr(OpDelete, err)
		}
		return n, nil
	}

	recs, err := e.backend.Fetch(ctx, Query{Type: t, Filters: filters})
	if err != nil {
		return 0, opErr(OpDelete, err)
	}
	if len(recs) == 0 {
		return 0, nil
	}
	muts := make([]Mutation, len(recs))
	for i, r := range recs {
		muts[i] = Mutation{kind: mutDelete, Record: r}
	}
	if err := e.backend.Apply(ctx, muts); err != nil {
		return 0, opErr(OpDelete, err)
	}
	e.logger.Debug("batch delete via fallback", "type", string(t), "removed", len(recs))
	return len(recs), nil
}

// Reset destroys and recreates the underlying storage. Fails with
// ErrStoreNotFound when no storage location is configured.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.backend.Location() == "" {
		return ErrStoreNotFound
	}
	if err := e.backend.Reset(ctx); err != nil {
		return opErr(OpReset, err)
	}
	e.logger.Info("store reset", "location", e.backend.Location())
	return nil
}

// Close releases backend resources.
func (e *Engine) Close() error {
	return e.backend.Close()
}
