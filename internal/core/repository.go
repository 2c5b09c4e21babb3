package core

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/JonMunkholm/exoplorer/internal/storage"
)

// Storage keys inside a client namespace.
const (
	KeyExoplanetData     = "exoplanetData"
	KeyCandidateData     = "candidateData"
	KeyTempCandidateData = "tempCandidateData"
	KeyTempCandidates    = "tempCandidates"
	KeyRecentActivity    = "recentActivity"
)

// MaxRecentActivity caps the activity feed.
const MaxRecentActivity = 5

// TableRepository holds the single saved exoplanet table.
type TableRepository struct {
	store storage.Store
	now   func() time.Time
}

// Save replaces the stored table. Rows are normalized in place to carry
// exactly the header set. A zero Timestamp is set to now.
func (r *TableRepository) Save(ctx context.Context, t *Table) error {
	t.normalize()
	if t.Timestamp.IsZero() {
		t.Timestamp = r.now().UTC()
	}
	if err := storage.SetJSON(ctx, r.store, KeyExoplanetData, t); err != nil {
		return fmt.Errorf("save table: %w", err)
	}
	return nil
}

// Load returns the stored table or ErrNoTable.
func (r *TableRepository) Load(ctx context.Context) (*Table, error) {
	var t Table
	err := storage.GetJSON(ctx, r.store, KeyExoplanetData, &t)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoTable
	}
	if err != nil {
		return nil, fmt.Errorf("load table: %w", err)
	}
	if t.Rows == nil {
		t.Rows = []Row{}
	}
	return &t, nil
}

// Clear removes the stored table.
func (r *TableRepository) Clear(ctx context.Context) error {
	return r.store.Delete(ctx, KeyExoplanetData)
}

// CandidateRepository holds candidate records in insertion order.
type CandidateRepository struct {
	store storage.Store
	ids   IDGenerator
	mu    *sync.Mutex
}

// List returns every record, oldest first. Nothing stored yields an empty slice.
func (r *CandidateRepository) List(ctx context.Context) ([]CandidateRecord, error) {
	var recs []CandidateRecord
	err := storage.GetJSON(ctx, r.store, KeyCandidateData, &recs)
	if errors.Is(err, storage.ErrNotFound) {
		return []CandidateRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	if recs == nil {
		recs = []CandidateRecord{}
	}
	return recs, nil
}

// Append stores a new record built from fields and returns it.
// The ID and timestamp come from the same snowflake.
func (r *CandidateRepository) Append(ctx context.Context, fields map[string]string) (CandidateRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	recs, err := r.List(ctx)
	if err != nil {
		return CandidateRecord{}, err
	}

	id := r.ids.Generate()
	rec := CandidateRecord{
		ID:        id.Int64(),
		Timestamp: idTime(id),
		Fields:    maps.Clone(fields),
	}
	if rec.Fields == nil {
		rec.Fields = map[string]string{}
	}

	if err := storage.SetJSON(ctx, r.store, KeyCandidateData, append(recs, rec)); err != nil {
		return CandidateRecord{}, fmt.Errorf("save candidates: %w", err)
	}
	return rec, nil
}

// Get returns the record with id or ErrCandidateNotFound.
func (r *CandidateRepository) Get(ctx context.Context, id int64) (CandidateRecord, error) {
	recs, err := r.List(ctx)
	if err != nil {
		return CandidateRecord{}, err
	}
	for _, rec := range recs {
		if rec.ID == id {
			return rec, nil
		}
	}
	return CandidateRecord{}, fmt.Errorf("%w: %d", ErrCandidateNotFound, id)
}

// Delete removes exactly the record with id. The others keep their order.
func (r *CandidateRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	recs, err := r.List(ctx)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(recs, func(rec CandidateRecord) bool { return rec.ID == id })
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrCandidateNotFound, id)
	}

	if err := storage.SetJSON(ctx, r.store, KeyCandidateData, slices.Delete(recs, idx, idx+1)); err != nil {
		return fmt.Errorf("save candidates: %w", err)
	}
	return nil
}

// Clear removes every record.
func (r *CandidateRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Delete(ctx, KeyCandidateData)
}

// HandoffRepository holds the transient buffers that carry candidate
// values from one page to the next. Take reads and deletes in one step.
type HandoffRepository struct {
	store storage.Store
	mu    *sync.Mutex
}

// PutCandidate stores the values of a single candidate.
func (h *HandoffRepository) PutCandidate(ctx context.Context, fields map[string]string) error {
	return storage.SetJSON(ctx, h.store, KeyTempCandidateData, fields)
}

// TakeCandidate returns and clears the single-candidate buffer.
// ok is false when the buffer is empty.
func (h *HandoffRepository) TakeCandidate(ctx context.Context) (fields map[string]string, ok bool, err error) {
	ok, err = h.take(ctx, KeyTempCandidateData, &fields)
	return fields, ok, err
}

// PutCandidates stores a batch of candidate value sets.
func (h *HandoffRepository) PutCandidates(ctx context.Context, batch []map[string]string) error {
	return storage.SetJSON(ctx, h.store, KeyTempCandidates, batch)
}

// TakeCandidates returns and clears the batch buffer.
func (h *HandoffRepository) TakeCandidates(ctx context.Context) (batch []map[string]string, ok bool, err error) {
	ok, err = h.take(ctx, KeyTempCandidates, &batch)
	return batch, ok, err
}

func (h *HandoffRepository) take(ctx context.Context, key string, dst any) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	err := storage.GetJSON(ctx, h.store, key, dst)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("take %s: %w", key, err)
	}
	if err := h.store.Delete(ctx, key); err != nil {
		return false, fmt.Errorf("clear %s: %w", key, err)
	}
	return true, nil
}

// ActivityFeed keeps the most recent actions, newest first.
type ActivityFeed struct {
	store storage.Store
	mu    *sync.Mutex
	now   func() time.Time
}

// Record prepends an entry and trims the feed to MaxRecentActivity.
func (f *ActivityFeed) Record(ctx context.Context, kind, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.Recent(ctx)
	if err != nil && !errors.Is(err, storage.ErrCorrupt) {
		return err
	}

	entry := Activity{Message: message, Kind: kind, At: f.now().UTC()}
	entries = append([]Activity{entry}, entries...)
	if len(entries) > MaxRecentActivity {
		entries = entries[:MaxRecentActivity]
	}
	return storage.SetJSON(ctx, f.store, KeyRecentActivity, entries)
}

// Recent returns the feed, newest first.
func (f *ActivityFeed) Recent(ctx context.Context) ([]Activity, error) {
	var entries []Activity
	err := storage.GetJSON(ctx, f.store, KeyRecentActivity, &entries)
	if errors.Is(err, storage.ErrNotFound) {
		return []Activity{}, nil
	}
	if err != nil {
		return []Activity{}, err
	}
	return entries, nil
}
