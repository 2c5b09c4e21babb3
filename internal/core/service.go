package core

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"sync"
	"time"

	"github.com/JonMunkholm/exoplorer/internal/logging"
	"github.com/JonMunkholm/exoplorer/internal/storage"
)

// lockStripes bounds the number of mutexes shared by all client namespaces.
const lockStripes = 64

// Service owns the shared storage backend and hands out per-client
// workspaces. It also gates concurrent uploads.
type Service struct {
	store   storage.Store
	ids     IDGenerator
	uploads *UploadLimiter
	now     func() time.Time

	stripes [lockStripes]sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithUploadLimiter replaces the default upload limiter.
func WithUploadLimiter(l *UploadLimiter) Option {
	return func(s *Service) { s.uploads = l }
}

// NewService creates a Service over store. ids issues candidate IDs.
func NewService(store storage.Store, ids IDGenerator, opts ...Option) *Service {
	s := &Service{
		store:   store,
		ids:     ids,
		uploads: NewUploadLimiter(DefaultMaxConcurrentUploads, DefaultMaxWaitTime),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Workspace returns the repositories scoped to one client. An empty
// clientID addresses the unscoped keys, which the CLI uses.
func (s *Service) Workspace(clientID string) *Workspace {
	var st storage.Store = s.store
	if clientID != "" {
		st = storage.Namespace(s.store, clientID)
	}
	mu := s.stripe(clientID)

	return &Workspace{
		ClientID:   clientID,
		Tables:     &TableRepository{store: st, now: s.now},
		Candidates: &CandidateRepository{store: st, ids: s.ids, mu: mu},
		Handoff:    &HandoffRepository{store: st, mu: mu},
		Activity:   &ActivityFeed{store: st, mu: mu, now: s.now},
	}
}

func (s *Service) stripe(clientID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(clientID))
	return &s.stripes[h.Sum32()%lockStripes]
}

// AcquireUpload reserves an upload slot. The returned func releases it.
func (s *Service) AcquireUpload(ctx context.Context) (func(), error) {
	if err := s.uploads.Acquire(ctx); err != nil {
		return nil, err
	}
	return s.uploads.Release, nil
}

// UploadStatus reports upload slot usage.
func (s *Service) UploadStatus() UploadLimiterStatus {
	return s.uploads.Status()
}

// WaitForUploads blocks until in-flight uploads finish or ctx ends.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.uploads.WaitForDrain(ctx)
}

// Workspace bundles one client's repositories. The higher-level methods
// also maintain the activity feed.
type Workspace struct {
	ClientID   string
	Tables     *TableRepository
	Candidates *CandidateRepository
	Handoff    *HandoffRepository
	Activity   *ActivityFeed
}

// record adds an activity entry. Feed failures are logged, never returned.
func (w *Workspace) record(ctx context.Context, kind, format string, args ...any) {
	if err := w.Activity.Record(ctx, kind, fmt.Sprintf(format, args...)); err != nil {
		logging.FromContext(ctx).Warn("activity feed update failed", "kind", kind, "error", err)
	}
}

// IngestTable parses an uploaded CSV or XLSX file and replaces the saved
// table with it. Nothing is saved when parsing fails.
func (w *Workspace) IngestTable(ctx context.Context, r io.Reader, fileName string, maxSize int64) (*Table, error) {
	logger := logging.WithFields(ctx, "file", fileName)

	t, err := ReadTable(r, fileName, maxSize)
	if err != nil {
		logger.Debug("table rejected", "error", err)
		return nil, err
	}
	if err := w.Tables.Save(ctx, t); err != nil {
		return nil, err
	}

	logger.Info("exoplanet table saved", "columns", len(t.Headers), "rows", len(t.Rows))
	w.record(ctx, "table", "Uploaded %s (%d rows)", t.FileName, len(t.Rows))
	return t, nil
}

// ClearTable removes the saved table.
func (w *Workspace) ClearTable(ctx context.Context) error {
	if err := w.Tables.Clear(ctx); err != nil {
		return err
	}
	w.record(ctx, "table", "Cleared exoplanet data")
	return nil
}

// SubmitCandidate saves a form submission. It fails with ErrNoFields when
// fields is empty. The returned checks are advisory; invalid values are
// saved as entered. The values are also left in the single-candidate
// hand-off buffer for the prediction page.
func (w *Workspace) SubmitCandidate(ctx context.Context, fields map[string]string) (CandidateRecord, []FieldCheck, error) {
	if len(fields) == 0 {
		return CandidateRecord{}, nil, ErrNoFields
	}

	rec, err := w.Candidates.Append(ctx, fields)
	if err != nil {
		return CandidateRecord{}, nil, err
	}
	if err := w.Handoff.PutCandidate(ctx, rec.Fields); err != nil {
		logging.FromContext(ctx).Warn("candidate hand-off failed", "id", rec.ID, "error", err)
	}

	w.record(ctx, "candidate", "Added candidate with %d fields", len(rec.Fields))
	return rec, ValidateRecord(rec.Fields), nil
}

// DeleteCandidate removes one record.
func (w *Workspace) DeleteCandidate(ctx context.Context, id int64) error {
	if err := w.Candidates.Delete(ctx, id); err != nil {
		return err
	}
	w.record(ctx, "candidate", "Deleted candidate %d", id)
	return nil
}

// ClearCandidates removes every record.
func (w *Workspace) ClearCandidates(ctx context.Context) error {
	if err := w.Candidates.Clear(ctx); err != nil {
		return err
	}
	w.record(ctx, "candidate", "Cleared all candidates")
	return nil
}

// RecordFileUpload notes a gallery upload in the activity feed.
func (w *Workspace) RecordFileUpload(ctx context.Context, name string) {
	w.record(ctx, "file", "Uploaded file %s", name)
}

// ExportCandidatesCSV writes every record with columns id, timestamp and
// CandidateColumns. Timestamps are RFC 3339 in UTC.
func (w *Workspace) ExportCandidatesCSV(ctx context.Context, out io.Writer) (int, error) {
	recs, err := w.Candidates.List(ctx)
	if err != nil {
		return 0, err
	}

	cols := CandidateColumns(recs)
	headers := append([]string{"id", "timestamp"}, cols...)
	rows := make([]Row, len(recs))
	for i, rec := range recs {
		row := make(Row, len(headers))
		row["id"] = fmt.Sprint(rec.ID)
		row["timestamp"] = rec.Timestamp.UTC().Format(time.RFC3339)
		for _, c := range cols {
			row[c] = rec.Fields[c]
		}
		rows[i] = row
	}

	return len(recs), EncodeCSV(out, headers, rows)
}
