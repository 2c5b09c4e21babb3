package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/exoplorer/internal/storage"
)

func newTestService(t *testing.T) (*Service, *storage.Memory) {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatal(err)
	}
	store := storage.NewMemory()
	clock := func() time.Time { return time.Date(2025, 10, 4, 12, 0, 0, 0, time.UTC) }
	return NewService(store, node, WithClock(clock)), store
}

func TestTableRepository_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	repo := svc.Workspace("client").Tables

	if _, err := repo.Load(ctx); !errors.Is(err, ErrNoTable) {
		t.Fatalf("Load() on empty store error = %v, want ErrNoTable", err)
	}

	tbl := &Table{
		Headers:  []string{"a", "b"},
		Rows:     []Row{{"a": "1", "b": "2"}, {"a": "3"}},
		FileName: "koi.csv",
	}
	if err := repo.Save(ctx, tbl); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := &Table{
		Headers:   []string{"a", "b"},
		Rows:      []Row{{"a": "1", "b": "2"}, {"a": "3", "b": ""}},
		FileName:  "koi.csv",
		Timestamp: time.Date(2025, 10, 4, 12, 0, 0, 0, time.UTC),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}

	// Save overwrites wholesale.
	if err := repo.Save(ctx, &Table{Headers: []string{"z"}, Rows: []Row{}}); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.Load(ctx)
	if diff := cmp.Diff([]string{"z"}, got.Headers); diff != "" {
		t.Errorf("overwrite mismatch:\n%s", diff)
	}

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, err := repo.Load(ctx); !errors.Is(err, ErrNoTable) {
		t.Errorf("Load() after Clear error = %v, want ErrNoTable", err)
	}
}

func TestTableRepository_CorruptValue(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	store.Set(ctx, "client:"+KeyExoplanetData, []byte("{garbage"))

	_, err := svc.Workspace("client").Tables.Load(ctx)
	if !errors.Is(err, storage.ErrCorrupt) {
		t.Fatalf("Load() error = %v, want ErrCorrupt", err)
	}
	if code := MapError(err).Code; code != "STO001" {
		t.Errorf("MapError code = %q, want STO001", code)
	}
}

func TestCandidateRepository_AppendListDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	repo := svc.Workspace("client").Candidates

	list, err := repo.List(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("List() on empty store = %v, %v", list, err)
	}

	var ids []int64
	for i := 0; i < 3; i++ {
		rec, err := repo.Append(ctx, map[string]string{"koi_prad": fmt.Sprint(i)})
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if rec.Timestamp.IsZero() {
			t.Error("Append() left Timestamp zero")
		}
		ids = append(ids, rec.ID)
	}

	list, _ = repo.List(ctx)
	if len(list) != 3 {
		t.Fatalf("List() len = %d, want 3", len(list))
	}
	for i, rec := range list {
		if rec.ID != ids[i] {
			t.Errorf("List()[%d].ID = %d, want %d (insertion order)", i, rec.ID, ids[i])
		}
	}

	if err := repo.Delete(ctx, ids[1]); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	list, _ = repo.List(ctx)
	if len(list) != 2 || list[0].ID != ids[0] || list[1].ID != ids[2] {
		t.Errorf("after Delete, List() = %+v", list)
	}

	if err := repo.Delete(ctx, ids[1]); !errors.Is(err, ErrCandidateNotFound) {
		t.Errorf("Delete(absent) error = %v, want ErrCandidateNotFound", err)
	}

	got, err := repo.Get(ctx, ids[2])
	if err != nil || got.Fields["koi_prad"] != "2" {
		t.Errorf("Get() = %+v, %v", got, err)
	}

	if err := repo.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	list, _ = repo.List(ctx)
	if len(list) != 0 {
		t.Errorf("List() after Clear len = %d", len(list))
	}
}

func TestCandidateRepository_UniqueIDsUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	repo := svc.Workspace("client").Candidates

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Append(ctx, map[string]string{"koi_score": "1"}); err != nil {
				t.Errorf("Append() error = %v", err)
			}
		}()
	}
	wg.Wait()

	list, _ := repo.List(ctx)
	if len(list) != 25 {
		t.Fatalf("List() len = %d, want 25 (lost update)", len(list))
	}
	seen := make(map[int64]bool)
	for _, rec := range list {
		if seen[rec.ID] {
			t.Errorf("duplicate id %d", rec.ID)
		}
		seen[rec.ID] = true
	}
}

func TestCandidateRepository_DoesNotAliasFields(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	repo := svc.Workspace("client").Candidates

	fields := map[string]string{"koi_prad": "1"}
	rec, _ := repo.Append(ctx, fields)
	fields["koi_prad"] = "changed"

	got, _ := repo.Get(ctx, rec.ID)
	if got.Fields["koi_prad"] != "1" {
		t.Errorf("stored record changed through caller map: %q", got.Fields["koi_prad"])
	}
}

func TestWorkspace_Isolation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	a := svc.Workspace("a")
	b := svc.Workspace("b")
	if _, _, err := a.SubmitCandidate(ctx, map[string]string{"koi_prad": "1"}); err != nil {
		t.Fatal(err)
	}

	list, _ := b.Candidates.List(ctx)
	if len(list) != 0 {
		t.Errorf("client b sees %d candidates from client a", len(list))
	}
}

func TestWorkspace_SubmitCandidate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	ws := svc.Workspace("client")

	if _, _, err := ws.SubmitCandidate(ctx, map[string]string{}); !errors.Is(err, ErrNoFields) {
		t.Errorf("SubmitCandidate(empty) error = %v, want ErrNoFields", err)
	}

	rec, checks, err := ws.SubmitCandidate(ctx, map[string]string{"koi_count": "2.5", "koi_prad": "1.1"})
	if err != nil {
		t.Fatalf("SubmitCandidate() error = %v", err)
	}
	if AllValid(checks) {
		t.Error("expected koi_count=2.5 to be flagged invalid")
	}
	if rec.Fields["koi_count"] != "2.5" {
		t.Error("invalid value must still be saved as entered")
	}

	handoff, ok, err := ws.Handoff.TakeCandidate(ctx)
	if err != nil || !ok {
		t.Fatalf("TakeCandidate() = %v, %v, %v", handoff, ok, err)
	}
	if diff := cmp.Diff(rec.Fields, handoff); diff != "" {
		t.Errorf("hand-off mismatch (-want +got):\n%s", diff)
	}
	if _, ok, _ := ws.Handoff.TakeCandidate(ctx); ok {
		t.Error("TakeCandidate() should clear the buffer")
	}
}

func TestHandoff_Batch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	h := svc.Workspace("client").Handoff

	if _, ok, err := h.TakeCandidates(ctx); ok || err != nil {
		t.Fatalf("TakeCandidates() on empty = %v, %v", ok, err)
	}

	batch := []map[string]string{{"koi_prad": "1"}, {"koi_prad": "2"}}
	if err := h.PutCandidates(ctx, batch); err != nil {
		t.Fatal(err)
	}
	got, ok, err := h.TakeCandidates(ctx)
	if err != nil || !ok {
		t.Fatalf("TakeCandidates() = %v, %v", ok, err)
	}
	if diff := cmp.Diff(batch, got); diff != "" {
		t.Errorf("batch mismatch (-want +got):\n%s", diff)
	}
}

func TestActivityFeed_CapsAndOrders(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	feed := svc.Workspace("client").Activity

	for i := 1; i <= 7; i++ {
		if err := feed.Record(ctx, "test", fmt.Sprintf("event %d", i)); err != nil {
			t.Fatal(err)
		}
	}

	got, err := feed.Recent(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != MaxRecentActivity {
		t.Fatalf("Recent() len = %d, want %d", len(got), MaxRecentActivity)
	}
	for i, a := range got {
		want := fmt.Sprintf("event %d", 7-i)
		if a.Message != want {
			t.Errorf("Recent()[%d] = %q, want %q", i, a.Message, want)
		}
	}
}

func TestWorkspace_IngestTable(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	ws := svc.Workspace("client")

	_, err := ws.IngestTable(ctx, strings.NewReader("\n\n"), "empty.csv", 0)
	if !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("IngestTable(empty) error = %v, want ErrEmptyFile", err)
	}
	if _, err := ws.Tables.Load(ctx); !errors.Is(err, ErrNoTable) {
		t.Error("failed ingest must not persist anything")
	}

	tbl, err := ws.IngestTable(ctx, strings.NewReader("a,b\n1,2\n"), "koi.csv", 0)
	if err != nil {
		t.Fatalf("IngestTable() error = %v", err)
	}
	if len(tbl.Rows) != 1 {
		t.Errorf("rows = %d, want 1", len(tbl.Rows))
	}

	activity, _ := ws.Activity.Recent(ctx)
	if len(activity) == 0 || !strings.Contains(activity[0].Message, "koi.csv") {
		t.Errorf("activity = %+v, want upload entry", activity)
	}
}

func TestWorkspace_ExportCandidatesCSV(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	ws := svc.Workspace("client")

	var empty bytes.Buffer
	n, err := ws.ExportCandidatesCSV(ctx, &empty)
	if err != nil || n != 0 {
		t.Fatalf("ExportCandidatesCSV(empty) = %d, %v", n, err)
	}
	if !strings.HasPrefix(empty.String(), "id,timestamp,koi_score,") {
		t.Errorf("header = %q", strings.SplitN(empty.String(), "\n", 2)[0])
	}

	rec, _, _ := ws.SubmitCandidate(ctx, map[string]string{"koi_prad": "2.26", "custom": "x"})

	var buf bytes.Buffer
	if _, err := ws.ExportCandidatesCSV(ctx, &buf); err != nil {
		t.Fatal(err)
	}

	parsed, err := ParseCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got := parsed.Headers[len(parsed.Headers)-1]; got != "custom" {
		t.Errorf("last column = %q, want custom", got)
	}
	if len(parsed.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(parsed.Rows))
	}
	row := parsed.Rows[0]
	if row["id"] != fmt.Sprint(rec.ID) || row["koi_prad"] != "2.26" || row["custom"] != "x" || row["koi_incl"] != "" {
		t.Errorf("exported row = %v", row)
	}
}

func TestService_AcquireUpload(t *testing.T) {
	node, _ := snowflake.NewNode(2)
	svc := NewService(storage.NewMemory(), node, WithUploadLimiter(NewUploadLimiter(1, 10*time.Millisecond)))

	release, err := svc.AcquireUpload(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AcquireUpload(context.Background()); !errors.Is(err, ErrTooManyUploads) {
		t.Errorf("second AcquireUpload error = %v, want ErrTooManyUploads", err)
	}
	release()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := svc.WaitForUploads(ctx); err != nil {
		t.Errorf("WaitForUploads() error = %v", err)
	}
}

func TestNewIDNode(t *testing.T) {
	node, err := NewIDNode()
	if err != nil {
		t.Fatal(err)
	}
	before := time.Now().Add(-time.Second)
	id := node.Generate()
	if ts := idTime(id); ts.Before(before) || ts.After(time.Now().Add(time.Second)) {
		t.Errorf("idTime() = %v, want close to now", ts)
	}
}
