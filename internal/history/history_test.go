// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"
)

// --- test helpers ---

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := Open(filepath.Join(dir, "history"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store, dir
}

func sampleRun(client string, started time.Time, status Status) RunRecord {
	return RunRecord{
		StartedAt:     started,
		FinishedAt:    started.Add(1500 * time.Millisecond),
		Identifier:    "12345",
		Client:        client,
		Reimbursement: "67890",
		OutputPath:    "/data/output/12345_" + client + "_67890.pdf",
		Status:        status,
		Converted:     2,
		Failed:        1,
		Pages:         3,
		Files: []FileOutcome{
			{Name: "a.pdf", Format: "pdf", Status: FileConverted},
			{Name: "b.docx", Format: "word", Status: FileFailed, Error: "office runtime unavailable"},
			{Name: "c.png", Format: "image", Status: FileConverted},
		},
	}
}

func recordHelper(t *testing.T, s *Store, rec RunRecord) int64 {
	t.Helper()
	id, err := s.Record(context.Background(), rec)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

// --- store tests ---

func TestOpenCreatesDBFile(t *testing.T) {
	_, dir := testStore(t)
	if _, err := os.Stat(filepath.Join(dir, "history", dbFile)); err != nil {
		t.Fatalf("database file not created: %v", err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	for range 2 {
		s, err := Open(dir)
		if err != nil {
			t.Fatal(err)
		}
		s.Close()
	}
}

func TestRecordAndGet(t *testing.T) {
	store, _ := testStore(t)
	started := time.Date(2026, 3, 1, 9, 30, 0, 123456789, time.UTC)
	id := recordHelper(t, store, sampleRun("Juan_Perez", started, StatusSucceeded))

	got, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != id {
		t.Errorf("ID = %d, want %d", got.ID, id)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}
	if got.Duration() != 1500*time.Millisecond {
		t.Errorf("Duration = %v, want 1.5s", got.Duration())
	}
	if got.Client != "Juan_Perez" || got.Status != StatusSucceeded || got.Pages != 3 {
		t.Errorf("unexpected record: %+v", got)
	}
	if len(got.Files) != 3 {
		t.Fatalf("got %d files, want 3", len(got.Files))
	}
	if got.Files[1].Name != "b.docx" || got.Files[1].Error == "" {
		t.Errorf("file order or error lost: %+v", got.Files[1])
	}
}

func TestGetNotFound(t *testing.T) {
	store, _ := testStore(t)
	_, err := store.Get(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	store, _ := testStore(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	recordHelper(t, store, sampleRun("first", base, StatusSucceeded))
	recordHelper(t, store, sampleRun("second", base.Add(time.Second+500*time.Millisecond), StatusFailed))
	recordHelper(t, store, sampleRun("third", base.Add(2*time.Second), StatusSucceeded))

	runs, err := store.List(context.Background(), ListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"third", "second", "first"}
	if len(runs) != len(want) {
		t.Fatalf("got %d runs, want %d", len(runs), len(want))
	}
	for i, w := range want {
		if runs[i].Client != w {
			t.Errorf("runs[%d].Client = %q, want %q", i, runs[i].Client, w)
		}
		if len(runs[i].Files) != 3 {
			t.Errorf("runs[%d] has %d files, want 3", i, len(runs[i].Files))
		}
	}
}

func TestListFilters(t *testing.T) {
	store, _ := testStore(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, st := range []Status{StatusSucceeded, StatusFailed, StatusSucceeded, StatusSucceeded} {
		recordHelper(t, store, sampleRun("c", base.Add(time.Duration(i)*time.Minute), st))
	}

	runs, err := store.List(context.Background(), ListOptions{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Errorf("limit: got %d runs, want 2", len(runs))
	}

	runs, err = store.List(context.Background(), ListOptions{Status: StatusFailed})
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Status != StatusFailed {
		t.Errorf("status filter: got %+v", runs)
	}
}

// --- export tests ---

func TestExportYAML(t *testing.T) {
	store, dir := testStore(t)
	recordHelper(t, store, sampleRun("yaml", time.Now(), StatusSucceeded))

	path := filepath.Join(dir, "exports", "history.yaml")
	if err := store.ExportYAML(context.Background(), path, ListOptions{}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var runs []RunRecord
	if err := yaml.Unmarshal(data, &runs); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if len(runs) != 1 || runs[0].Client != "yaml" || len(runs[0].Files) != 3 {
		t.Errorf("unexpected export: %+v", runs)
	}
}

func TestExportJSONEmpty(t *testing.T) {
	store, dir := testStore(t)
	path := filepath.Join(dir, "history.json")
	if err := store.ExportJSON(context.Background(), path, ListOptions{}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var runs []RunRecord
	if err := json.Unmarshal(data, &runs); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if runs == nil || len(runs) != 0 {
		t.Errorf("want empty array, got %s", data)
	}
}
