package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"ads_migrator/models"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := openTestStore(t)

	run := &models.MigrationRun{
		Backend:   "postgres",
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	if err := store.CreateRun(run); err != nil {
		t.Fatalf("create run: %v", err)
	}

	got, err := store.GetRun(run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got == nil || got.Status != models.RunStatusRunning {
		t.Fatalf("unexpected run: %+v", got)
	}
	if got.FinishedAt != nil {
		t.Fatal("expected no finished_at yet")
	}

	now := time.Now()
	run.FinishedAt = &now
	run.Status = models.RunStatusPartial
	run.TotalRows = 100
	run.Processed = 100
	run.Upserted = 98
	run.ErrorsCount = 1
	run.ErrorMessage = ""
	if err := store.FinishRun(run); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	got, err = store.GetRun(run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Status != models.RunStatusPartial || got.Upserted != 98 || got.ErrorsCount != 1 {
		t.Fatalf("unexpected finished run: %+v", got)
	}
	if got.FinishedAt == nil {
		t.Fatal("expected finished_at after finish")
	}
}

func TestAppendAndReadLogs(t *testing.T) {
	store := openTestStore(t)

	run := &models.MigrationRun{Backend: "supabase", StartedAt: time.Now(), Status: models.RunStatusRunning}
	if err := store.CreateRun(run); err != nil {
		t.Fatalf("create run: %v", err)
	}

	if err := store.AppendLog(run.ID, "error", "batch at id 500: upsert failed after 3 attempts"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	if err := store.AppendLog(run.ID, "error", "batch at id 1000: upsert failed after 3 attempts"); err != nil {
		t.Fatalf("append log: %v", err)
	}

	logs, err := store.GetLogsForRun(run.ID)
	if err != nil {
		t.Fatalf("get logs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}
	if logs[0].RunID != run.ID || logs[0].Level != "error" {
		t.Fatalf("unexpected log entry: %+v", logs[0])
	}
}

func TestGetRunMissing(t *testing.T) {
	store := openTestStore(t)

	run := &models.MigrationRun{Backend: "postgres", StartedAt: time.Now(), Status: models.RunStatusRunning}
	if err := store.CreateRun(run); err != nil {
		t.Fatalf("create run: %v", err)
	}

	missing, err := store.GetRun(uuid.New())
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown run, got %+v", missing)
	}
}
