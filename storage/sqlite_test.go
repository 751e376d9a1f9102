package storage

import (
	"path/filepath"
	"testing"
	"time"

	"homeval/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := newTestStore(t)

	run := &models.Run{
		ID:          "run-1",
		SiteID:      "cian",
		Mode:        models.RunModeActive,
		Fingerprint: "abc123",
		Address:     "Москва, улица Усиевича, 1",
		StartedAt:   time.Now().UTC(),
		Status:      models.RunStatusRunning,
	}
	if err := store.CreateRun(run); err != nil {
		t.Fatalf("create run: %v", err)
	}

	finished := time.Now().UTC()
	run.FinishedAt = &finished
	run.Status = models.RunStatusTimeout
	run.LastState = "FormSubmitted"
	run.Error = "step dismiss_survey failed"
	if err := store.UpdateRun(run); err != nil {
		t.Fatalf("update run: %v", err)
	}

	got, err := store.GetRun("run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got == nil {
		t.Fatalf("expected run")
	}
	if got.Status != models.RunStatusTimeout || got.LastState != "FormSubmitted" {
		t.Fatalf("unexpected run %+v", got)
	}
	if got.FinishedAt == nil {
		t.Fatalf("expected finished_at")
	}
	if got.Address != run.Address {
		t.Fatalf("expected address %q, got %q", run.Address, got.Address)
	}

	missing, err := store.GetRun("nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown run, got %+v, %v", missing, err)
	}
}

func TestRunLogs(t *testing.T) {
	store := newTestStore(t)

	if err := store.Log("run-1", models.LogLevelInfo, "Launched", "state reached"); err != nil {
		t.Fatalf("log: %v", err)
	}
	if err := store.Log("run-1", models.LogLevelError, "Navigated", "timeout"); err != nil {
		t.Fatalf("log: %v", err)
	}
	if err := store.Log("run-2", models.LogLevelInfo, "", "other run"); err != nil {
		t.Fatalf("log: %v", err)
	}

	logs, err := store.GetRunLogs("run-1")
	if err != nil {
		t.Fatalf("get logs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}
	if logs[0].State != "Launched" || logs[1].Level != models.LogLevelError {
		t.Fatalf("unexpected logs %+v", logs)
	}
}

func TestSiteStats(t *testing.T) {
	store := newTestStore(t)

	statuses := []models.RunStatus{
		models.RunStatusCompleted,
		models.RunStatusCompleted,
		models.RunStatusBlocked,
		models.RunStatusNotFound,
		models.RunStatusRunning,
	}
	base := time.Now().UTC().Add(-time.Hour)
	for i, st := range statuses {
		run := &models.Run{
			ID:        string(rune('a' + i)),
			SiteID:    "cian",
			Mode:      models.RunModePassive,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Status:    st,
		}
		if err := store.CreateRun(run); err != nil {
			t.Fatalf("create run: %v", err)
		}
	}

	if err := store.UpdateSiteStats("cian"); err != nil {
		t.Fatalf("update stats: %v", err)
	}
	stats, err := store.GetSiteStats("cian")
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.TotalRuns != 4 || stats.Completed != 2 || stats.Blocked != 1 || stats.NotFound != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.SuccessRate != 0.5 {
		t.Fatalf("expected success rate 0.5, got %v", stats.SuccessRate)
	}

	runs, err := store.RecentRuns("cian", 2)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "e" {
		t.Fatalf("expected newest run first, got %+v", runs)
	}

	empty, err := store.GetSiteStats("avito")
	if err != nil || empty.TotalRuns != 0 {
		t.Fatalf("expected zero stats for unknown site, got %+v, %v", empty, err)
	}
}
