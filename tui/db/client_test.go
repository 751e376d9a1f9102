package db

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

const testSchema = `
CREATE TABLE runs (
	id TEXT PRIMARY KEY, site_id TEXT NOT NULL, mode TEXT NOT NULL, fingerprint TEXT,
	address TEXT, started_at DATETIME NOT NULL, finished_at DATETIME, status TEXT NOT NULL,
	last_state TEXT, error TEXT
);
CREATE TABLE run_logs (
	id INTEGER PRIMARY KEY, run_id TEXT NOT NULL, timestamp DATETIME NOT NULL,
	level TEXT NOT NULL, state TEXT, message TEXT
);
CREATE TABLE site_stats (
	site_id TEXT PRIMARY KEY, total_runs INTEGER, completed INTEGER, blocked INTEGER,
	not_found INTEGER, last_run_at DATETIME, success_rate REAL
);
`

func seed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "homeval.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	stmts := []string{
		testSchema,
		`INSERT INTO runs VALUES ('r1', 'cian', 'passive', 'fp1', 'Москва', '2026-10-01 10:00:00+00:00', '2026-10-01 10:00:02.5+00:00', 'completed', 'Fetched', '')`,
		`INSERT INTO runs VALUES ('r2', 'cian', 'active', 'fp2', 'Москва', '2026-10-01 11:00:00+00:00', NULL, 'running', 'Navigated', NULL)`,
		`INSERT INTO run_logs (run_id, timestamp, level, state, message) VALUES ('r1', '2026-10-01 10:00:01+00:00', 'info', 'Fetched', 'ok')`,
		`INSERT INTO run_logs (run_id, timestamp, level, state, message) VALUES ('r2', '2026-10-01 11:00:01+00:00', 'error', 'Navigated', 'timeout')`,
		`INSERT INTO site_stats VALUES ('cian', 1, 1, 0, 0, '2026-10-01 10:00:00+00:00', 1.0)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return path
}

func TestClientReadsRuns(t *testing.T) {
	c, err := New(seed(t))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer c.Close()

	runs, err := c.GetRecentRuns(10)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "r2" {
		t.Fatalf("expected newest run first, got %+v", runs)
	}
	if runs[0].FinishedAt != nil || runs[0].Duration() != 0 {
		t.Fatalf("running run should have no duration")
	}
	if runs[1].Duration() != 2500*time.Millisecond {
		t.Fatalf("unexpected duration %v", runs[1].Duration())
	}

	stats, err := c.GetSiteStats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats) != 1 || stats[0].LastRunStatus == nil || *stats[0].LastRunStatus != "running" {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats[0].LastRunAt == nil {
		t.Fatalf("expected last run time")
	}
}

func TestClientFiltersLogs(t *testing.T) {
	c, err := New(seed(t))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer c.Close()

	all, err := c.GetLogs(10, "", "")
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 logs, got %d (%v)", len(all), err)
	}
	errs, err := c.GetLogs(10, "", "ERROR")
	if err != nil || len(errs) != 1 || errs[0].RunID != "r2" {
		t.Fatalf("unexpected level filter result %+v (%v)", errs, err)
	}
	r1, err := c.GetLogs(10, "r1", "")
	if err != nil || len(r1) != 1 || r1[0].State != "Fetched" {
		t.Fatalf("unexpected run filter result %+v (%v)", r1, err)
	}
}
