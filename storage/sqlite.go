package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"homeval/models"
)

// SQLiteStore keeps run bookkeeping: one row per valuation call and its log
// lines. Extracted records are never written here.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dbPath, err)
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		site_id TEXT NOT NULL,
		mode TEXT NOT NULL,
		fingerprint TEXT,
		address TEXT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		status TEXT NOT NULL,
		last_state TEXT,
		error TEXT
	);

	CREATE TABLE IF NOT EXISTS run_logs (
		id INTEGER PRIMARY KEY,
		run_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		level TEXT NOT NULL,
		state TEXT,
		message TEXT
	);

	CREATE TABLE IF NOT EXISTS site_stats (
		site_id TEXT PRIMARY KEY,
		total_runs INTEGER,
		completed INTEGER,
		blocked INTEGER,
		not_found INTEGER,
		last_run_at DATETIME,
		success_rate REAL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_site ON runs(site_id, started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_fingerprint ON runs(fingerprint, started_at);
	CREATE INDEX IF NOT EXISTS idx_logs_run ON run_logs(run_id, timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) CreateRun(run *models.Run) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, site_id, mode, fingerprint, address, started_at, status, last_state, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SiteID, run.Mode, run.Fingerprint, run.Address, run.StartedAt,
		run.Status, run.LastState, run.Error)
	return err
}

func (s *SQLiteStore) UpdateRun(run *models.Run) error {
	_, err := s.db.Exec(`
		UPDATE runs SET finished_at = ?, status = ?, last_state = ?, error = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.LastState, run.Error, run.ID)
	return err
}

func (s *SQLiteStore) GetRun(id string) (*models.Run, error) {
	row := s.db.QueryRow(`
		SELECT id, site_id, mode, fingerprint, address, started_at, finished_at, status, last_state, error
		FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// RecentRuns returns the latest runs for a site, newest first.
func (s *SQLiteStore) RecentRuns(siteID string, limit int) ([]models.Run, error) {
	rows, err := s.db.Query(`
		SELECT id, site_id, mode, fingerprint, address, started_at, finished_at, status, last_state, error
		FROM runs WHERE site_id = ? ORDER BY started_at DESC LIMIT ?`, siteID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.Run, error) {
	var run models.Run
	var fingerprint, address, lastState, errText sql.NullString
	var finishedAt sql.NullTime
	err := row.Scan(&run.ID, &run.SiteID, &run.Mode, &fingerprint, &address, &run.StartedAt,
		&finishedAt, &run.Status, &lastState, &errText)
	if err != nil {
		return nil, err
	}
	run.Fingerprint = fingerprint.String
	run.Address = address.String
	run.LastState = lastState.String
	run.Error = errText.String
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

func (s *SQLiteStore) Log(runID string, level models.LogLevel, state, message string) error {
	_, err := s.db.Exec(`
		INSERT INTO run_logs (run_id, timestamp, level, state, message)
		VALUES (?, ?, ?, ?, ?)`,
		runID, time.Now(), level, state, message)
	return err
}

func (s *SQLiteStore) GetRunLogs(runID string) ([]models.RunLog, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, timestamp, level, state, message
		FROM run_logs WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.RunLog
	for rows.Next() {
		var l models.RunLog
		var state, message sql.NullString
		if err := rows.Scan(&l.ID, &l.RunID, &l.Timestamp, &l.Level, &state, &message); err != nil {
			return nil, err
		}
		l.State = state.String
		l.Message = message.String
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (s *SQLiteStore) UpdateSiteStats(siteID string) error {
	_, err := s.db.Exec(`
		INSERT INTO site_stats (site_id, total_runs, completed, blocked, not_found, last_run_at, success_rate)
		SELECT
			?,
			COUNT(*),
			SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'blocked' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'not_found' THEN 1 ELSE 0 END),
			MAX(started_at),
			CAST(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END) AS REAL) / NULLIF(COUNT(*), 0)
		FROM runs WHERE site_id = ? AND status != 'running'
		ON CONFLICT(site_id) DO UPDATE SET
			total_runs = excluded.total_runs,
			completed = excluded.completed,
			blocked = excluded.blocked,
			not_found = excluded.not_found,
			last_run_at = excluded.last_run_at,
			success_rate = excluded.success_rate`,
		siteID, siteID)
	return err
}

func (s *SQLiteStore) GetSiteStats(siteID string) (*models.SiteStats, error) {
	var st models.SiteStats
	var completed, blocked, notFound sql.NullInt64
	var lastRun sql.NullTime
	var rate sql.NullFloat64
	err := s.db.QueryRow(`
		SELECT site_id, total_runs, completed, blocked, not_found, last_run_at, success_rate
		FROM site_stats WHERE site_id = ?`, siteID).
		Scan(&st.SiteID, &st.TotalRuns, &completed, &blocked, &notFound, &lastRun, &rate)
	if err == sql.ErrNoRows {
		return &models.SiteStats{SiteID: siteID}, nil
	}
	if err != nil {
		return nil, err
	}
	st.Completed = int(completed.Int64)
	st.Blocked = int(blocked.Int64)
	st.NotFound = int(notFound.Int64)
	st.SuccessRate = rate.Float64
	if lastRun.Valid {
		t := lastRun.Time
		st.LastRunAt = &t
	}
	return &st, nil
}

func (s *SQLiteStore) GetLastRunTime(siteID string) (time.Time, error) {
	var lastRun time.Time
	err := s.db.QueryRow(`
		SELECT started_at FROM runs WHERE site_id = ? ORDER BY started_at DESC LIMIT 1`, siteID).Scan(&lastRun)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	return lastRun, err
}
