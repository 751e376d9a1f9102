package db

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// Client reads the run bookkeeping the homeval CLI writes. It never writes.
type Client struct {
	sqlite *sql.DB
}

type SiteStats struct {
	SiteID        string
	TotalRuns     int
	Completed     int
	Blocked       int
	NotFound      int
	LastRunAt     *time.Time
	LastRunStatus *string
	SuccessRate   float64
}

type Run struct {
	ID          string
	SiteID      string
	Mode        string
	Fingerprint string
	Address     string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Status      string
	LastState   string
	Error       string
}

// Duration is zero while the run is still going.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

type RunLog struct {
	ID        int64
	RunID     string
	Timestamp time.Time
	Level     string
	State     string
	Message   string
}

func New(sqlitePath string) (*Client, error) {
	db, err := sql.Open("sqlite", sqlitePath)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &Client{sqlite: db}, nil
}

func (c *Client) Close() error {
	return c.sqlite.Close()
}

func (c *Client) GetSiteStats() ([]SiteStats, error) {
	rows, err := c.sqlite.Query(`
		SELECT s.site_id, COALESCE(s.total_runs, 0), COALESCE(s.completed, 0),
			COALESCE(s.blocked, 0), COALESCE(s.not_found, 0), s.last_run_at,
			COALESCE(s.success_rate, 0),
			(SELECT status FROM runs r WHERE r.site_id = s.site_id ORDER BY r.started_at DESC LIMIT 1)
		FROM site_stats s
		ORDER BY s.site_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []SiteStats
	for rows.Next() {
		var s SiteStats
		var lastRun, lastStatus sql.NullString
		if err := rows.Scan(&s.SiteID, &s.TotalRuns, &s.Completed, &s.Blocked, &s.NotFound,
			&lastRun, &s.SuccessRate, &lastStatus); err != nil {
			return nil, err
		}
		s.LastRunAt = parseNullTime(lastRun)
		if lastStatus.Valid {
			s.LastRunStatus = &lastStatus.String
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (c *Client) GetRecentRuns(limit int) ([]Run, error) {
	rows, err := c.sqlite.Query(`
		SELECT id, site_id, mode, COALESCE(fingerprint, ''), COALESCE(address, ''),
			started_at, finished_at, status, COALESCE(last_state, ''), COALESCE(error, '')
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		var finished sql.NullString
		if err := rows.Scan(&r.ID, &r.SiteID, &r.Mode, &r.Fingerprint, &r.Address,
			&started, &finished, &r.Status, &r.LastState, &r.Error); err != nil {
			return nil, err
		}
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseNullTime(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetLogs returns the newest logs, optionally limited to one run and one level.
// Empty runID or level means no filter.
func (c *Client) GetLogs(limit int, runID, level string) ([]RunLog, error) {
	rows, err := c.sqlite.Query(`
		SELECT id, run_id, timestamp, level, COALESCE(state, ''), COALESCE(message, '')
		FROM run_logs
		WHERE (? = '' OR run_id = ?)
		  AND (? = '' OR UPPER(level) = UPPER(?))
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, runID, runID, level, level, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []RunLog
	for rows.Next() {
		var l RunLog
		var ts string
		if err := rows.Scan(&l.ID, &l.RunID, &ts, &l.Level, &l.State, &l.Message); err != nil {
			return nil, err
		}
		l.Timestamp = parseTime(ts)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// timeLayouts covers what the mattn driver writes for time.Time values.
var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	if t.IsZero() {
		return nil
	}
	return &t
}
