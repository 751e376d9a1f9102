package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusNotFound  RunStatus = "not_found"
	RunStatusBlocked   RunStatus = "blocked"
	RunStatusTimeout   RunStatus = "timeout"
	RunStatusFailed    RunStatus = "failed"
	RunStatusInvalid   RunStatus = "invalid"
)

type RunMode string

const (
	RunModeActive  RunMode = "active"
	RunModePassive RunMode = "passive"
)

// Run is the bookkeeping row for one valuation call. It never holds the
// extracted records.
type Run struct {
	ID          string     `json:"id" db:"id"`
	SiteID      string     `json:"site_id" db:"site_id"`
	Mode        RunMode    `json:"mode" db:"mode"`
	Fingerprint string     `json:"fingerprint" db:"fingerprint"`
	Address     string     `json:"address" db:"address"`
	StartedAt   time.Time  `json:"started_at" db:"started_at"`
	FinishedAt  *time.Time `json:"finished_at" db:"finished_at"`
	Status      RunStatus  `json:"status" db:"status"`
	LastState   string     `json:"last_state" db:"last_state"`
	Error       string     `json:"error" db:"error"`
}

// SiteStats aggregates run outcomes per site.
type SiteStats struct {
	SiteID      string     `json:"site_id" db:"site_id"`
	TotalRuns   int        `json:"total_runs" db:"total_runs"`
	Completed   int        `json:"completed" db:"completed"`
	Blocked     int        `json:"blocked" db:"blocked"`
	NotFound    int        `json:"not_found" db:"not_found"`
	LastRunAt   *time.Time `json:"last_run_at" db:"last_run_at"`
	SuccessRate float64    `json:"success_rate" db:"success_rate"`
}
