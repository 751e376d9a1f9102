package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path"
	"time"

	"github.com/google/uuid"

	"homeval/config"
	"homeval/extract"
	"homeval/identity"
	"homeval/logging"
	"homeval/models"
)

// RunStore records run bookkeeping. storage.SQLiteStore satisfies it.
type RunStore interface {
	CreateRun(run *models.Run) error
	UpdateRun(run *models.Run) error
	Log(runID string, level models.LogLevel, state, message string) error
	UpdateSiteStats(siteID string) error
}

type Orchestrator struct {
	cfg       *config.Config
	site      *config.SiteConfig
	store     RunStore
	driver    Driver
	fetcher   *PassiveFetcher
	engine    *extract.Engine
	artifacts ArtifactSink

	now func() time.Time
}

// NewOrchestrator wires the active and passive variants for the configured
// site. driver may be nil when only passive runs are needed.
func NewOrchestrator(cfg *config.Config, store RunStore, driver Driver, client *http.Client) *Orchestrator {
	site := cfg.Site()
	engine := extract.NewEngine(site.Locators)
	return &Orchestrator{
		cfg:     cfg,
		site:    site,
		store:   store,
		driver:  driver,
		fetcher: NewPassiveFetcher(site, client, engine),
		engine:  engine,
		now:     time.Now,
	}
}

func (o *Orchestrator) SetArtifacts(sink ArtifactSink) {
	o.artifacts = sink
}

// RunActive drives the browser flow for in and records the outcome.
func (o *Orchestrator) RunActive(ctx context.Context, in models.ValuationInput) (*models.ActiveResult, error) {
	if o.driver == nil {
		return nil, errors.New("active mode requires a browser driver")
	}

	run := o.startRun(models.RunModeActive, identity.Fingerprint(in), in.Address)

	seq := NewSequencer(o.driver, o.site, o.cfg.Browser, o.engine).
		WithObserver(func(state State, step string) {
			run.LastState = string(state)
			o.log(run.ID, models.LogLevelInfo, string(state), fmt.Sprintf("%s: reached %s", step, state))
		})
	if o.artifacts != nil {
		seq.WithArtifacts(o.artifacts, path.Join(run.Fingerprint, run.ID))
	}

	result, err := seq.Run(ctx, in)
	o.finishRun(run, err)
	return result, err
}

// RunPassive fetches the pre-rendered calculator page and records the outcome.
func (o *Orchestrator) RunPassive(ctx context.Context, in models.PassiveInput) (*models.PassiveResult, error) {
	in = in.WithDefaults()
	run := o.startRun(models.RunModePassive, identity.PassiveFingerprint(in), in.Address)

	result, err := o.fetcher.Fetch(ctx, in)
	if err == nil {
		run.LastState = "Fetched"
		o.log(run.ID, models.LogLevelInfo, run.LastState, result.URL)
	}
	o.finishRun(run, err)
	return result, err
}

func (o *Orchestrator) startRun(mode models.RunMode, fingerprint, address string) *models.Run {
	run := &models.Run{
		ID:          uuid.NewString(),
		SiteID:      o.site.ID,
		Mode:        mode,
		Fingerprint: fingerprint,
		Address:     address,
		StartedAt:   o.now(),
		Status:      models.RunStatusRunning,
	}
	if o.store != nil {
		if err := o.store.CreateRun(run); err != nil {
			logging.Warnf("%s: create run: %v", o.site.ID, err)
		}
	}
	o.log(run.ID, models.LogLevelInfo, "", fmt.Sprintf("Starting %s run %s for %s", mode, fingerprint, address))
	return run
}

func (o *Orchestrator) finishRun(run *models.Run, err error) {
	now := o.now()
	run.FinishedAt = &now
	run.Status = Classify(err)

	if err != nil {
		run.Error = err.Error()
		var se *StepError
		if errors.As(err, &se) && se.State != "" {
			run.LastState = string(se.State)
		}
		o.log(run.ID, models.LogLevelError, run.LastState, fmt.Sprintf("Run %s: %v", run.Status, err))
	} else {
		o.log(run.ID, models.LogLevelInfo, run.LastState,
			fmt.Sprintf("Completed in %s", now.Sub(run.StartedAt).Round(time.Millisecond)))
	}

	if o.store == nil {
		return
	}
	if err := o.store.UpdateRun(run); err != nil {
		logging.Warnf("%s: update run: %v", o.site.ID, err)
	}
	if err := o.store.UpdateSiteStats(o.site.ID); err != nil {
		logging.Warnf("%s: update site stats: %v", o.site.ID, err)
	}
}

func (o *Orchestrator) log(runID string, level models.LogLevel, state, message string) {
	log.Printf("[%s] %s: %s", level, o.site.ID, message)
	if o.store != nil {
		o.store.Log(runID, level, state, message)
	}
}

func (o *Orchestrator) SiteID() string {
	return o.site.ID
}

// Defaults returns the site's configured default inputs.
func (o *Orchestrator) Defaults() config.Defaults {
	return o.site.Defaults
}
