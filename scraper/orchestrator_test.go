package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"homeval/config"
	"homeval/models"
)

type memStore struct {
	runs        map[string]*models.Run
	logs        []models.RunLog
	statsUpdate int
}

func (m *memStore) CreateRun(run *models.Run) error {
	if m.runs == nil {
		m.runs = make(map[string]*models.Run)
	}
	cp := *run
	m.runs[run.ID] = &cp
	return nil
}

func (m *memStore) UpdateRun(run *models.Run) error {
	cp := *run
	m.runs[run.ID] = &cp
	return nil
}

func (m *memStore) Log(runID string, level models.LogLevel, state, message string) error {
	m.logs = append(m.logs, models.RunLog{RunID: runID, Level: level, State: state, Message: message})
	return nil
}

func (m *memStore) UpdateSiteStats(siteID string) error {
	m.statsUpdate++
	return nil
}

func (m *memStore) only(t *testing.T) *models.Run {
	t.Helper()
	if len(m.runs) != 1 {
		t.Fatalf("expected one run, got %d", len(m.runs))
	}
	for _, r := range m.runs {
		return r
	}
	return nil
}

func newTestOrchestrator(t *testing.T, driver Driver, handler http.HandlerFunc) (*Orchestrator, *memStore) {
	t.Helper()
	site := testSite(t)
	client := http.DefaultClient
	if handler != nil {
		srv := httptest.NewServer(handler)
		t.Cleanup(srv.Close)
		site.Endpoints["calculator"] = srv.URL + "/kalkulator-nedvizhimosti/"
		client = srv.Client()
	}
	cfg := &config.Config{
		Browser: testBrowser,
		SiteID:  site.ID,
		Sites:   map[string]*config.SiteConfig{site.ID: site},
	}
	store := &memStore{}
	return NewOrchestrator(cfg, store, driver, client), store
}

func TestRunPassiveRecordsCompletedRun(t *testing.T) {
	page := loadFixture(t, "calculator.html")
	o, store := newTestOrchestrator(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.Write(page)
	})

	res, err := o.RunPassive(context.Background(), o.Defaults().Passive)
	if err != nil {
		t.Fatalf("passive run failed: %v", err)
	}
	if res.Summary == nil {
		t.Fatalf("expected summary")
	}

	run := store.only(t)
	if run.Status != models.RunStatusCompleted || run.Mode != models.RunModePassive {
		t.Fatalf("unexpected run %+v", run)
	}
	if run.FinishedAt == nil || run.Fingerprint == "" {
		t.Fatalf("expected finished run with fingerprint, got %+v", run)
	}
	if store.statsUpdate != 1 {
		t.Fatalf("expected stats refresh, got %d", store.statsUpdate)
	}
}

func TestRunPassiveRecordsBlockedRun(t *testing.T) {
	o, store := newTestOrchestrator(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := o.RunPassive(context.Background(), passiveInput)
	if !errors.Is(err, ErrUpstreamBlocked) {
		t.Fatalf("expected blocked, got %v", err)
	}
	run := store.only(t)
	if run.Status != models.RunStatusBlocked || run.Error == "" {
		t.Fatalf("unexpected run %+v", run)
	}
}

func TestRunActiveRecordsStates(t *testing.T) {
	sess := &fakeSession{content: string(loadFixture(t, "report.html"))}
	o, store := newTestOrchestrator(t, &fakeDriver{sess: sess}, nil)

	if _, err := o.RunActive(context.Background(), validInput); err != nil {
		t.Fatalf("active run failed: %v", err)
	}
	run := store.only(t)
	if run.Status != models.RunStatusCompleted || run.LastState != string(StateClosed) {
		t.Fatalf("unexpected run %+v", run)
	}

	seen := make(map[string]bool)
	for _, l := range store.logs {
		seen[l.State] = true
	}
	for _, st := range []State{StateLaunched, StateFormSubmitted, StateExtracted, StateClosed} {
		if !seen[string(st)] {
			t.Fatalf("missing log for state %s", st)
		}
	}
}

func TestRunActiveRecordsFailureState(t *testing.T) {
	sess := &fakeSession{
		fail: func(action string, t Target) error {
			if t.Within == offerHistory {
				return fmt.Errorf("tab: %w", context.DeadlineExceeded)
			}
			return nil
		},
	}
	o, store := newTestOrchestrator(t, &fakeDriver{sess: sess}, nil)

	if _, err := o.RunActive(context.Background(), validInput); err == nil {
		t.Fatalf("expected failure")
	}
	run := store.only(t)
	if run.Status != models.RunStatusTimeout {
		t.Fatalf("expected timeout status, got %s", run.Status)
	}
	if run.LastState != string(StateSurveyDismissed) {
		t.Fatalf("expected last state SurveyDismissed, got %s", run.LastState)
	}
}

func TestRunActiveWithoutDriver(t *testing.T) {
	o, store := newTestOrchestrator(t, nil, nil)
	if _, err := o.RunActive(context.Background(), validInput); err == nil {
		t.Fatalf("expected error without driver")
	}
	if len(store.runs) != 0 {
		t.Fatalf("no run should be recorded")
	}
}
