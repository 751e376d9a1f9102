package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"homeval/logging"
	"homeval/models"
	"homeval/scraper"
)

// PassiveRunner is the part of the orchestrator the canary needs.
type PassiveRunner interface {
	SiteID() string
	RunPassive(ctx context.Context, in models.PassiveInput) (*models.PassiveResult, error)
}

// Canary periodically runs the passive variant with a known input so that
// markup drift or blocking shows up before real users hit it.
type Canary struct {
	runner PassiveRunner
	input  models.PassiveInput
	spec   string
	cron   *cron.Cron

	mu   sync.Mutex
	last models.RunStatus
}

func New(runner PassiveRunner, input models.PassiveInput, spec string) *Canary {
	return &Canary{
		runner: runner,
		input:  input,
		spec:   spec,
		cron:   cron.New(),
	}
}

func (c *Canary) Start(ctx context.Context) error {
	if c.spec == "" {
		return errors.New("canary: no cron expression configured")
	}

	log.Printf("Starting canary for %s with cron: %s", c.runner.SiteID(), c.spec)
	_, err := c.cron.AddFunc(c.spec, func() {
		c.Check(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	c.cron.Start()
	return nil
}

func (c *Canary) Stop() {
	<-c.cron.Stop().Done()
}

// Check runs one probe and returns the status it recorded.
func (c *Canary) Check(ctx context.Context) models.RunStatus {
	res, err := c.runner.RunPassive(ctx, c.input)
	status := scraper.Classify(err)

	switch {
	case err == nil && res.Summary != nil:
		log.Printf("[info] canary %s: ok", c.runner.SiteID())
	case errors.Is(err, scraper.ErrNotFound):
		logging.Warnf("canary %s: summary block missing, markup may have changed: %v", c.runner.SiteID(), err)
	case errors.Is(err, scraper.ErrUpstreamBlocked):
		logging.Warnf("canary %s: blocked by upstream: %v", c.runner.SiteID(), err)
	default:
		log.Printf("[error] canary %s: %v", c.runner.SiteID(), err)
	}

	c.mu.Lock()
	if c.last != "" && c.last != status {
		log.Printf("[info] canary %s: status changed %s -> %s", c.runner.SiteID(), c.last, status)
	}
	c.last = status
	c.mu.Unlock()
	return status
}

// Last returns the status of the most recent probe, or "" before the first one.
func (c *Canary) Last() models.RunStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}
