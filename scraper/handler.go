package scraper

import (
	"context"
	"fmt"
	"time"

	"homeval/config"
)

// Target addresses one element: an optional scope, a CSS selector and/or
// visible text, and the index among matches.
type Target struct {
	Within   string `json:"within,omitempty"`
	Selector string `json:"selector,omitempty"`
	Text     string `json:"text,omitempty"`
	Exact    bool   `json:"exact,omitempty"`
	Nth      int    `json:"nth,omitempty"`
}

func (t Target) String() string {
	s := t.Selector
	if t.Within != "" {
		s = t.Within + " >> " + s
	}
	if t.Text != "" {
		s += fmt.Sprintf(" text=%q", t.Text)
	}
	if t.Nth > 0 {
		s += fmt.Sprintf(" nth=%d", t.Nth)
	}
	return s
}

// StepOptions controls one interaction. Force skips visibility and
// actionability checks.
type StepOptions struct {
	Force   bool
	Timeout time.Duration
}

// Driver starts browser sessions. Each run gets its own session.
type Driver interface {
	Name() string
	Launch(ctx context.Context) (Session, error)
}

// Session is one browser context with a single page.
type Session interface {
	Goto(ctx context.Context, url string, timeout time.Duration) error
	Fill(ctx context.Context, t Target, value string, opts StepOptions) error
	Click(ctx context.Context, t Target, opts StepOptions) error
	WaitForLoad(ctx context.Context, timeout time.Duration) error
	Content(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// NewDriver picks the browser backend named by BROWSER_DRIVER.
func NewDriver(cfg *config.Config) (Driver, error) {
	site := cfg.Site()
	switch cfg.Browser.Driver {
	case "", "playwright":
		return NewPlaywrightDriver(cfg.Browser, site, cfg.Proxy), nil
	case "chromedp":
		return NewChromedpDriver(cfg.Browser, site, cfg.Proxy), nil
	default:
		return nil, fmt.Errorf("unknown browser driver: %s", cfg.Browser.Driver)
	}
}

// remaining clamps a step timeout to the context deadline.
func remaining(ctx context.Context, d time.Duration) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < d || d <= 0 {
			return left
		}
	}
	return d
}
