package scraper

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/playwright-community/playwright-go"

	"homeval/config"
)

var launchArgs = []string{
	"--disable-blink-features=AutomationControlled",
	"--disable-dev-shm-usage",
	"--no-sandbox",
}

// PlaywrightDriver runs Chromium through playwright-go.
type PlaywrightDriver struct {
	cfg   config.BrowserConfig
	site  *config.SiteConfig
	proxy config.ProxyConfig
}

func NewPlaywrightDriver(cfg config.BrowserConfig, site *config.SiteConfig, proxy config.ProxyConfig) *PlaywrightDriver {
	return &PlaywrightDriver{cfg: cfg, site: site, proxy: proxy}
}

func (d *PlaywrightDriver) Name() string {
	return "playwright"
}

func (d *PlaywrightDriver) Launch(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(d.cfg.Headless),
		Args:     launchArgs,
	}
	if d.cfg.ChromeBin != "" {
		opts.ExecutablePath = playwright.String(d.cfg.ChromeBin)
	}
	if d.proxy.URL != "" {
		opts.Proxy = &playwright.Proxy{Server: d.proxy.URL}
	}

	browser, err := pw.Chromium.Launch(opts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	ctxOpts := playwright.BrowserNewContextOptions{
		Locale: playwright.String("ru-RU"),
	}
	if d.site.UserAgent != "" {
		ctxOpts.UserAgent = playwright.String(d.site.UserAgent)
	}
	if d.site.AcceptLanguage != "" {
		ctxOpts.ExtraHttpHeaders = map[string]string{"Accept-Language": d.site.AcceptLanguage}
	}

	bctx, err := browser.NewContext(ctxOpts)
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	return &playwrightSession{pw: pw, browser: browser, context: bctx, page: page}, nil
}

type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

func millis(ctx context.Context, d time.Duration) *float64 {
	return playwright.Float(float64(remaining(ctx, d).Milliseconds()))
}

func (s *playwrightSession) locator(t Target) playwright.Locator {
	if t.Within == "" && t.Selector == "" {
		return s.page.GetByText(t.Text, playwright.PageGetByTextOptions{Exact: playwright.Bool(t.Exact)}).Nth(t.Nth)
	}

	var loc playwright.Locator
	if t.Within != "" {
		loc = s.page.Locator(t.Within)
		if t.Selector != "" {
			loc = loc.Locator(t.Selector)
		}
	} else {
		loc = s.page.Locator(t.Selector)
	}

	if t.Text != "" {
		if t.Selector == "" {
			loc = loc.GetByText(t.Text, playwright.LocatorGetByTextOptions{Exact: playwright.Bool(t.Exact)})
		} else {
			loc = loc.Filter(playwright.LocatorFilterOptions{HasText: t.Text})
		}
	}
	return loc.Nth(t.Nth)
}

func (s *playwrightSession) Goto(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Printf("[info] playwright: navigating to %s", url)
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   millis(ctx, timeout),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return err
}

func (s *playwrightSession) Fill(ctx context.Context, t Target, value string, opts StepOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.locator(t).Fill(value, playwright.LocatorFillOptions{
		Force:   playwright.Bool(opts.Force),
		Timeout: millis(ctx, opts.Timeout),
	})
}

func (s *playwrightSession) Click(ctx context.Context, t Target, opts StepOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.locator(t).Click(playwright.LocatorClickOptions{
		Force:   playwright.Bool(opts.Force),
		Timeout: millis(ctx, opts.Timeout),
	})
}

func (s *playwrightSession) WaitForLoad(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: millis(ctx, timeout),
	})
}

func (s *playwrightSession) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.page.Content()
}

func (s *playwrightSession) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.page.Screenshot(playwright.PageScreenshotOptions{FullPage: playwright.Bool(true)})
}

func (s *playwrightSession) Close() error {
	var firstErr error
	if s.page != nil {
		if err := s.page.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.context != nil {
		if err := s.context.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
