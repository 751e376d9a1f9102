package scraper

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/chromedp"

	"homeval/config"
)

const pollInterval = 100 * time.Millisecond

// ChromedpDriver drives Chrome over the DevTools protocol. Targets are
// resolved in page JavaScript, so text matching and forced clicks behave the
// same as the playwright backend.
type ChromedpDriver struct {
	cfg   config.BrowserConfig
	site  *config.SiteConfig
	proxy config.ProxyConfig
}

func NewChromedpDriver(cfg config.BrowserConfig, site *config.SiteConfig, proxy config.ProxyConfig) *ChromedpDriver {
	return &ChromedpDriver{cfg: cfg, site: site, proxy: proxy}
}

func (d *ChromedpDriver) Name() string {
	return "chromedp"
}

func (d *ChromedpDriver) Launch(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", d.cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("lang", "ru-RU"),
		chromedp.WindowSize(1366, 900),
	)
	if d.site.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(d.site.UserAgent))
	}
	if d.cfg.ChromeBin != "" {
		opts = append(opts, chromedp.ExecPath(d.cfg.ChromeBin))
	}
	if d.proxy.URL != "" {
		opts = append(opts, chromedp.ProxyServer(d.proxy.URL))
	}

	// The browser outlives the caller's context so keep-open mode works.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("failed to launch chrome: %w", err)
	}

	return &chromedpSession{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}, nil
}

type chromedpSession struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// run executes actions on the tab, bounded by timeout and by the caller's ctx.
func (s *chromedpSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(s.ctx, remaining(ctx, timeout))
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

type jsTarget struct {
	Target
	Force bool `json:"force,omitempty"`
}

// actOnTarget finds the element described by spec and clicks or fills it.
// It returns false until the element exists (and, unless forced, is visible
// and enabled), which keeps the poll going.
const actOnTarget = `function(spec, action, value) {
	const norm = (s) => (s || '').replace(/\s+/g, ' ').trim();
	let scope = document;
	if (spec.within) {
		scope = document.querySelector(spec.within);
		if (!scope) return false;
	}
	let els = Array.from(scope.querySelectorAll(spec.selector || '*'));
	if (spec.text) {
		const want = norm(spec.text).toLowerCase();
		els = els.filter((el) => {
			const t = norm(el.textContent).toLowerCase();
			return spec.exact ? t === want : t.includes(want);
		});
		if (!spec.selector) {
			els = els.filter((el) => !els.some((other) => other !== el && el.contains(other)));
		}
	}
	const el = els[spec.nth || 0];
	if (!el) return false;
	if (!spec.force) {
		const r = el.getBoundingClientRect();
		if (r.width === 0 || r.height === 0 || el.disabled) return false;
	}
	el.scrollIntoView({block: 'center'});
	if (action === 'fill') {
		el.focus();
		const proto = el instanceof HTMLTextAreaElement ? HTMLTextAreaElement.prototype : HTMLInputElement.prototype;
		Object.getOwnPropertyDescriptor(proto, 'value').set.call(el, value);
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
	} else {
		el.click();
	}
	return true;
}`

func (s *chromedpSession) act(ctx context.Context, t Target, action, value string, opts StepOptions) error {
	var done bool
	spec := jsTarget{Target: t, Force: opts.Force}
	err := s.run(ctx, opts.Timeout+time.Second, chromedp.PollFunction(actOnTarget, &done,
		chromedp.WithPollingArgs(spec, action, value),
		chromedp.WithPollingInterval(pollInterval),
		chromedp.WithPollingTimeout(remaining(ctx, opts.Timeout)),
	))
	if err != nil {
		return fmt.Errorf("%s %s: %w", action, t, err)
	}
	return nil
}

func (s *chromedpSession) Goto(ctx context.Context, url string, timeout time.Duration) error {
	log.Printf("[info] chromedp: navigating to %s", url)
	return s.run(ctx, timeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (s *chromedpSession) Fill(ctx context.Context, t Target, value string, opts StepOptions) error {
	return s.act(ctx, t, "fill", value, opts)
}

func (s *chromedpSession) Click(ctx context.Context, t Target, opts StepOptions) error {
	return s.act(ctx, t, "click", "", opts)
}

func (s *chromedpSession) WaitForLoad(ctx context.Context, timeout time.Duration) error {
	var ready bool
	return s.run(ctx, timeout+time.Second, chromedp.Poll(`document.readyState === "complete"`, &ready,
		chromedp.WithPollingInterval(pollInterval),
		chromedp.WithPollingTimeout(remaining(ctx, timeout)),
	))
}

func (s *chromedpSession) Content(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, 10*time.Second, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (s *chromedpSession) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := s.run(ctx, 10*time.Second, chromedp.FullScreenshot(&buf, 90))
	return buf, err
}

func (s *chromedpSession) Close() error {
	err := chromedp.Cancel(s.ctx)
	s.cancelTab()
	s.cancelAlloc()
	return err
}
