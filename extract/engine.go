package extract

import (
	"time"

	"github.com/PuerkitoBio/goquery"

	"homeval/config"
	"homeval/logging"
)

const (
	defaultOfferItem   = `[data-testid*="offer"], [class*="offer-item"], [class*="history-item"], li, tr`
	defaultNearestItem = `[data-testid="OfferCard"], article`
)

var defaultOfferHistory = []string{
	`[data-testid="offers-history"]`,
	`[id="offersHistory"]`,
	`[class*="offersHistory"]`,
	`[class*="history"]`,
}

// Engine turns report pages into typed records. It holds no per-call state and
// is safe for concurrent use.
type Engine struct {
	summaryRoot RootLocator
	houseRoot   RootLocator
	nearestRoot RootLocator
	reportRoot  RootLocator

	rows         RowLocator
	offerHistory []string
	offerItem    string
	nearestItem  string

	now func() time.Time
}

func NewEngine(loc config.Locators) *Engine {
	e := &Engine{
		summaryRoot:  xpathOrNil(loc.SummaryRoot),
		houseRoot:    xpathOrNil(loc.HouseRoot),
		nearestRoot:  xpathOrNil(loc.NearestRoot),
		reportRoot:   xpathOrNil(loc.ReportRoot),
		rows:         DefaultRows,
		offerHistory: loc.OfferHistory,
		offerItem:    loc.OfferItem,
		nearestItem:  loc.NearestItem,
		now:          time.Now,
	}
	if len(e.offerHistory) == 0 {
		e.offerHistory = defaultOfferHistory
	}
	if e.offerItem == "" {
		e.offerItem = defaultOfferItem
	}
	if e.nearestItem == "" {
		e.nearestItem = defaultNearestItem
	}
	return e
}

// WithClock overrides the capture timestamp source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// WithRows swaps the house row matching strategy.
func (e *Engine) WithRows(r RowLocator) *Engine {
	e.rows = r
	return e
}

func xpathOrNil(expr string) RootLocator {
	if expr == "" {
		return nil
	}
	return XPath(expr)
}

// locate resolves a root; an unconfigured locator behaves like a missing root.
func (e *Engine) locate(name string, l RootLocator, doc *Document) (*goquery.Selection, error) {
	if l == nil {
		logging.Debugf("extract: %s root not configured", name)
		return nil, nil
	}
	root, err := l.Locate(doc)
	if err != nil {
		return nil, err
	}
	if root == nil || root.Length() == 0 {
		logging.Debugf("extract: %s root not found", name)
		return nil, nil
	}
	return root, nil
}
