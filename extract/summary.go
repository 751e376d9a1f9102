package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"homeval/models"
	"homeval/normalize"
)

const (
	objectInfoSel  = `[data-testid="ObjectInfoId"]`
	priceAvgSel    = `[data-testid="market_price_value"]`
	priceChangeSel = `[data-testid="market_price_range_value"]`
)

var (
	summaryTitle   = Selector(objectInfoSel + ` [data-testid="ObjectInfoTextId"]`)
	summaryAddress = FirstUntagged{Within: objectInfoSel, Tag: "span", Attr: "data-testid"}

	averageRangeText = Chain{
		SpanMatch{Within: priceAvgSel, Pattern: regexp.MustCompile(`(?i)(млн|\d\s*[–—-]\s*\d)`)},
		ContainerRegex{Within: priceAvgSel, Pattern: regexp.MustCompile(`(?i)\d+[.,]?\d*\s*[–—-]\s*\d+[.,]?\d*\s*млн`)},
	}
	averageDescription = Selector(priceAvgSel + ` [data-testid="description"]`)
	averageValueRegex  = regexp.MustCompile(`(\d+[.,]?\d*)\s*млн`)

	changePercentText = Chain{
		ContainerRegex{Within: priceChangeSel, Pattern: regexp.MustCompile(`[-+−]?\d+[.,]?\d*\s*%`), Compact: true},
		SpanMatch{Within: priceChangeSel, Pattern: regexp.MustCompile(`%`)},
	}
	changeDescription = Selector(priceChangeSel + ` [data-testid="description"]`)
)

// Summary extracts the object card and market price block. It returns nil when
// the summary root is absent.
func (e *Engine) Summary(doc *Document) (*models.SummaryRecord, error) {
	root, err := e.locate("summary", e.summaryRoot, doc)
	if err != nil || root == nil {
		return nil, err
	}
	return e.summaryFrom(root), nil
}

func (e *Engine) summaryFrom(root *goquery.Selection) *models.SummaryRecord {
	rec := &models.SummaryRecord{Meta: models.Meta{FetchedAt: e.now()}}

	rec.Object.Title = value(summaryTitle, root)
	rec.Object.Address = value(summaryAddress, root)
	parts := strings.Split(rec.Object.Title, "·")
	if len(parts) > 0 {
		rec.Object.RoomsLabel = normalize.Text(parts[0])
	}
	if len(parts) > 1 {
		rec.Object.AreaLabel = normalize.Text(parts[1])
	}
	rec.Object.AreaSqm = normalize.Number(rec.Object.AreaLabel)

	mp := &rec.MarketPrice
	mp.AverageRangeText = value(averageRangeText, root)
	var min, max *float64
	if mp.AverageRangeText != "" {
		min, max = normalize.Range(mp.AverageRangeText)
	}
	mp.AverageRange = models.NewMillionRubRange(min, max)
	mp.AverageDescription = value(averageDescription, root)
	if m := averageValueRegex.FindStringSubmatch(mp.AverageDescription); m != nil {
		mp.AverageValueMillionRub = normalize.Number(m[1])
	}

	mp.ChangePercentText = value(changePercentText, root)
	if mp.ChangePercentText != "" {
		mp.ChangePercent = normalize.Percent(strings.Join(strings.Fields(mp.ChangePercentText), ""))
	}
	mp.ChangeDescription = value(changeDescription, root)

	rec.UI.HasPreciseFilters = root.Find(`[data-testid="precise_filters"]`).Length() > 0
	rec.AllTestIDs = Harvest(root, "data-testid")
	return rec
}
