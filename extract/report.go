package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"homeval/models"
	"homeval/normalize"
)

const defaultCategory = "flat"

var (
	reportAddress        = Selector(`[data-testid="address"], .address, h1`)
	reportArea           = Selector(`[data-testid="total-area"], [data-name="totalArea"]`)
	reportRooms          = Selector(`[data-testid="rooms-count"], [data-name="roomsCount"]`)
	reportPrice          = Selector(`[data-testid="price"], .price, [class*="price"]`)
	reportPricePerMeter  = Selector(`[data-testid="price-per-meter"], [class*="pricePerMeter"]`)
	reportEstimatedValue = Selector(`[data-testid="estimated-value"], [class*="estimation"]`)
	reportCategory       = Selector(`[data-testid="category"]`)

	offerDate          = Selector(`[data-testid*="date"], [class*="date"], time`)
	offerPrice         = Selector(`[data-testid*="price"], [class*="price"]`)
	offerPricePerMeter = Selector(`[data-testid*="price-per-meter"], [class*="pricePerMeter"]`)
	offerSource        = Selector(`[data-testid*="source"], [class*="source"]`)
	offerStatus        = Selector(`[data-testid*="status"], [class*="status"]`)

	firstIntRegex = regexp.MustCompile(`\d+`)
)

var historyHeadings = []string{"История", "объявлений"}

// Report extracts the object card and offer history from the page the browser
// flow ends on. It returns nil when the report root is absent.
func (e *Engine) Report(doc *Document) (*models.ActiveResult, error) {
	root, err := e.locate("report", e.reportRoot, doc)
	if err != nil || root == nil {
		return nil, err
	}

	page := doc.Selection()
	return &models.ActiveResult{
		RealEstateInfo: realEstateInfo(page, root),
		OffersHistory:  e.offersHistory(page),
	}, nil
}

func realEstateInfo(page, root *goquery.Selection) models.RealEstateInfo {
	info := models.RealEstateInfo{
		Address:        value(reportAddress, page),
		TotalArea:      normalize.Number(value(reportArea, page)),
		Price:          value(reportPrice, page),
		PricePerMeter:  value(reportPricePerMeter, page),
		EstimatedValue: value(reportEstimatedValue, page),
		Category:       value(reportCategory, page),
		Extra:          Harvest(root, "data-testid", "data-name"),
	}
	if m := firstIntRegex.FindString(value(reportRooms, page)); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			info.RoomsCount = &n
		}
	}
	if info.Category == "" {
		info.Category = defaultCategory
	}
	return info
}

func (e *Engine) offersHistory(page *goquery.Selection) []models.OfferHistoryItem {
	items := []models.OfferHistoryItem{}
	container := e.historyContainer(page)
	if container == nil {
		return items
	}

	container.Find(e.offerItem).Each(func(i int, s *goquery.Selection) {
		item := models.OfferHistoryItem{
			Date:          value(offerDate, s),
			Price:         value(offerPrice, s),
			PricePerMeter: value(offerPricePerMeter, s),
			Source:        value(offerSource, s),
			Status:        value(offerStatus, s),
			Extra:         Harvest(s, "data-testid", "data-name"),
		}
		if item.Price == "" && item.Date == "" {
			item.RawText = text(s)
			idx := i
			item.Index = &idx
		}
		items = append(items, item)
	})
	return items
}

// historyContainer tries the configured selectors in order, then falls back to
// the section around a matching heading.
func (e *Engine) historyContainer(page *goquery.Selection) *goquery.Selection {
	for _, sel := range e.offerHistory {
		if c := page.Find(sel).First(); c.Length() > 0 {
			return c
		}
	}

	var container *goquery.Selection
	page.Find("h2, h3, h4, .heading").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		t := h.Text()
		for _, marker := range historyHeadings {
			if strings.Contains(t, marker) {
				container = h.Closest(`section, div[class*="section"]`)
				if container.Length() == 0 {
					container = h.Parent()
				}
				return false
			}
		}
		return true
	})
	if container == nil || container.Length() == 0 {
		return nil
	}
	return container
}
