package extract

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"homeval/models"
)

var (
	nearestTitle = Chain{
		Selector(`[data-testid="title"], [data-name="Title"]`),
		Selector("h3, h4"),
	}
	nearestPrice = Chain{
		Selector(`[data-testid="price"], [data-mark="MainPrice"]`),
		SpanMatch{Pattern: regexp.MustCompile(`^\d[\d ]*₽$`)},
	}
	nearestPricePerSqm = Chain{
		Selector(`[data-testid="price-per-sqm"], [data-mark="PriceInfo"]`),
		ContainerRegex{Pattern: regexp.MustCompile(`\d[\d ]*₽/м²`)},
	}
	nearestOnCianDays = Chain{
		Selector(`[data-testid="on-cian-days"]`),
		ContainerRegex{Pattern: regexp.MustCompile(`(?i)\d+\s+(?:день|дня|дней)\s+на\s+циан`)},
	}
	nearestPublished = Chain{
		Selector(`[data-testid="published-date"]`),
		Selector("time"),
	}
	nearestStatus = Chain{
		Selector(`[data-testid="status"]`),
		SpanMatch{Pattern: regexp.MustCompile(`(?i)^(снято|продано|в продаже|сдано|неактуально)`)},
	}

	offerIDRegex = regexp.MustCompile(`/(\d+)/?(?:\?.*)?$`)
)

// Nearest extracts the comparable listings block of the calculator report. It
// returns nil when the block is absent.
func (e *Engine) Nearest(doc *Document) (*models.NearestListings, error) {
	root, err := e.locate("nearest", e.nearestRoot, doc)
	if err != nil || root == nil {
		return nil, err
	}

	out := &models.NearestListings{Items: []models.NearestListingItem{}}
	root.Find(e.nearestItem).Each(func(_ int, s *goquery.Selection) {
		out.Items = append(out.Items, nearestItem(s))
	})
	out.Meta.Total = len(out.Items)
	return out, nil
}

func nearestItem(s *goquery.Selection) models.NearestListingItem {
	item := models.NearestListingItem{
		Title:             value(nearestTitle, s),
		PriceText:         value(nearestPrice, s),
		PricePerSqmText:   value(nearestPricePerSqm, s),
		OnCianDaysText:    value(nearestOnCianDays, s),
		PublishedDateText: value(nearestPublished, s),
		StatusText:        value(nearestStatus, s),
		Extra:             Harvest(s, "data-testid", "data-name"),
	}
	if src, ok := s.Find("img").First().Attr("src"); ok {
		item.ImageURL = src
	}

	href, ok := s.Find("a[href]").First().Attr("href")
	if ok && href != "" {
		item.URL = &href
	}

	id := firstAttr(s, "data-offer-id", "data-id")
	if id == "" && item.URL != nil {
		if m := offerIDRegex.FindStringSubmatch(*item.URL); m != nil {
			id = m[1]
		}
	}
	if id != "" {
		item.ID = &id
	}
	return item
}

func firstAttr(s *goquery.Selection, attrs ...string) string {
	for _, a := range attrs {
		if v, _ := s.Attr(a); v != "" {
			return v
		}
	}
	return ""
}
