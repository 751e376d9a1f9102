package extract

import (
	"github.com/PuerkitoBio/goquery"

	"homeval/models"
)

// Harvest collects every element under root carrying one of attrs, keyed by
// the first non-empty attribute value, into an AttributeMap. Repeated keys are
// kept as lists.
func Harvest(root *goquery.Selection, attrs ...string) *models.AttributeMap {
	out := models.NewAttributeMap()
	if root == nil || len(attrs) == 0 {
		return out
	}

	selector := ""
	for i, a := range attrs {
		if i > 0 {
			selector += ", "
		}
		selector += "[" + a + "]"
	}

	root.Find(selector).Each(func(_ int, s *goquery.Selection) {
		for _, a := range attrs {
			if key, _ := s.Attr(a); key != "" {
				out.Insert(key, text(s))
				return
			}
		}
	})
	return out
}
