package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"homeval/models"
	"homeval/normalize"
)

// RowLocator turns a container into name/value rows in document order.
type RowLocator interface {
	Rows(container *goquery.Selection) []models.HouseRow
}

// ClassFragmentRows matches rows and their cells by class-name fragments, since
// the site's full class names are build hashes. A cell's text is taken from its
// first <p> child when present.
type ClassFragmentRows struct {
	Row   string
	Name  string
	Value string
}

var DefaultRows = ClassFragmentRows{
	Row:   `div[class*="--row"]`,
	Name:  `div[class*="--name"]`,
	Value: `div[class*="--val"]`,
}

func (c ClassFragmentRows) Rows(container *goquery.Selection) []models.HouseRow {
	var rows []models.HouseRow
	container.Find(c.Row).Each(func(_ int, row *goquery.Selection) {
		r := models.HouseRow{
			Name:  cellText(row, c.Name),
			Value: cellText(row, c.Value),
		}
		if r.Name != "" || r.Value != "" {
			rows = append(rows, r)
		}
	})
	return rows
}

func cellText(row *goquery.Selection, selector string) string {
	if v := text(row.Find(selector + " p").First()); v != "" {
		return v
	}
	return text(row.Find(selector).First())
}

type RowTable []models.HouseRow

// Lookup returns the value of the first row whose name equals name, ignoring
// case. Later rows with the same name are ignored.
func (t RowTable) Lookup(name string) string {
	for _, r := range t {
		if strings.EqualFold(r.Name, name) {
			return normalize.Text(r.Value)
		}
	}
	return ""
}
