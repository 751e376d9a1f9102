package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"homeval/normalize"
)

// Strategy pulls one field's text out of a root. ok is false when the
// strategy found nothing usable, letting a Chain try the next one.
type Strategy interface {
	Extract(root *goquery.Selection) (value string, ok bool)
}

// scope narrows root to the first match of within, or root itself when within
// is empty.
func scope(root *goquery.Selection, within string) *goquery.Selection {
	if within == "" {
		return root
	}
	return root.Find(within).First()
}

func text(s *goquery.Selection) string {
	return normalize.Text(s.Text())
}

// Selector returns the text of the first element matching a CSS selector.
type Selector string

func (s Selector) Extract(root *goquery.Selection) (string, bool) {
	sel := root.Find(string(s)).First()
	if sel.Length() == 0 {
		return "", false
	}
	v := text(sel)
	return v, v != ""
}

// FirstUntagged returns the text of the first Tag element lacking Attr, for
// values the site leaves unmarked next to marked siblings.
type FirstUntagged struct {
	Within string
	Tag    string
	Attr   string
}

func (f FirstUntagged) Extract(root *goquery.Selection) (string, bool) {
	var found *goquery.Selection
	scope(root, f.Within).Find(f.Tag).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, _ := s.Attr(f.Attr); v == "" {
			found = s
			return false
		}
		return true
	})
	if found == nil {
		return "", false
	}
	v := text(found)
	return v, v != ""
}

// SpanMatch returns the first non-empty Tag element whose text matches Pattern.
type SpanMatch struct {
	Within  string
	Tag     string
	Pattern *regexp.Regexp
}

func (m SpanMatch) Extract(root *goquery.Selection) (string, bool) {
	tag := m.Tag
	if tag == "" {
		tag = "span"
	}
	var out string
	scope(root, m.Within).Find(tag).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v := text(s)
		if v != "" && m.Pattern.MatchString(v) {
			out = v
			return false
		}
		return true
	})
	return out, out != ""
}

// ContainerRegex matches Pattern against the whole container text. Group
// selects a submatch; Compact strips whitespace from the result.
type ContainerRegex struct {
	Within  string
	Pattern *regexp.Regexp
	Group   int
	Compact bool
}

func (c ContainerRegex) Extract(root *goquery.Selection) (string, bool) {
	container := scope(root, c.Within)
	if container.Length() == 0 {
		return "", false
	}
	m := c.Pattern.FindStringSubmatch(text(container))
	if len(m) <= c.Group || m[c.Group] == "" {
		return "", false
	}
	v := m[c.Group]
	if c.Compact {
		v = strings.Join(strings.Fields(v), "")
	}
	return v, true
}

// Chain tries each strategy in order; the first non-empty result wins.
type Chain []Strategy

func (c Chain) Extract(root *goquery.Selection) (string, bool) {
	for _, s := range c {
		if v, ok := s.Extract(root); ok {
			return v, true
		}
	}
	return "", false
}

// value runs a strategy and drops the ok flag; missing fields are empty.
func value(s Strategy, root *goquery.Selection) string {
	v, _ := s.Extract(root)
	return v
}
