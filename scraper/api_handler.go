package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"homeval/config"
	"homeval/extract"
	"homeval/models"
)

const maxBodySize = 16 << 20

// PassiveFetcher reads the pre-rendered calculator page over plain HTTP.
type PassiveFetcher struct {
	site   *config.SiteConfig
	client *http.Client
	engine *extract.Engine
}

func NewPassiveFetcher(site *config.SiteConfig, client *http.Client, engine *extract.Engine) *PassiveFetcher {
	return &PassiveFetcher{site: site, client: client, engine: engine}
}

// BuildURL returns the calculator URL for in. roomsCount is omitted when empty.
func (f *PassiveFetcher) BuildURL(in models.PassiveInput) (string, error) {
	endpoint, err := f.site.Endpoint("calculator")
	if err != nil {
		return "", err
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse calculator endpoint: %w", err)
	}

	in = in.WithDefaults()
	params := [][2]string{
		{"address", strings.TrimSpace(in.Address)},
		{"totalArea", strings.TrimSpace(in.TotalArea)},
		{"valuationType", in.ValuationType},
	}
	if rc := strings.TrimSpace(in.RoomsCount); rc != "" {
		params = append(params, [2]string{"roomsCount", rc})
	}

	// fixed parameter order, spaces as %20
	parts := make([]string, 0, len(params)+1)
	if u.RawQuery != "" {
		parts = append(parts, u.RawQuery)
	}
	for _, p := range params {
		parts = append(parts, p[0]+"="+queryEscape(p[1]))
	}
	u.RawQuery = strings.Join(parts, "&")
	return u.String(), nil
}

func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// Fetch downloads and extracts the report. A non-200 status or a block page
// yields a *BlockedError; a page without the summary block yields ErrNotFound.
func (f *PassiveFetcher) Fetch(ctx context.Context, in models.PassiveInput) (*models.PassiveResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	target, err := f.BuildURL(in)
	if err != nil {
		return nil, err
	}

	body, err := f.get(ctx, target)
	if err != nil {
		return nil, err
	}

	doc, err := extract.ParseHTML(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	summary, err := f.engine.Summary(doc)
	if err != nil {
		return nil, fmt.Errorf("extract summary: %w", err)
	}
	if summary == nil {
		return nil, fmt.Errorf("%s: %w", target, ErrNotFound)
	}

	house, err := f.engine.House(doc)
	if err != nil {
		return nil, fmt.Errorf("extract house: %w", err)
	}
	nearest, err := f.engine.Nearest(doc)
	if err != nil {
		return nil, fmt.Errorf("extract nearest: %w", err)
	}

	return &models.PassiveResult{
		URL:     target,
		Summary: summary,
		House:   house,
		Nearest: nearest,
	}, nil
}

func (f *PassiveFetcher) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.site.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if f.site.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", f.site.AcceptLanguage)
	}

	log.Printf("[info] passive: fetching %s", target)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", target, err)
	}

	marker := f.blockMarker(body)
	if resp.StatusCode != http.StatusOK || marker != "" {
		return nil, &BlockedError{Status: resp.StatusCode, URL: target, Marker: marker}
	}
	return body, nil
}

// blockMarker returns the first configured anti-bot marker found in body,
// matched case-insensitively.
func (f *PassiveFetcher) blockMarker(body []byte) string {
	lower := bytes.ToLower(body)
	for _, m := range f.site.BlockMarkers {
		if m != "" && bytes.Contains(lower, bytes.ToLower([]byte(m))) {
			return m
		}
	}
	return ""
}
