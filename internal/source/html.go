package source

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/PrinceV-hub/TechDigest/internal/config"
	"github.com/PrinceV-hub/TechDigest/internal/models"
)

// htmlAdapter scrapes a listing page with configured CSS selectors.
type htmlAdapter struct {
	name      string
	url       string
	selectors config.Selectors
	limit     int
	client    *http.Client
}

func newHTMLAdapter(name, url string, selectors config.Selectors, limit int) *htmlAdapter {
	if selectors.TimeAttr == "" {
		selectors.TimeAttr = "datetime"
	}
	return &htmlAdapter{
		name:      name,
		url:       url,
		selectors: selectors,
		limit:     limit,
		client:    newHTTPClient(),
	}
}

func (a *htmlAdapter) Name() string { return a.name }

func (a *htmlAdapter) Fetch(ctx context.Context) ([]models.RawItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return nil, fetchErr(a.name, models.FetchNetwork, err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fetchErr(a.name, models.FetchNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusErr(a.name, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fetchErr(a.name, models.FetchParse, err)
	}

	base, _ := url.Parse(a.url)
	var items []models.RawItem
	doc.Find(a.selectors.Item).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(items) >= a.limit {
			return false
		}
		item := models.RawItem{
			Title: strings.TrimSpace(sel.Find(a.selectors.Title).First().Text()),
			URL:   a.itemURL(base, sel),
		}
		if a.selectors.Summary != "" {
			item.Summary = strings.TrimSpace(sel.Find(a.selectors.Summary).First().Text())
		}
		if a.selectors.Time != "" {
			item.Published = a.itemTime(sel)
		}
		items = append(items, item)
		return true
	})
	return items, nil
}

// itemURL extracts the link href, resolving relative references against the
// page URL.
func (a *htmlAdapter) itemURL(base *url.URL, sel *goquery.Selection) string {
	href, ok := sel.Find(a.selectors.Link).First().Attr("href")
	if !ok {
		return ""
	}
	href = strings.TrimSpace(href)
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func (a *htmlAdapter) itemTime(sel *goquery.Selection) *time.Time {
	node := sel.Find(a.selectors.Time).First()
	raw, ok := node.Attr(a.selectors.TimeAttr)
	if !ok {
		raw = strings.TrimSpace(node.Text())
	}
	if raw == "" {
		return nil
	}
	return parseTime(raw)
}
