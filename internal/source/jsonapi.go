package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/PrinceV-hub/TechDigest/internal/models"
)

// jsonAdapter pulls a JSON API that serves either a top-level array of
// entries or an object wrapping one under a conventional key. Field names
// vary across providers, so each field accepts common alternates.
type jsonAdapter struct {
	name   string
	url    string
	limit  int
	client *http.Client
}

func newJSONAdapter(name, url string, limit int) *jsonAdapter {
	return &jsonAdapter{name: name, url: url, limit: limit, client: newHTTPClient()}
}

func (a *jsonAdapter) Name() string { return a.name }

type jsonEntry struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Link        string `json:"link"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Published   string `json:"published"`
	PublishedAt string `json:"published_at"`
	Date        string `json:"date"`
}

var jsonListKeys = []string{"items", "articles", "entries", "data", "results"}

func (a *jsonAdapter) Fetch(ctx context.Context) ([]models.RawItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return nil, fetchErr(a.name, models.FetchNetwork, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fetchErr(a.name, models.FetchNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusErr(a.name, resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fetchErr(a.name, models.FetchParse, err)
	}
	entries, err := decodeEntries(raw)
	if err != nil {
		return nil, fetchErr(a.name, models.FetchParse, err)
	}

	items := make([]models.RawItem, 0, len(entries))
	for _, e := range entries {
		if len(items) >= a.limit {
			break
		}
		items = append(items, e.toRawItem())
	}
	return items, nil
}

func decodeEntries(raw json.RawMessage) ([]jsonEntry, error) {
	var entries []jsonEntry
	if err := json.Unmarshal(raw, &entries); err == nil {
		return entries, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("response is neither an array nor an object: %w", err)
	}
	for _, key := range jsonListKeys {
		inner, ok := wrapper[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(inner, &entries); err != nil {
			return nil, fmt.Errorf("decoding %q list: %w", key, err)
		}
		return entries, nil
	}
	return nil, fmt.Errorf("no recognizable item list in response")
}

func (e jsonEntry) toRawItem() models.RawItem {
	item := models.RawItem{
		Title:   e.Title,
		URL:     firstNonEmpty(e.URL, e.Link),
		Summary: firstNonEmpty(e.Summary, e.Description),
	}
	if raw := firstNonEmpty(e.Published, e.PublishedAt, e.Date); raw != "" {
		item.Published = parseTime(raw)
	}
	return item
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
