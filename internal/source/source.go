// Package source implements the adapter variants that pull raw items from
// external providers. The set is closed: RSS/Atom feeds, HTML-scrape pages
// and JSON APIs, selected from configuration at startup.
package source

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/PrinceV-hub/TechDigest/internal/config"
	"github.com/PrinceV-hub/TechDigest/internal/models"
)

// Adapter produces raw items from one external provider's wire response.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context) ([]models.RawItem, error)
}

// FromConfig builds the adapter for a configured source. limit caps the
// number of items yielded per fetch.
func FromConfig(src config.Source, limit int) (Adapter, error) {
	switch src.Parser {
	case "rss":
		return newRSSAdapter(src.Name, src.URL, limit), nil
	case "html":
		return newHTMLAdapter(src.Name, src.URL, *src.Selectors, limit), nil
	case "json":
		return newJSONAdapter(src.Name, src.URL, limit), nil
	default:
		return nil, fmt.Errorf("source %q: unknown parser %q", src.Name, src.Parser)
	}
}

// FromConfigAll builds adapters for every configured source.
func FromConfigAll(sources []config.Source, limit int) ([]Adapter, error) {
	adapters := make([]Adapter, 0, len(sources))
	for _, src := range sources {
		a, err := FromConfig(src, limit)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// fetchErr wraps a transport or parse failure into a source-tagged
// FetchError, classifying timeouts so the scheduler can tell a slow source
// from a broken one.
func fetchErr(source string, kind models.FetchErrorKind, err error) *models.FetchError {
	if errors.Is(err, context.DeadlineExceeded) {
		kind = models.FetchTimeout
	} else {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			kind = models.FetchTimeout
		}
	}
	return &models.FetchError{Source: source, Kind: kind, Err: err}
}

func statusErr(source string, status int) *models.FetchError {
	return &models.FetchError{
		Source: source,
		Kind:   models.FetchStatus,
		Err:    fmt.Errorf("unexpected status %d", status),
	}
}

// parseTime tries the timestamp layouts seen across feed ecosystems.
func parseTime(raw string) *time.Time {
	layouts := []string{
		time.RFC3339,
		time.RFC1123Z,
		time.RFC1123,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
