// Package normalize maps source-native raw items into canonical articles
// and derives the dedupe key that makes re-fetched articles recognizable
// across cycles.
package normalize

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/PrinceV-hub/TechDigest/internal/models"
)

// ErrIncomplete reports an item missing a required field. Incomplete items
// are dropped, never stored partially.
var ErrIncomplete = errors.New("item missing required fields")

const maxSummaryLen = 1000

// Query parameters stripped during URL canonicalization. Tracking noise
// would otherwise make the same article look distinct across fetches.
var trackingParams = map[string]bool{
	"fbclid":     true,
	"gclid":      true,
	"igshid":     true,
	"mc_cid":     true,
	"mc_eid":     true,
	"ref":        true,
	"_hsenc":     true,
	"_hsmi":      true,
	"cmpid":      true,
	"ncid":       true,
	"guccounter": true,
}

// Normalize validates a raw item and produces the canonical article for
// sourceName. A missing or unparsable published timestamp falls back to
// fetchTime; freshness display is best-effort, so this beats rejecting the
// item. Returns ErrIncomplete when title or URL is empty after trimming.
func Normalize(item models.RawItem, sourceName string, fetchTime time.Time) (models.Article, error) {
	title := collapseSpace(StripHTML(item.Title))
	rawURL := strings.TrimSpace(item.URL)
	if title == "" || rawURL == "" {
		return models.Article{}, fmt.Errorf("%w: source=%s", ErrIncomplete, sourceName)
	}

	summary := truncate(collapseSpace(StripHTML(item.Summary)), maxSummaryLen)
	if summary == "" {
		summary = title
	}

	published := fetchTime.UTC()
	if item.Published != nil && !item.Published.IsZero() {
		published = item.Published.UTC()
	}

	key := CanonicalURL(rawURL)
	if key == "" {
		key = titleKey(sourceName, title)
	}

	return models.Article{
		Title:         title,
		Summary:       summary,
		SourceURL:     rawURL,
		SourceName:    sourceName,
		PublishedTime: published,
		DedupeKey:     key,
	}, nil
}

// CanonicalURL rewrites an article URL into its canonical form: scheme and
// host lowercased, default ports dropped, tracking query parameters and the
// fragment stripped, trailing slash removed. Returns "" when the input is
// not an absolute http(s) URL.
func CanonicalURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Host = strings.ToLower(u.Host)
	switch u.Scheme {
	case "http":
		u.Host = strings.TrimSuffix(u.Host, ":80")
	case "https":
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}
	u.Fragment = ""

	q := u.Query()
	for param := range q {
		if trackingParams[param] || strings.HasPrefix(param, "utm_") {
			q.Del(param)
		}
	}
	u.RawQuery = q.Encode()

	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}

// StripHTML reduces markup to its text content. Malformed fragments fall
// back to the input unchanged; callers collapse whitespace afterwards.
func StripHTML(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}

func titleKey(sourceName, title string) string {
	h := sha256.Sum256([]byte(sourceName + "\x00" + strings.ToLower(title)))
	return fmt.Sprintf("%x", h)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
