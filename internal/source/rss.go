package source

import (
	"context"
	"errors"

	"github.com/mmcdole/gofeed"

	"github.com/PrinceV-hub/TechDigest/internal/models"
)

// rssAdapter handles RSS and Atom feeds through gofeed.
type rssAdapter struct {
	name   string
	url    string
	limit  int
	parser *gofeed.Parser
}

func newRSSAdapter(name, url string, limit int) *rssAdapter {
	return &rssAdapter{name: name, url: url, limit: limit, parser: gofeed.NewParser()}
}

func (a *rssAdapter) Name() string { return a.name }

func (a *rssAdapter) Fetch(ctx context.Context) ([]models.RawItem, error) {
	feed, err := a.parser.ParseURLWithContext(a.url, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, statusErr(a.name, httpErr.StatusCode)
		}
		return nil, fetchErr(a.name, models.FetchParse, err)
	}

	items := make([]models.RawItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		if len(items) >= a.limit {
			break
		}
		published := item.PublishedParsed
		if published == nil {
			published = item.UpdatedParsed
		}
		summary := item.Description
		if summary == "" {
			summary = item.Content
		}
		items = append(items, models.RawItem{
			Title:     item.Title,
			Summary:   summary,
			URL:       item.Link,
			Published: published,
		})
	}
	return items, nil
}
