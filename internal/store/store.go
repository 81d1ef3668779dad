// Package store persists articles behind a single port with an in-memory
// and a Postgres implementation. The dedupe key is unique across the store:
// InsertArticle is the one atomic check-and-insert every write goes through.
package store

import (
	"context"

	"github.com/PrinceV-hub/TechDigest/internal/models"
)

// Store is the persistence port. All methods are safe for concurrent use;
// reads never block behind an in-progress fetch cycle.
type Store interface {
	// InsertArticle stores a if its dedupe key is absent and reports whether
	// the row was newly inserted. A duplicate returns the previously stored
	// article with inserted=false; it is a normal outcome, not an error.
	InsertArticle(ctx context.Context, a models.Article) (models.Article, bool, error)

	// ListArticles returns one page of the canonical feed order
	// (published_time descending, id descending) plus the total matching
	// count. source, when non-empty, restricts to an exact source_name
	// match. An out-of-range page yields an empty slice with the true total.
	ListArticles(ctx context.Context, page, perPage int, source string) ([]models.Article, int, error)

	// Stats computes aggregates live from the stored set.
	Stats(ctx context.Context) (models.Stats, error)

	// SourceNames returns the distinct source_name values present, sorted.
	SourceNames(ctx context.Context) ([]string, error)

	Ping(ctx context.Context) error
	Close() error
}
