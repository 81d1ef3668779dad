package models

import (
	"fmt"
	"time"
)

// Article is the canonical stored unit. Articles are immutable once stored;
// the ID is assigned by the store at first persistence and doubles as the
// insertion-order tiebreak when published times collide.
type Article struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Summary       string    `json:"summary"`
	SourceURL     string    `json:"source_url"`
	SourceName    string    `json:"source_name"`
	PublishedTime time.Time `json:"published_time"`
	DedupeKey     string    `json:"-"`
}

// RawItem carries a single entry in source-native shape, before
// normalization. Published is nil when the source exposed no parseable
// timestamp.
type RawItem struct {
	Title     string
	Summary   string
	URL       string
	Published *time.Time
}

// FetchErrorKind classifies how a source fetch failed.
type FetchErrorKind string

const (
	FetchTimeout FetchErrorKind = "timeout"
	FetchNetwork FetchErrorKind = "network"
	FetchStatus  FetchErrorKind = "status"
	FetchParse   FetchErrorKind = "parse"
)

// FetchError is a source-scoped failure. It is recorded against the failing
// source and never aborts the surrounding fetch cycle.
type FetchError struct {
	Source string
	Kind   FetchErrorKind
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SourceStatus is the runtime state kept per configured source.
type SourceStatus struct {
	Name        string    `json:"name"`
	LastFetched time.Time `json:"last_fetched"`
	LastError   string    `json:"last_error,omitempty"`
}

// SourceResult carries one source's outcome through the cycle's result
// channel.
type SourceResult struct {
	Source   string
	Fetched  int
	Inserted int
	Skipped  int
	Err      error
}

// CycleRecord describes one complete fetch cycle across all sources.
type CycleRecord struct {
	ID       string
	Trigger  string
	Started  time.Time
	Finished time.Time
	Results  []SourceResult
}

// Inserted sums newly stored articles across all sources in the cycle.
func (c CycleRecord) Inserted() int {
	var n int
	for _, r := range c.Results {
		n += r.Inserted
	}
	return n
}

// ArticlePage is the paginated listing returned by GET /api/news.
type ArticlePage struct {
	Articles []Article `json:"articles"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
}

// Stats is the aggregate view returned by GET /api/stats. LatestUpdate is
// null while the store is empty.
type Stats struct {
	TotalArticles int        `json:"total_articles"`
	SourcesCount  int        `json:"sources_count"`
	LatestUpdate  *time.Time `json:"latest_update"`
}
