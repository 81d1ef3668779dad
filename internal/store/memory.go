package store

import (
	"context"
	"sort"
	"sync"

	"github.com/PrinceV-hub/TechDigest/internal/models"
)

// Memory is a thread-safe, in-memory Store used for local runs and tests.
type Memory struct {
	mu       sync.RWMutex
	nextID   int64
	articles map[string]models.Article // keyed by dedupe key
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{nextID: 1, articles: make(map[string]models.Article)}
}

func (m *Memory) InsertArticle(_ context.Context, a models.Article) (models.Article, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.articles[a.DedupeKey]; ok {
		return existing, false, nil
	}

	a.ID = m.nextID
	m.nextID++
	m.articles[a.DedupeKey] = a
	return a, true, nil
}

func (m *Memory) ListArticles(_ context.Context, page, perPage int, source string) ([]models.Article, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matching := make([]models.Article, 0, len(m.articles))
	for _, a := range m.articles {
		if source != "" && a.SourceName != source {
			continue
		}
		matching = append(matching, a)
	}
	sort.Slice(matching, func(i, j int) bool {
		if !matching[i].PublishedTime.Equal(matching[j].PublishedTime) {
			return matching[i].PublishedTime.After(matching[j].PublishedTime)
		}
		return matching[i].ID > matching[j].ID
	})

	total := len(matching)
	if page < 1 || perPage < 1 {
		return nil, total, nil
	}
	offset := (page - 1) * perPage
	if offset >= total {
		return nil, total, nil
	}
	end := offset + perPage
	if end > total {
		end = total
	}
	return matching[offset:end], total, nil
}

func (m *Memory) Stats(_ context.Context) (models.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := models.Stats{TotalArticles: len(m.articles)}
	seen := make(map[string]bool)
	for _, a := range m.articles {
		seen[a.SourceName] = true
		if stats.LatestUpdate == nil || a.PublishedTime.After(*stats.LatestUpdate) {
			t := a.PublishedTime
			stats.LatestUpdate = &t
		}
	}
	stats.SourcesCount = len(seen)
	return stats, nil
}

func (m *Memory) SourceNames(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	for _, a := range m.articles {
		seen[a.SourceName] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
