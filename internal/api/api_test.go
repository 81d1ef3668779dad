package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PrinceV-hub/TechDigest/internal/api"
	"github.com/PrinceV-hub/TechDigest/internal/models"
	"github.com/PrinceV-hub/TechDigest/internal/scheduler"
	"github.com/PrinceV-hub/TechDigest/internal/store"
)

// fakeTrigger lets tests control the manual-trigger outcome.
type fakeTrigger struct {
	err   error
	calls int
}

func (f *fakeTrigger) TriggerNow() (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "cycle-1", nil
}

func setup() (*api.Server, *store.Memory, *fakeTrigger) {
	s := store.NewMemory()
	trigger := &fakeTrigger{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return api.New(s, trigger, logger), s, trigger
}

func seedArticles(t *testing.T, s *store.Memory, n int, sourceName string) {
	t.Helper()
	base := time.Now().UTC()
	for i := 0; i < n; i++ {
		_, _, err := s.InsertArticle(context.Background(), models.Article{
			Title:         fmt.Sprintf("%s post %d", sourceName, i),
			Summary:       "summary",
			SourceURL:     fmt.Sprintf("https://example.com/%s/%d", sourceName, i),
			SourceName:    sourceName,
			PublishedTime: base.Add(-time.Duration(i) * time.Minute),
			DedupeKey:     fmt.Sprintf("%s-%d", sourceName, i),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
}

func get(t *testing.T, srv *api.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := setup()
	rec := get(t, srv, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestNewsPagination(t *testing.T) {
	srv, s, _ := setup()
	seedArticles(t, s, 45, "Acme")

	var page models.ArticlePage
	rec := get(t, srv, "/api/news?page=1")
	json.NewDecoder(rec.Body).Decode(&page)
	if len(page.Articles) != 20 || page.Page != 1 || page.Pages != 3 {
		t.Fatalf("page 1: len=%d page=%d pages=%d", len(page.Articles), page.Page, page.Pages)
	}

	rec = get(t, srv, "/api/news?page=3")
	json.NewDecoder(rec.Body).Decode(&page)
	if len(page.Articles) != 5 || page.Pages != 3 {
		t.Fatalf("page 3: len=%d pages=%d", len(page.Articles), page.Pages)
	}

	// Out-of-range page returns empty articles with the same metadata.
	rec = get(t, srv, "/api/news?page=4")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for out-of-range page, got %d", rec.Code)
	}
	json.NewDecoder(rec.Body).Decode(&page)
	if len(page.Articles) != 0 || page.Page != 4 || page.Pages != 3 {
		t.Fatalf("page 4: len=%d page=%d pages=%d", len(page.Articles), page.Page, page.Pages)
	}
}

func TestNewsOrderingAcrossPages(t *testing.T) {
	srv, s, _ := setup()
	seedArticles(t, s, 30, "Acme")

	var last *time.Time
	for pageNum := 1; pageNum <= 2; pageNum++ {
		var page models.ArticlePage
		rec := get(t, srv, fmt.Sprintf("/api/news?page=%d", pageNum))
		json.NewDecoder(rec.Body).Decode(&page)
		for _, a := range page.Articles {
			if last != nil && a.PublishedTime.After(*last) {
				t.Fatalf("ordering violated across pages at %q", a.Title)
			}
			ts := a.PublishedTime
			last = &ts
		}
	}
}

func TestNewsSourceFilter(t *testing.T) {
	srv, s, _ := setup()
	seedArticles(t, s, 3, "Acme")
	seedArticles(t, s, 2, "Other")

	var page models.ArticlePage
	rec := get(t, srv, "/api/news?source=Acme")
	json.NewDecoder(rec.Body).Decode(&page)
	if len(page.Articles) != 3 || page.Pages != 1 {
		t.Fatalf("filtered: len=%d pages=%d", len(page.Articles), page.Pages)
	}
	for _, a := range page.Articles {
		if a.SourceName != "Acme" {
			t.Fatalf("unexpected source %q", a.SourceName)
		}
	}

	// Unknown filter yields an empty set, not an error.
	rec = get(t, srv, "/api/news?source=Nope")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown filter, got %d", rec.Code)
	}
	json.NewDecoder(rec.Body).Decode(&page)
	if len(page.Articles) != 0 || page.Pages != 0 {
		t.Fatalf("unknown filter: len=%d pages=%d", len(page.Articles), page.Pages)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv, s, _ := setup()
	seedArticles(t, s, 4, "Acme")
	seedArticles(t, s, 2, "Other")

	rec := get(t, srv, "/api/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var stats models.Stats
	json.NewDecoder(rec.Body).Decode(&stats)
	if stats.TotalArticles != 6 || stats.SourcesCount != 2 || stats.LatestUpdate == nil {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestSourcesEndpoint(t *testing.T) {
	srv, s, _ := setup()

	// Empty store serves an empty list, not null.
	rec := get(t, srv, "/api/sources")
	if body := rec.Body.String(); body != "[]\n" {
		t.Fatalf("empty sources body = %q", body)
	}

	seedArticles(t, s, 1, "Wired")
	seedArticles(t, s, 1, "Acme")

	rec = get(t, srv, "/api/sources")
	var names []string
	json.NewDecoder(rec.Body).Decode(&names)
	if len(names) != 2 || names[0] != "Acme" || names[1] != "Wired" {
		t.Fatalf("names = %v", names)
	}
}

func TestFetchNowEndpoint(t *testing.T) {
	srv, _, trigger := setup()

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/fetch-now", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if trigger.calls != 1 {
		t.Fatalf("expected 1 trigger call, got %d", trigger.calls)
	}

	var resp map[string]string
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["cycle"] == "" {
		t.Fatal("expected cycle id in response")
	}
}

func TestFetchNowConflict(t *testing.T) {
	srv, _, trigger := setup()
	trigger.err = scheduler.ErrCycleInProgress

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/fetch-now", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 while a cycle is running, got %d", rec.Code)
	}
}
