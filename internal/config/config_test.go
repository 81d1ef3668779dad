package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SOURCES_FILE", "")
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("FETCH_INTERVAL", "")
	t.Setenv("SOURCE_TIMEOUT", "")
	t.Setenv("PER_SOURCE_LIMIT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.FetchInterval != 3*time.Hour {
		t.Errorf("interval = %v", cfg.FetchInterval)
	}
	if cfg.SourceTimeout != 20*time.Second {
		t.Errorf("timeout = %v", cfg.SourceTimeout)
	}
	if cfg.PerSourceLimit != 10 {
		t.Errorf("per-source limit = %d", cfg.PerSourceLimit)
	}
	if len(cfg.Sources) != 8 {
		t.Errorf("expected the 8 default sources, got %d", len(cfg.Sources))
	}
	for _, s := range cfg.Sources {
		if s.Parser != "rss" || !s.Enabled {
			t.Errorf("default source %q misconfigured: %+v", s.Name, s)
		}
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SOURCES_FILE", "")
	t.Setenv("PORT", "9090")
	t.Setenv("FETCH_INTERVAL", "45m")
	t.Setenv("SOURCE_TIMEOUT", "5s")
	t.Setenv("PER_SOURCE_LIMIT", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "9090" || cfg.FetchInterval != 45*time.Minute || cfg.SourceTimeout != 5*time.Second || cfg.PerSourceLimit != 25 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadSourcesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	content := `sources:
  - name: Custom Feed
    url: https://custom.example/feed
    parser: rss
    enabled: true
  - name: Disabled
    url: https://off.example/feed
    parser: rss
    enabled: false
  - name: Scraped
    url: https://scrape.example/
    parser: html
    selectors:
      item: article
      title: h2
      link: a
    enabled: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SOURCES_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Sources) != 2 {
		t.Fatalf("expected 2 enabled sources, got %d", len(cfg.Sources))
	}
	if cfg.Sources[0].Name != "Custom Feed" || cfg.Sources[1].Parser != "html" {
		t.Fatalf("sources = %+v", cfg.Sources)
	}
}

func TestValidateSources(t *testing.T) {
	tests := []struct {
		name    string
		sources []Source
	}{
		{"missing name", []Source{{URL: "https://x.example", Parser: "rss"}}},
		{"missing url", []Source{{Name: "X", Parser: "rss"}}},
		{"bad scheme", []Source{{Name: "X", URL: "ftp://x.example", Parser: "rss"}}},
		{"unknown parser", []Source{{Name: "X", URL: "https://x.example", Parser: "soap"}}},
		{"duplicate names", []Source{
			{Name: "X", URL: "https://x.example/1", Parser: "rss"},
			{Name: "X", URL: "https://x.example/2", Parser: "rss"},
		}},
		{"html without selectors", []Source{{Name: "X", URL: "https://x.example", Parser: "html"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validateSources(tt.sources); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	ok := []Source{{Name: "X", URL: "https://x.example", Parser: "rss"}}
	if err := validateSources(ok); err != nil {
		t.Fatalf("valid source rejected: %v", err)
	}
}
