package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default_sources.yaml
var defaultSourcesFS embed.FS

// Selectors holds the CSS selectors an HTML-scrape source is parsed with.
// Time is optional; TimeAttr names the attribute carrying the timestamp
// (default "datetime").
type Selectors struct {
	Item     string `yaml:"item"`
	Title    string `yaml:"title"`
	Link     string `yaml:"link"`
	Summary  string `yaml:"summary"`
	Time     string `yaml:"time"`
	TimeAttr string `yaml:"time_attr"`
}

// Source is one configured adapter identity.
type Source struct {
	Name      string     `yaml:"name"`
	URL       string     `yaml:"url"`
	Parser    string     `yaml:"parser"` // rss | html | json
	Selectors *Selectors `yaml:"selectors,omitempty"`
	Enabled   bool       `yaml:"enabled"`
}

// Config is the process configuration, read from environment variables plus
// a YAML source list (embedded defaults when SOURCES_FILE is unset).
type Config struct {
	Port           string
	DatabaseURL    string
	FetchInterval  time.Duration
	SourceTimeout  time.Duration
	PerSourceLimit int
	Sources        []Source
}

// Load reads configuration from the environment and the source definitions
// file. Only enabled sources are returned.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           envOrDefault("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		FetchInterval:  envDuration("FETCH_INTERVAL", 3*time.Hour),
		SourceTimeout:  envDuration("SOURCE_TIMEOUT", 20*time.Second),
		PerSourceLimit: envInt("PER_SOURCE_LIMIT", 10),
	}

	sources, err := loadSources(os.Getenv("SOURCES_FILE"))
	if err != nil {
		return nil, err
	}
	for _, s := range sources {
		if s.Enabled {
			cfg.Sources = append(cfg.Sources, s)
		}
	}
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("no enabled sources configured")
	}
	return cfg, nil
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

func loadSources(path string) ([]Source, error) {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = defaultSourcesFS.ReadFile("default_sources.yaml")
		if err != nil {
			return nil, fmt.Errorf("reading embedded sources: %w", err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading sources file: %w", err)
		}
	}

	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing sources: %w", err)
	}
	if err := validateSources(f.Sources); err != nil {
		return nil, err
	}
	return f.Sources, nil
}

func validateSources(sources []Source) error {
	validParsers := map[string]bool{"rss": true, "html": true, "json": true}
	seen := make(map[string]bool)
	for i, s := range sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("source %q: duplicate name", s.Name)
		}
		seen[s.Name] = true
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required", s.Name)
		}
		u, err := url.Parse(s.URL)
		if err != nil {
			return fmt.Errorf("source %q: invalid url: %w", s.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("source %q: url scheme must be http or https, got %q", s.Name, u.Scheme)
		}
		if !validParsers[s.Parser] {
			return fmt.Errorf("source %q: unknown parser %q (valid: rss, html, json)", s.Name, s.Parser)
		}
		if s.Parser == "html" {
			if s.Selectors == nil || s.Selectors.Item == "" || s.Selectors.Title == "" || s.Selectors.Link == "" {
				return fmt.Errorf("source %q: html parser requires selectors.item, selectors.title and selectors.link", s.Name)
			}
		}
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
