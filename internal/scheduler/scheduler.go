// Package scheduler drives fetch cycles: a fixed-interval timer and manual
// triggers share one cycle implementation, and at most one cycle runs at a
// time.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PrinceV-hub/TechDigest/internal/models"
	"github.com/PrinceV-hub/TechDigest/internal/normalize"
	"github.com/PrinceV-hub/TechDigest/internal/source"
	"github.com/PrinceV-hub/TechDigest/internal/store"
)

// ErrCycleInProgress is returned to a manual trigger while a cycle is
// already running. Callers retry later; it is never fatal.
var ErrCycleInProgress = errors.New("fetch cycle already in progress")

// Scheduler owns the Idle/Running cycle state and the per-source runtime
// status. All mutable state stays behind its mutex.
type Scheduler struct {
	store    store.Store
	adapters []source.Adapter
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	running   bool
	ctx       context.Context
	statuses  map[string]models.SourceStatus
	lastCycle *models.CycleRecord
}

// New returns a Scheduler polling every interval, bounding each source
// fetch by timeout.
func New(st store.Store, adapters []source.Adapter, interval, timeout time.Duration, logger *slog.Logger) *Scheduler {
	s := &Scheduler{
		store:    st,
		adapters: adapters,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		statuses: make(map[string]models.SourceStatus),
	}
	for _, a := range adapters {
		s.statuses[a.Name()] = models.SourceStatus{Name: a.Name()}
	}
	return s
}

// Start begins the timer loop. It blocks until ctx is cancelled. When the
// store is empty a cycle runs immediately so a fresh deployment serves
// content before the first tick.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.logger.Info("scheduler started", "interval", s.interval, "sources", len(s.adapters))

	if stats, err := s.store.Stats(ctx); err == nil && stats.TotalArticles == 0 {
		if err := s.runCycle(ctx, "startup"); err != nil {
			s.logger.Warn("startup cycle skipped", "error", err)
		}
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			if err := s.runCycle(ctx, "timer"); errors.Is(err, ErrCycleInProgress) {
				s.logger.Warn("timer tick skipped, cycle still running")
			}
		}
	}
}

// TriggerNow starts a manual cycle in the background and returns its id
// immediately, or ErrCycleInProgress when one is already running.
func (s *Scheduler) TriggerNow() (string, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return "", ErrCycleInProgress
	}
	s.running = true
	ctx := s.ctx
	s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	id := uuid.NewString()
	go s.cycle(ctx, id, "manual")
	return id, nil
}

// LastCycle returns the most recently completed cycle record.
func (s *Scheduler) LastCycle() (models.CycleRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastCycle == nil {
		return models.CycleRecord{}, false
	}
	return *s.lastCycle, true
}

// Statuses returns a snapshot of every source's runtime status.
func (s *Scheduler) Statuses() []models.SourceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SourceStatus, 0, len(s.statuses))
	for _, a := range s.adapters {
		out = append(out, s.statuses[a.Name()])
	}
	return out
}

func (s *Scheduler) runCycle(ctx context.Context, trigger string) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrCycleInProgress
	}
	s.running = true
	s.mu.Unlock()

	s.cycle(ctx, uuid.NewString(), trigger)
	return nil
}

// cycle fans out one goroutine per source and rejoins through a results
// channel before the cycle is marked complete. The caller must have set
// running; cycle clears it on return.
func (s *Scheduler) cycle(ctx context.Context, id, trigger string) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	started := time.Now().UTC()
	s.logger.Info("fetch cycle starting", "cycle", id, "trigger", trigger, "sources", len(s.adapters))

	results := make(chan models.SourceResult, len(s.adapters))
	var wg sync.WaitGroup
	for _, adapter := range s.adapters {
		wg.Add(1)
		go func(adapter source.Adapter) {
			defer wg.Done()
			results <- s.fetchSource(ctx, adapter)
		}(adapter)
	}

	// Close the channel once every goroutine finishes.
	go func() {
		wg.Wait()
		close(results)
	}()

	record := models.CycleRecord{ID: id, Trigger: trigger, Started: started}
	for res := range results {
		s.recordStatus(res)
		record.Results = append(record.Results, res)
		if res.Err != nil {
			s.logger.Error("source fetch failed", "cycle", id, "source", res.Source, "error", res.Err)
			continue
		}
		s.logger.Info("source fetched",
			"cycle", id,
			"source", res.Source,
			"items", res.Fetched,
			"new", res.Inserted,
			"skipped", res.Skipped,
		)
	}
	record.Finished = time.Now().UTC()

	s.mu.Lock()
	s.lastCycle = &record
	s.mu.Unlock()

	s.logger.Info("fetch cycle complete",
		"cycle", id,
		"new_articles", record.Inserted(),
		"elapsed", record.Finished.Sub(record.Started),
	)
}

// fetchSource pulls one source under its own timeout and streams its items
// through normalize and the store's atomic insert. A failure here is scoped
// to this source alone.
func (s *Scheduler) fetchSource(ctx context.Context, adapter source.Adapter) models.SourceResult {
	res := models.SourceResult{Source: adapter.Name()}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	items, err := adapter.Fetch(fetchCtx)
	if err != nil {
		res.Err = err
		return res
	}
	res.Fetched = len(items)

	fetchTime := time.Now().UTC()
	for _, item := range items {
		article, err := normalize.Normalize(item, adapter.Name(), fetchTime)
		if err != nil {
			res.Skipped++
			continue
		}
		_, inserted, err := s.store.InsertArticle(ctx, article)
		if err != nil {
			s.logger.Error("article insert failed", "source", adapter.Name(), "error", err)
			continue
		}
		if inserted {
			res.Inserted++
		}
	}
	return res
}

func (s *Scheduler) recordStatus(res models.SourceResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := s.statuses[res.Source]
	if res.Err != nil {
		status.LastError = res.Err.Error()
	} else {
		status.LastFetched = time.Now().UTC()
		status.LastError = ""
	}
	s.statuses[res.Source] = status
}
