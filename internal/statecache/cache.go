package statecache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Entry holds the cached index rows for one state. Immutable once inserted;
// re-fetching requires explicit eviction.
type Entry struct {
	State    string
	Counties []Row
	Zips     []Row
	Tracts   []Row
	LoadedAt time.Time
	Elapsed  time.Duration
}

// Cache memoizes per-state index loads. It is an explicit dependency handed
// to callers, not a package singleton, and concurrent Load calls for the same
// uncached state share one in-flight fetch.
type Cache struct {
	fetch RowFetcher

	mu      sync.RWMutex
	entries map[string]*Entry
	group   singleflight.Group
}

// New creates a Cache over the given row fetcher.
func New(fetch RowFetcher) *Cache {
	return &Cache{
		fetch:   fetch,
		entries: make(map[string]*Entry),
	}
}

// normalizeState validates and uppercases a two-letter state code.
func normalizeState(stateCode string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(stateCode))
	if len(s) != 2 || s[0] < 'A' || s[0] > 'Z' || s[1] < 'A' || s[1] > 'Z' {
		return "", eris.Errorf("statecache: unknown geography %q (want a two-letter state code)", stateCode)
	}
	return s, nil
}

// Load ensures the index rows for a state are cached, fetching the three
// per-state files (county, zip, tract) concurrently on first call. All three
// are attempted up front so one remote round trip covers the process
// lifetime. A failed file yields an empty collection, not a failed entry.
// Returns true when an entry is cached after the call.
func (c *Cache) Load(ctx context.Context, stateCode string) (bool, error) {
	state, err := normalizeState(stateCode)
	if err != nil {
		return false, err
	}

	if _, ok := c.Get(state); ok {
		return true, nil
	}

	_, err, _ = c.group.Do(state, func() (any, error) {
		// A racing caller may have completed the load while we queued.
		c.mu.RLock()
		_, ok := c.entries[state]
		c.mu.RUnlock()
		if ok {
			return nil, nil
		}

		entry := c.loadEntry(ctx, state)

		c.mu.Lock()
		c.entries[state] = entry
		c.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// loadEntry fetches the three index files concurrently and joins them into
// one entry. Per-file failures degrade to empty collections.
func (c *Cache) loadEntry(ctx context.Context, state string) *Entry {
	log := zap.L().With(zap.String("component", "statecache"), zap.String("state", state))
	started := time.Now()

	entry := &Entry{State: state}

	g, ctx := errgroup.WithContext(ctx)
	for kind, dst := range map[Kind]*[]Row{
		KindCounty: &entry.Counties,
		KindZip:    &entry.Zips,
		KindTract:  &entry.Tracts,
	} {
		kind, dst := kind, dst
		g.Go(func() error {
			rows, err := c.fetch.FetchRows(ctx, state, kind)
			if err != nil {
				log.Warn("index file load failed, caching empty collection",
					zap.String("kind", string(kind)),
					zap.Error(err),
				)
				return nil
			}
			*dst = rows
			return nil
		})
	}
	_ = g.Wait()

	entry.LoadedAt = time.Now().UTC()
	entry.Elapsed = time.Since(started)

	log.Info("state index cached",
		zap.Int("counties", len(entry.Counties)),
		zap.Int("zips", len(entry.Zips)),
		zap.Int("tracts", len(entry.Tracts)),
		zap.Duration("elapsed", entry.Elapsed),
	)
	return entry
}

// Get returns the cached entry for a state, if present.
func (c *Cache) Get(stateCode string) (*Entry, bool) {
	state, err := normalizeState(stateCode)
	if err != nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[state]
	return entry, ok
}

// Clear evicts one state's entry.
func (c *Cache) Clear(stateCode string) {
	state, err := normalizeState(stateCode)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, state)
}

// ClearAll evicts every entry.
func (c *Cache) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry)
}

// StateStats describes one cached state for observability.
type StateStats struct {
	Counties int           `json:"counties"`
	Zips     int           `json:"zips"`
	Tracts   int           `json:"tracts"`
	LoadedAt time.Time     `json:"loaded_at"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Stats returns per-state row counts and load times. Read-only projection.
func (c *Cache) Stats() map[string]StateStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]StateStats, len(c.entries))
	for state, entry := range c.entries {
		out[state] = StateStats{
			Counties: len(entry.Counties),
			Zips:     len(entry.Zips),
			Tracts:   len(entry.Tracts),
			LoadedAt: entry.LoadedAt,
			Elapsed:  entry.Elapsed,
		}
	}
	return out
}
