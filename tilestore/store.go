// Package tilestore is the process-wide tile cache (spec.md C6): it maps
// x/y/z keys to decoded Tile data, plans which tiles a viewport needs,
// dispatches bounded-concurrency fetches, and resolves the best
// currently-available tile for each viewport slot by walking ancestors
// when the exact tile isn't Ready yet.
package tilestore

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/semaphore"

	"github.com/tilerender/vectormap/tilecoord"
	"github.com/tilerender/vectormap/tiledata"
)

// Fetcher retrieves the raw (possibly gzip-compressed) MVT payload for a
// tile. Implementations live in the host layer (e.g. an HTTP client);
// tilestore only depends on this interface.
type Fetcher interface {
	Fetch(ctx context.Context, coord tilecoord.Coord) ([]byte, error)
}

// Clock is injected so tests can control tile age without sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Options configures a Store. Zero values are replaced with sane
// defaults in New.
type Options struct {
	Fetcher Fetcher
	Clock   Clock

	// MaxEntries bounds the backing LRU cache (a backstop against
	// unbounded growth); TTL is the age at which a Ready tile outside
	// the current viewport becomes eligible for Prune.
	MaxEntries int
	TTL        time.Duration

	// FetchConcurrency bounds the number of in-flight network fetches.
	FetchConcurrency int64

	// Allowlist restricts which MVT layers are kept; nil keeps all layers.
	Allowlist []string
}

const (
	defaultMaxEntries       = 4096
	defaultTTL              = 2 * time.Minute
	defaultFetchConcurrency = 8
)

// Store is safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *tiledata.Tile]

	fetcher   Fetcher
	clock     Clock
	ttl       time.Duration
	sem       *semaphore.Weighted
	allowlist map[string]bool
}

func New(opts Options) (*Store, error) {
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("tilestore: Fetcher is required")
	}
	maxEntries := opts.MaxEntries
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	concurrency := opts.FetchConcurrency
	if concurrency <= 0 {
		concurrency = defaultFetchConcurrency
	}
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}

	cache, err := lru.New[string, *tiledata.Tile](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("tilestore: %w", err)
	}

	var allowlist map[string]bool
	if opts.Allowlist != nil {
		allowlist = make(map[string]bool, len(opts.Allowlist))
		for _, name := range opts.Allowlist {
			allowlist[name] = true
		}
	}

	return &Store{
		cache:     cache,
		fetcher:   opts.Fetcher,
		clock:     clock,
		ttl:       ttl,
		sem:       semaphore.NewWeighted(concurrency),
		allowlist: allowlist,
	}, nil
}

// Get returns the cached tile at coord, if any entry exists (Loading,
// Ready, or Failed).
func (s *Store) Get(coord tilecoord.Coord) (*tiledata.Tile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Get(coord.Key())
}

// Plan ensures every tile needed to cover viewport at zoom z (expanded by
// buffer tiles, plus each tile's parent and grandparent as fallback
// placeholders) has an entry in the store, dispatching an async fetch for
// anything missing. It never blocks on network I/O.
func (s *Store) Plan(ctx context.Context, viewport tilecoord.BBox, z, buffer int) {
	wanted := tilecoord.Span(viewport, z, buffer)

	seen := make(map[string]bool, len(wanted)*3)
	for _, coord := range wanted {
		s.ensureDispatched(ctx, coord, seen)
		for _, ancestor := range ancestorsUpTo(coord, 2) {
			s.ensureDispatched(ctx, ancestor, seen)
		}
	}
}

func ancestorsUpTo(c tilecoord.Coord, n int) []tilecoord.Coord {
	all := c.Ancestors()
	if len(all) > n {
		all = all[:n]
	}
	return all
}

// ensureDispatched inserts a Loading placeholder and kicks off a fetch iff
// no entry for coord exists yet. The check-then-insert is done under the
// store's own mutex so two concurrent Plan calls can never both dispatch
// a fetch for the same key.
func (s *Store) ensureDispatched(ctx context.Context, coord tilecoord.Coord, seen map[string]bool) {
	key := coord.Key()
	if seen[key] {
		return
	}
	seen[key] = true

	s.mu.Lock()
	if _, exists := s.cache.Peek(key); exists {
		s.mu.Unlock()
		return
	}
	s.cache.Add(key, &tiledata.Tile{X: coord.X, Y: coord.Y, Z: coord.Z, State: tiledata.StateLoading})
	s.mu.Unlock()

	go s.fetchAndStore(ctx, coord)
}

// RenderableTiles resolves, for each requested viewport tile, the nearest
// Ready ancestor (itself first, then parent, grandparent, ... up to the
// root). Tiles with no Ready ancestor anywhere are omitted. The result is
// deduplicated: two viewport tiles that resolve to the same ancestor
// appear once.
func (s *Store) RenderableTiles(viewport []tilecoord.Coord) []*tiledata.Tile {
	seen := make(map[string]bool, len(viewport))
	out := make([]*tiledata.Tile, 0, len(viewport))

	for _, coord := range viewport {
		candidates := append([]tilecoord.Coord{coord}, coord.Ancestors()...)
		for _, c := range candidates {
			key := c.Key()
			s.mu.Lock()
			tile, exists := s.cache.Peek(key)
			s.mu.Unlock()
			if !exists || tile.State != tiledata.StateReady {
				continue
			}
			if !seen[key] {
				seen[key] = true
				out = append(out, tile)
			}
			break
		}
	}
	return out
}

// Prune removes Ready or Failed entries outside keep whose age exceeds
// the store's TTL. Loading entries are never pruned — only an in-flight
// fetch completing removes them.
func (s *Store) Prune(keep map[string]bool) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range s.cache.Keys() {
		if keep[key] {
			continue
		}
		tile, ok := s.cache.Peek(key)
		if !ok || tile.State == tiledata.StateLoading {
			continue
		}
		if now.Sub(tile.LoadedAt) > s.ttl {
			s.cache.Remove(key)
		}
	}
}
