package tilestore

import (
	"context"
	"errors"

	"github.com/tilerender/vectormap/mvt"
	"github.com/tilerender/vectormap/tilecoord"
	"github.com/tilerender/vectormap/tiledata"
)

// ErrTileEmpty is returned by a Fetcher for a tile the server legitimately
// has nothing to serve for (HTTP 404/410, common at sparse zoom levels in
// a real tile pyramid). fetchAndStore maps it to a Ready tile with zero
// feature sets rather than retrying it forever or marking it Failed.
var ErrTileEmpty = errors.New("tilestore: tile not found")

// ErrTileUnavailable is returned by a Fetcher for a transport-level
// failure worth remembering as Failed rather than silently retrying
// (HTTP 5xx, request timeout).
var ErrTileUnavailable = errors.New("tilestore: tile unavailable")

// fetchAndStore acquires a semaphore slot, fetches and decodes one tile,
// and replaces its cache entry with the result. Runs in its own
// goroutine, dispatched once per key by ensureDispatched.
func (s *Store) fetchAndStore(ctx context.Context, coord tilecoord.Coord) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.removeEntry(coord)
		return
	}
	defer s.sem.Release(1)

	data, err := s.fetcher.Fetch(ctx, coord)
	if err != nil {
		switch {
		case errors.Is(err, ErrTileEmpty):
			s.storeEmpty(coord)
		case errors.Is(err, ErrTileUnavailable):
			logf("tilestore: fetch %s: %v", coord.Key(), err)
			s.storeFailed(coord)
		default:
			logf("tilestore: fetch %s: %v", coord.Key(), err)
			s.removeEntry(coord)
		}
		return
	}

	result, err := mvt.Parse(data, s.allowlist)
	if err != nil {
		logf("tilestore: parse %s: %v", coord.Key(), err)
		s.storeFailed(coord)
		return
	}

	tile := &tiledata.Tile{
		X:           coord.X,
		Y:           coord.Y,
		Z:           coord.Z,
		State:       tiledata.StateReady,
		FeatureSets: convertFeatures(result.Features),
		Labels:      result.Labels,
		LoadedAt:    s.clock.Now(),
	}

	s.mu.Lock()
	s.cache.Add(coord.Key(), tile)
	s.mu.Unlock()
}

// removeEntry drops the Loading placeholder entirely, so the tile looks
// un-fetched to a subsequent Plan call (distinct from storeFailed, used
// for transport errors worth retrying rather than remembering as a
// permanent decode failure).
func (s *Store) removeEntry(coord tilecoord.Coord) {
	s.mu.Lock()
	s.cache.Remove(coord.Key())
	s.mu.Unlock()
}

// storeEmpty records coord as Ready with no feature sets or labels, the
// terminal state for a tile the server has nothing to serve for.
func (s *Store) storeEmpty(coord tilecoord.Coord) {
	s.mu.Lock()
	s.cache.Add(coord.Key(), &tiledata.Tile{
		X: coord.X, Y: coord.Y, Z: coord.Z,
		State:    tiledata.StateReady,
		LoadedAt: s.clock.Now(),
	})
	s.mu.Unlock()
}

func (s *Store) storeFailed(coord tilecoord.Coord) {
	s.mu.Lock()
	s.cache.Add(coord.Key(), &tiledata.Tile{
		X: coord.X, Y: coord.Y, Z: coord.Z,
		State:    tiledata.StateFailed,
		LoadedAt: s.clock.Now(),
	})
	s.mu.Unlock()
}
