package ebitenhost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tilerender/vectormap/tilecoord"
	"github.com/tilerender/vectormap/tilestore"
)

// HTTPFetcher implements tilestore.Fetcher against a slippy-map tile
// server URL template (e.g. "https://example.com/{z}/{x}/{y}.mvt"). The
// HTTP client itself is an out-of-scope external collaborator (spec.md
// §1); this is the thin templating/GET glue around net/http.
type HTTPFetcher struct {
	URLTemplate string
	Client      *http.Client
}

// NewHTTPFetcher returns a fetcher with a 10s-timeout default client.
func NewHTTPFetcher(urlTemplate string) *HTTPFetcher {
	return &HTTPFetcher{
		URLTemplate: urlTemplate,
		Client:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, coord tilecoord.Coord) ([]byte, error) {
	url := strings.NewReplacer(
		"{z}", strconv.Itoa(coord.Z),
		"{x}", strconv.Itoa(coord.X),
		"{y}", strconv.Itoa(coord.Y),
	).Replace(f.URLTemplate)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("ebitenhost: fetch %s: %w", url, tilestore.ErrTileUnavailable)
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("ebitenhost: fetch %s: %w", url, tilestore.ErrTileUnavailable)
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		// 404/410: the server has nothing at this coordinate, a normal
		// occurrence at sparse zoom levels. Not a failure.
		return nil, fmt.Errorf("ebitenhost: fetch %s: status %d: %w", url, resp.StatusCode, tilestore.ErrTileEmpty)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("ebitenhost: fetch %s: status %d: %w", url, resp.StatusCode, tilestore.ErrTileUnavailable)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("ebitenhost: fetch %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// SystemClock implements tilestore.Clock with wall-clock time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
