package imagepkg

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"
)

const (
	defaultFetchTimeout = 10 * time.Second

	// DefaultMaxPixels bounds a single remote or uploaded image.
	DefaultMaxPixels = 100_000_000
)

// Fetcher downloads PNG inputs over HTTP.
type Fetcher struct {
	Client    *http.Client
	MaxBytes  int64
	MaxPixels int
}

// NewFetcher returns a Fetcher with the given timeout. A non-positive timeout
// selects the default.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Fetcher{Client: &http.Client{Timeout: timeout}, MaxBytes: 64 << 20, MaxPixels: DefaultMaxPixels}
}

// FetchPNG downloads url and decodes it with DecodePNGLimit.
func (f *Fetcher) FetchPNG(ctx context.Context, url string) (*image.NRGBA, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	var body io.Reader = resp.Body
	if f.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, f.MaxBytes)
	}
	img, err := DecodePNGLimit(body, f.MaxPixels)
	if err != nil {
		return nil, WithPath(err, url)
	}
	return img, nil
}
