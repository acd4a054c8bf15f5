package eop

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	defaultC04URL      = "https://datacenter.iers.org/data/latestVersion/224_EOP_C04_14.62-NOW.IAU2000A224.txt"
	defaultStandardURL = "https://datacenter.iers.org/data/latestVersion/9_FINALS.ALL_IAU2000_V2013_019.txt"

	// maxFetchBytes bounds response reads; EOP product files are a few MB.
	maxFetchBytes = 50 * 1024 * 1024
)

// Fetcher retrieves raw Earth orientation data products from the IERS data
// center. It never parses: the provider consumes bytes already in memory or
// on disk.
type Fetcher struct {
	c04URL      string
	standardURL string
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewFetcher creates a Fetcher. Empty URLs select the IERS defaults.
func NewFetcher(c04URL, standardURL string, logger *slog.Logger) *Fetcher {
	if c04URL == "" {
		c04URL = defaultC04URL
	}
	if standardURL == "" {
		standardURL = defaultStandardURL
	}
	return &Fetcher{
		c04URL:      c04URL,
		standardURL: standardURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// FetchC04 performs an HTTP GET for the latest C04 product.
func (f *Fetcher) FetchC04(ctx context.Context) ([]byte, error) {
	return f.fetch(ctx, f.c04URL)
}

// FetchStandard performs an HTTP GET for the latest finals2000A product.
func (f *Fetcher) FetchStandard(ctx context.Context) ([]byte, error) {
	return f.fetch(ctx, f.standardURL)
}

// DownloadC04 fetches the latest C04 product to the given path, creating
// missing parent directories.
func (f *Fetcher) DownloadC04(ctx context.Context, path string) error {
	return f.download(ctx, f.c04URL, path)
}

// DownloadStandard fetches the latest finals2000A product to the given
// path, creating missing parent directories.
func (f *Fetcher) DownloadStandard(ctx context.Context, path string) error {
	return f.download(ctx, f.standardURL, path)
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching EOP data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > maxFetchBytes {
		return nil, fmt.Errorf("response from %s exceeds %d byte limit", url, maxFetchBytes)
	}

	f.logger.Info("fetched EOP data",
		"url", url,
		"bytes", len(body),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return body, nil
}

func (f *Fetcher) download(ctx context.Context, url, path string) error {
	body, err := f.fetch(ctx, url)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, body, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
