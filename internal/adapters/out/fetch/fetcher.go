// internal/adapters/out/fetch/fetcher.go
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	capdom "drmoto/internal/domain/capture"
)

// DefaultMaxBytes bounds a single fetched image.
const DefaultMaxBytes = 32 << 20

var (
	ErrEmptyURI          = errors.New("fetch: uri is empty")
	ErrUnsupportedScheme = errors.New("fetch: unsupported scheme")
	ErrTooLarge          = errors.New("fetch: payload too large")
)

// Fetcher reads the bytes behind file://, bare path and http(s) URIs.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

var _ capdom.FetcherPort = (*Fetcher)(nil)

func NewFetcher(client *http.Client, maxBytes int64) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{client: client, maxBytes: maxBytes}
}

func (f *Fetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, ErrEmptyURI
	}
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("fetch: parse %q: %w", uri, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "":
		return f.readFile(ctx, uri)
	case "file":
		return f.readFile(ctx, u.Path)
	case "http", "https":
		return f.get(ctx, u.String())
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
}

func (f *Fetcher) readFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return f.readLimited(fh)
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch: status=%d", resp.StatusCode)
	}
	return f.readLimited(resp.Body)
}

func (f *Fetcher) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}
