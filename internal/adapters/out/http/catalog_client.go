// internal/adapters/out/http/catalog_client.go
package httpout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	orderdom "drmoto/internal/domain/order"
	productdom "drmoto/internal/domain/product"
)

var (
	ErrNotConfigured = errors.New("catalog client: baseURL is empty")
	ErrUnauthorized  = errors.New("catalog client: unauthorized")
)

// TokenSource returns the bearer token of the signed-in user.
type TokenSource func(ctx context.Context) (string, error)

// StatusError is a non-2xx response from the product API.
type StatusError struct {
	Method string
	Path   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog client: %s %s status=%d", e.Method, e.Path, e.Status)
}

// CatalogClient talks to the product and order API.
// Every request waits on a shared rate limiter.
type CatalogClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	token   TokenSource
	log     *zap.Logger
}

var (
	_ productdom.CatalogPort = (*CatalogClient)(nil)
	_ orderdom.SubmitterPort = (*CatalogClient)(nil)
)

// NewCatalogClient allows rps requests per second with a burst of one second's worth.
func NewCatalogClient(baseURL string, rps float64, token TokenSource, log *zap.Logger) *CatalogClient {
	if log == nil {
		log = zap.NewNop()
	}
	if rps <= 0 {
		rps = 5
	}
	burst := max(1, int(rps))
	return &CatalogClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		token:   token,
		log:     log,
	}
}

func (c *CatalogClient) List(ctx context.Context, f productdom.Filter) ([]productdom.Product, error) {
	q := url.Values{}
	if f.CategoryID > 0 {
		q.Set("categoryId", strconv.FormatInt(f.CategoryID, 10))
	}
	var out []productdom.Product
	if err := c.do(ctx, http.MethodGet, "/products", q, nil, &out); err != nil {
		return nil, err
	}
	return filter(out, f), nil
}

func (c *CatalogClient) GetByID(ctx context.Context, id int64) (*productdom.Product, error) {
	if id <= 0 {
		return nil, productdom.ErrInvalidID
	}
	var p productdom.Product
	err := c.do(ctx, http.MethodGet, "/products/"+strconv.FormatInt(id, 10), nil, nil, &p)
	var se *StatusError
	if errors.As(err, &se) && se.Status == http.StatusNotFound {
		return nil, productdom.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *CatalogClient) Categories(ctx context.Context) ([]productdom.Category, error) {
	var out []productdom.Category
	if err := c.do(ctx, http.MethodGet, "/categories", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CatalogClient) Search(ctx context.Context, query string) ([]productdom.Product, error) {
	q := url.Values{}
	q.Set("q", strings.TrimSpace(query))
	var out []productdom.Product
	if err := c.do(ctx, http.MethodGet, "/products/search", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create posts the order; it requires a signed-in user.
func (c *CatalogClient) Create(ctx context.Context, o orderdom.Order) (orderdom.Receipt, error) {
	var rc orderdom.Receipt
	if err := c.do(ctx, http.MethodPost, "/orders", nil, o, &rc); err != nil {
		return orderdom.Receipt{}, err
	}
	if rc.OrderID == "" {
		rc.OrderID = o.ID
	}
	return rc, nil
}

func (c *CatalogClient) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	if c == nil || c.baseURL == "" {
		return ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.token != nil {
		tok, err := c.token(ctx)
		switch {
		case err == nil && tok != "":
			req.Header.Set("Authorization", "Bearer "+tok)
		case method != http.MethodGet:
			// reads are public, writes are not
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("catalog request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", bodyBytes))
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode}
	}
	if out == nil || len(bytes.TrimSpace(bodyBytes)) == 0 {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// filter applies f locally in case the API ignores the query parameters.
func filter(items []productdom.Product, f productdom.Filter) []productdom.Product {
	out := make([]productdom.Product, 0, len(items))
	for _, p := range items {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}
