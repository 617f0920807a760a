package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pricelens/backend/internal/domain"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
	defaultBackoff     = 500 * time.Millisecond
	defaultPerMinute   = 60
	maxErrorBody       = 512
)

// ClientConfig holds configuration for the listing feed client
type ClientConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
	MaxAttempts       int
	// Backoff is multiplied by the attempt number between retries.
	Backoff time.Duration
}

// Client fetches scraped listings from the scraper's HTTP feed.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	maxAttempts int
	backoff     time.Duration
}

// NewClient creates a new listing feed client
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	perMinute := config.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = defaultPerMinute
	}

	maxAttempts := config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	backoff := config.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(config.BaseURL, "/"),
		rateLimiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute),
		maxAttempts: maxAttempts,
		backoff:     backoff,
	}
}

// doRequest executes an HTTP GET request with proper headers
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "feed: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "PriceLens/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(domain.ErrFeedFailure, "feed: %v", err)
	}
	return resp, nil
}

// Load implements domain.ListingSource. It retries transport failures and
// non-200 responses with linear backoff; 404 means the feed has nothing to serve.
func (c *Client) Load(ctx context.Context) ([]domain.RawListing, error) {
	reqURL := c.baseURL + "/listings"
	log := zap.L().With(zap.String("url", reqURL))

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "feed: rate limiter")
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			log.Warn("feed request failed", zap.Int("attempt", attempt), zap.Error(err))
			lastErr = err
			if err := c.wait(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, eris.Wrapf(domain.ErrSourceUnavailable, "feed: %s returned 404", reqURL)
		}
		if resp.StatusCode != http.StatusOK || readErr != nil {
			log.Warn("feed returned error status",
				zap.Int("attempt", attempt),
				zap.Int("status", resp.StatusCode),
				zap.String("body", truncate(string(body), maxErrorBody)),
			)
			lastErr = eris.Wrapf(domain.ErrFeedFailure, "feed: status %d", resp.StatusCode)
			if err := c.wait(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		var items []Item
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, eris.Wrapf(domain.ErrFeedFailure, "feed: decode response: %v", err)
		}

		listings := MapToListings(items)
		log.Info("feed loaded", zap.Int("listings", len(listings)))
		return listings, nil
	}

	log.Error("feed retries exhausted", zap.Int("attempts", c.maxAttempts))
	return nil, lastErr
}

// wait sleeps before the next attempt unless ctx ends first.
// There is nothing to wait for after the last attempt.
func (c *Client) wait(ctx context.Context, attempt int) error {
	if attempt >= c.maxAttempts {
		return nil
	}

	timer := time.NewTimer(time.Duration(attempt) * c.backoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...(%d bytes)", s[:n], len(s))
}
