package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/amaumene/gotrackarr/internal/config"
	"github.com/cenkalti/backoff/v4"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL = "https://api.themoviedb.org/3"
	maxRetries     = 3
)

// Client handles communication with the TMDB API. Successful responses
// are cached for the configured TTL so repeated reconciliation passes
// do not re-fetch unchanged catalog state.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *gocache.Cache
	logger     *logrus.Logger
}

// NewClient creates a new catalog API client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.TMDBAPIKey == "" {
		return nil, fmt.Errorf("TMDB API key is required")
	}

	ttl := time.Duration(cfg.CatalogCacheMinutes) * time.Minute
	return &Client{
		baseURL:    defaultBaseURL,
		apiKey:     cfg.TMDBAPIKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      gocache.New(ttl, 2*ttl),
		logger:     logger,
	}, nil
}

// get performs a cached GET against the API and decodes the JSON
// response into result
func (c *Client) get(ctx context.Context, path string, query url.Values, result interface{}) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api_key", c.apiKey)

	fullURL := c.baseURL + path + "?" + query.Encode()

	if cached, found := c.cache.Get(fullURL); found {
		return json.Unmarshal(cached.([]byte), result)
	}

	body, err := c.fetch(ctx, fullURL)
	if err != nil {
		return err
	}

	c.cache.Set(fullURL, body, gocache.DefaultExpiration)
	return json.Unmarshal(body, result)
}

// fetch performs the HTTP request with exponential backoff. Rate limits
// and server errors are retried; other client errors are permanent.
func (c *Client) fetch(ctx context.Context, fullURL string) ([]byte, error) {
	var body []byte

	operation := func() error {
		c.logger.WithField("url", fullURL).Debug("Making catalog API request")

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return fmt.Errorf("API request failed with status %d", resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(fmt.Errorf("API request failed with status %d", resp.StatusCode))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		return nil, err
	}
	return body, nil
}

// parseDate parses a YYYY-MM-DD date from the API; empty strings and
// malformed values come back as nil
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
