package demand

import (
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

	"github.com/A-Yoshitsugu/crossborder/internal/domain"
	"github.com/A-Yoshitsugu/crossborder/internal/logger"
)

const (
	maxAttempts     = 3
	maxResponseSize = 8 << 20
	maxLoggedBody   = 2000
)

// Client handles communication with the upstream demand API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
	debug       bool
}

// NewClient creates a demand API client.
// requestsPerHour <= 0 disables client-side rate limiting.
func NewClient(baseURL string, requestsPerHour int, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if requestsPerHour > 0 {
		// rate.Limit is per second; allow short bursts up to 10 calls
		limiter = rate.NewLimiter(rate.Limit(float64(requestsPerHour)/3600.0), 10)
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(baseURL, "/"),
		rateLimiter: limiter,
		logger:      logger.Named("demand"),
	}
}

// SetDebug enables logging of raw upstream response bodies
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// exponentialBackoff returns the wait before retrying after the given attempt (1-based)
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "crossborder/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}
	return resp, nil
}

// FetchDemand retrieves demand rows for the query's categories and window.
// Rows the mapper rejects are logged and skipped.
func (c *Client) FetchDemand(ctx context.Context, query domain.DemandQuery) ([]domain.DemandItem, error) {
	params := url.Values{}
	params.Set("cats", strings.Join(query.Categories, ","))
	params.Set("days", strconv.Itoa(query.Days))
	reqURL := fmt.Sprintf("%s/sg_demand?%s", c.baseURL, params.Encode())

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("demand request failed", zap.Int("attempt", attempt), zap.Error(err))
			lastErr = err
			if attempt < maxAttempts && !c.sleep(ctx, attempt) {
				return nil, ctx.Err()
			}
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("%w: read body: %v", domain.ErrUpstreamFailure, readErr)
			if attempt < maxAttempts && !c.sleep(ctx, attempt) {
				return nil, ctx.Err()
			}
			continue
		}

		if c.debug {
			c.logger.Debug("demand response", zap.Int("status", resp.StatusCode), zap.String("body", logger.Truncate(string(body), maxLoggedBody)))
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			// upstream has nothing for these categories
			return []domain.DemandItem{}, nil
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("%w: upstream status %d", domain.ErrRateLimited, resp.StatusCode)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return nil, fmt.Errorf("%w: status %d", domain.ErrUpstreamFailure, resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			lastErr = fmt.Errorf("%w: status %d", domain.ErrUpstreamFailure, resp.StatusCode)
		default:
			return c.decode(body)
		}

		c.logger.Warn("demand API error", zap.Int("attempt", attempt), zap.Int("status", resp.StatusCode))
		if attempt < maxAttempts && !c.sleep(ctx, attempt) {
			return nil, ctx.Err()
		}
	}

	c.logger.Error("all demand retries failed", zap.Strings("categories", query.Categories), zap.Error(lastErr))
	return nil, lastErr
}

func (c *Client) decode(body []byte) ([]domain.DemandItem, error) {
	rows, err := decodeRows(body)
	if err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrUpstreamFailure, err)
	}

	items, failures := MapRows(rows)
	for _, f := range failures {
		c.logger.Warn("skipping demand row", zap.Int("index", f.Index), zap.String("id", f.ID), zap.Error(f.Err))
	}
	c.logger.Debug("demand rows fetched", zap.Int("rows", len(rows)), zap.Int("items", len(items)))
	return items, nil
}

// decodeRows accepts either a bare JSON array or an object with an "items" array
func decodeRows(body []byte) ([]Row, error) {
	var rows []Row
	if err := json.Unmarshal(body, &rows); err == nil {
		return rows, nil
	}

	var envelope struct {
		Items *[]Row `json:"items"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, err
	}
	if envelope.Items == nil {
		return nil, errors.New(`response has no "items" array`)
	}
	return *envelope.Items, nil
}

func (c *Client) sleep(ctx context.Context, attempt int) bool {
	timer := time.NewTimer(exponentialBackoff(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

var _ domain.DemandProvider = (*Client)(nil)
