package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/LavaJover/shvark-rates-service/internal/domain"
)

const (
	maxRetries     = 3
	retryBaseDelay = 1000 * time.Millisecond
	requestTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second

	userAgent = "shvark-rates-service/1.0"
)

// RawTicker is the untrusted payload of GET /api/v3/ticker/price.
type RawTicker struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// Client talks to the Binance REST API with bounded retries and exponential
// backoff. Transport errors and non-200 statuses are retried; after the retry
// budget is spent the last error surfaces as a domain.UpstreamError.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	backoffBase time.Duration
	log         *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = requestTimeout
	}
	return &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: timeout},
		backoffBase: retryBaseDelay,
		log:         log,
	}
}

func (c *Client) FetchRateData(ctx context.Context, symbol string) (*RawTicker, error) {
	attempts := 0
	var lastErr error

	for attempts < maxRetries {
		ticker, err := c.doFetch(ctx, symbol)
		if err == nil {
			return ticker, nil
		}

		lastErr = err
		attempts++
		if attempts >= maxRetries {
			break
		}

		delay := c.backoffBase * (1 << (attempts - 1))
		c.log.Warn("retrying Binance request",
			"symbol", symbol,
			"attempt", attempts,
			"delay_ms", delay.Milliseconds(),
			"error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, &domain.UpstreamError{Attempts: attempts, Err: ctx.Err()}
		}
	}

	return nil, &domain.UpstreamError{Attempts: attempts, Err: lastErr}
}

func (c *Client) doFetch(ctx context.Context, symbol string) (*RawTicker, error) {
	query := url.Values{}
	query.Set("symbol", symbol)
	endpoint := c.baseURL + "/api/v3/ticker/price?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, body)
	}

	var ticker RawTicker
	if err := json.NewDecoder(resp.Body).Decode(&ticker); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &ticker, nil
}

// Ping probes GET /api/v3/ping with a short timeout. It reports false on any
// failure instead of propagating an error.
func (c *Client) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v3/ping", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("Binance health check failed", "error", err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
