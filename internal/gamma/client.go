// Package gamma is the HTTP transport for the live market API.
package gamma

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-paper/internal/circuitbreaker"
	"github.com/mselser95/polymarket-paper/pkg/types"
)

// maxErrorBody caps how much of a non-2xx body is kept in the error.
const maxErrorBody = 512

// Client is an HTTP client for the market API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker
	logger     *zap.Logger
}

// Config holds client configuration. Breaker may be nil.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Breaker *circuitbreaker.Breaker
	Logger  *zap.Logger
}

// NewClient creates a new market API client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: cfg.Breaker,
		logger:  cfg.Logger,
	}
}

// FetchMarkets lists all markets.
func (c *Client) FetchMarkets(ctx context.Context) ([]Market, error) {
	var markets []Market
	err := c.get(ctx, "markets", "/markets", nil, &markets)
	if err != nil {
		return nil, fmt.Errorf("fetch markets: %w", err)
	}

	c.logger.Debug("fetched-markets",
		zap.Int("count", len(markets)))

	return markets, nil
}

// FetchMarketDetails fetches a single market by id.
func (c *Client) FetchMarketDetails(ctx context.Context, marketID string) (*Market, error) {
	var market Market
	err := c.get(ctx, "market-details", "/markets/"+url.PathEscape(marketID), nil, &market)
	if err != nil {
		return nil, fmt.Errorf("fetch market %s: %w", marketID, err)
	}

	return &market, nil
}

// FetchMarketHistory fetches the price history of a market over timeframe.
func (c *Client) FetchMarketHistory(ctx context.Context, marketID string, timeframe string) ([]HistoryPoint, error) {
	params := url.Values{}
	params.Set("timeframe", timeframe)

	var points []HistoryPoint
	err := c.get(ctx, "market-history", "/markets/"+url.PathEscape(marketID)+"/history", params, &points)
	if err != nil {
		return nil, fmt.Errorf("fetch history for market %s: %w", marketID, err)
	}

	return points, nil
}

// get issues a GET through the circuit breaker and decodes a JSON body
// into out. Non-2xx responses become *types.UpstreamError with the status
// code; transport failures become UpstreamError with status 0.
func (c *Client) get(ctx context.Context, endpoint string, path string, params url.Values, out interface{}) error {
	call := func() error {
		return c.do(ctx, endpoint, path, params, out)
	}

	if c.breaker == nil {
		return call()
	}
	return c.breaker.Execute(call)
}

func (c *Client) do(ctx context.Context, endpoint string, path string, params url.Values, out interface{}) error {
	start := time.Now()
	status := "error"
	defer func() {
		RequestDurationSeconds.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(endpoint, status).Inc()
	}()

	requestURL := c.baseURL + path
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "polymarket-paper/1.0")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.Debug("upstream-request",
		zap.String("endpoint", endpoint),
		zap.String("url", requestURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return &types.UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	status = strconv.Itoa(resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("upstream-error-status",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		upstream := &types.UpstreamError{Status: resp.StatusCode}
		if msg := strings.TrimSpace(string(body)); msg != "" {
			upstream.Err = errors.New(msg)
		}
		return upstream
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &types.UpstreamError{Status: resp.StatusCode, Err: fmt.Errorf("read response body: %w", err)}
	}

	err = json.Unmarshal(body, out)
	if err != nil {
		return &types.UpstreamError{Status: resp.StatusCode, Err: fmt.Errorf("unmarshal response: %w", err)}
	}

	return nil
}
