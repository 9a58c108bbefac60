package news

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

// RateLimitResource is the limiter key for news API calls.
const RateLimitResource = "newsapi"

// defaultQuery is searched when all categories are requested.
const defaultQuery = "prediction markets"

// maxItems caps the number of articles returned per call.
const maxItems = 10

// maxErrorBody caps how much of a non-2xx body is kept in the error.
const maxErrorBody = 512

// Limiter admits or rejects a call against a named resource.
type Limiter interface {
	CheckLimit(resource string, maxCalls int, window time.Duration) error
}

// Live queries a NewsAPI-compatible /everything endpoint.
type Live struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker
	limiter    Limiter
	maxCalls   int
	window     time.Duration
	logger     *zap.Logger
}

// LiveConfig holds live news source configuration. Breaker may be nil.
type LiveConfig struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	Breaker  *circuitbreaker.Breaker
	Limiter  Limiter
	MaxCalls int
	Window   time.Duration
	Logger   *zap.Logger
}

// NewLive creates a live news source.
func NewLive(cfg *LiveConfig) *Live {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Live{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    cfg.Breaker,
		limiter:    cfg.Limiter,
		maxCalls:   cfg.MaxCalls,
		window:     cfg.Window,
		logger:     cfg.Logger,
	}
}

type articlesResponse struct {
	Articles []article `json:"articles"`
}

type article struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PublishedAt time.Time `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

func (l *Live) MarketNews(ctx context.Context, category string) ([]types.NewsItem, error) {
	if category == "" {
		category = AllCategories
	}

	err := l.limiter.CheckLimit(RateLimitResource, l.maxCalls, l.window)
	if err != nil {
		return nil, err
	}

	query := category
	if category == AllCategories {
		query = defaultQuery
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("sortBy", "publishedAt")
	params.Set("apiKey", l.apiKey)

	var parsed articlesResponse
	err = l.get(ctx, "everything", "/everything", params, &parsed)
	if err != nil {
		return nil, fmt.Errorf("fetch news: %w", err)
	}

	articles := parsed.Articles
	if len(articles) > maxItems {
		articles = articles[:maxItems]
	}

	items := make([]types.NewsItem, len(articles))
	for i, a := range articles {
		items[i] = types.NewsItem{
			ID:        a.URL,
			Headline:  a.Title,
			Summary:   a.Description,
			Source:    a.Source.Name,
			Category:  category,
			Timestamp: a.PublishedAt,
		}
	}

	l.logger.Debug("fetched-news",
		zap.String("category", category),
		zap.Int("count", len(items)))

	return items, nil
}

// get issues a GET through the circuit breaker, when one is set, and
// decodes the JSON body into out.
func (l *Live) get(ctx context.Context, endpoint string, path string, params url.Values, out interface{}) error {
	call := func() error {
		return l.do(ctx, endpoint, path, params, out)
	}

	if l.breaker == nil {
		return call()
	}
	return l.breaker.Execute(call)
}

func (l *Live) do(ctx context.Context, endpoint string, path string, params url.Values, out interface{}) error {
	start := time.Now()
	status := "error"
	defer func() {
		RequestDurationSeconds.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(endpoint, status).Inc()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "polymarket-paper/1.0")

	resp, err := l.httpClient.Do(req)
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
		l.logger.Warn("news-api-error-status",
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
