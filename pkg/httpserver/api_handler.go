package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-paper/internal/markets"
	"github.com/mselser95/polymarket-paper/internal/news"
	"github.com/mselser95/polymarket-paper/internal/portfolio"
	"github.com/mselser95/polymarket-paper/internal/subscription"
	"github.com/mselser95/polymarket-paper/pkg/config"
	"github.com/mselser95/polymarket-paper/pkg/types"
)

const (
	defaultMovingAveragePeriod = 7
	maxBodyBytes               = 1 << 20
)

// APIHandler serves the market and portfolio JSON endpoints.
type APIHandler struct {
	appConfig  *config.Config
	provider   markets.Provider
	dispatcher subscription.Dispatcher
	news       news.Source
	logger     *zap.Logger
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(cfg *Config) *APIHandler {
	return &APIHandler{
		appConfig:  cfg.AppConfig,
		provider:   cfg.Provider,
		dispatcher: cfg.Dispatcher,
		news:       cfg.News,
		logger:     cfg.Logger,
	}
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatsResponse is the body of GET /api/markets/{id}/stats.
type StatsResponse struct {
	MarketID      string            `json:"marketId"`
	Timeframe     string            `json:"timeframe"`
	Stats         types.MarketStats `json:"stats"`
	MovingAverage []*float64        `json:"movingAverage"`
}

// PortfolioMetricsRequest carries a caller-held portfolio. When Markets is
// omitted the current snapshot from the provider is used.
type PortfolioMetricsRequest struct {
	Portfolio types.Portfolio `json:"portfolio"`
	Markets   []types.Market  `json:"markets,omitempty"`
}

// PnLRequest values one position. CurrentPrice is a [0,1] YES price; when
// omitted the market's current odds are used.
type PnLRequest struct {
	Position     types.Position `json:"position"`
	CurrentPrice *float64       `json:"currentPrice,omitempty"`
}

// TradePreviewRequest checks a prospective trade without booking it.
type TradePreviewRequest struct {
	MarketID string     `json:"marketId"`
	Side     types.Side `json:"side"`
	Amount   float64    `json:"amount"`
	Balance  float64    `json:"balance"`
}

// TradePreviewResponse reports the entry price and potential payout.
type TradePreviewResponse struct {
	MarketID           string     `json:"marketId"`
	Side               types.Side `json:"side"`
	Amount             float64    `json:"amount"`
	EntryPrice         float64    `json:"entryPrice"`
	ImpliedProbability float64    `json:"impliedProbability"`
	Shares             float64    `json:"shares"`
	PotentialPayout    float64    `json:"potentialPayout"`
}

// HandleMarkets handles GET /api/markets.
func (h *APIHandler) HandleMarkets(w http.ResponseWriter, r *http.Request) {
	list, err := h.provider.GetMarkets(r.Context())
	if err != nil {
		h.writeProviderError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

// HandleMarket handles GET /api/markets/{id}.
func (h *APIHandler) HandleMarket(w http.ResponseWriter, r *http.Request) {
	market, err := h.provider.GetMarketDetails(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeProviderError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, market)
}

// HandleHistory handles GET /api/markets/{id}/history?timeframe=.
func (h *APIHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.provider.GetMarketHistory(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("timeframe"))
	if err != nil {
		h.writeProviderError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, history)
}

// HandleStats handles GET /api/markets/{id}/stats?timeframe=&period=.
func (h *APIHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "id")
	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = types.DefaultTimeframe
	}

	period := defaultMovingAveragePeriod
	if raw := r.URL.Query().Get("period"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 {
			h.writeError(w, "period must be a positive integer", http.StatusBadRequest)
			return
		}
		period = p
	}

	history, err := h.provider.GetMarketHistory(r.Context(), marketID, timeframe)
	if err != nil {
		h.writeProviderError(w, r, err)
		return
	}

	points := portfolio.HistoryToPricePoints(history)
	series := make([]float64, len(history))
	for i, p := range history {
		series[i] = p.Odds
	}

	h.writeJSON(w, http.StatusOK, StatsResponse{
		MarketID:      marketID,
		Timeframe:     timeframe,
		Stats:         portfolio.CalculateMarketStats(points),
		MovingAverage: portfolio.CalculateMovingAverage(series, period),
	})
}

// HandlePortfolioMetrics handles POST /api/portfolio/metrics.
func (h *APIHandler) HandlePortfolioMetrics(w http.ResponseWriter, r *http.Request) {
	var req PortfolioMetricsRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	snapshot := req.Markets
	if snapshot == nil {
		var err error
		snapshot, err = h.provider.GetMarkets(r.Context())
		if err != nil {
			h.writeProviderError(w, r, err)
			return
		}
	}

	h.writeJSON(w, http.StatusOK, portfolio.CalculatePortfolioMetrics(req.Portfolio, snapshot))
}

// HandlePnL handles POST /api/pnl.
func (h *APIHandler) HandlePnL(w http.ResponseWriter, r *http.Request) {
	var req PnLRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if req.Position.Amount <= 0 {
		h.writeError(w, "position amount must be greater than 0", http.StatusBadRequest)
		return
	}

	var price float64
	if req.CurrentPrice != nil {
		price = *req.CurrentPrice
	} else {
		market, err := h.provider.GetMarketDetails(r.Context(), req.Position.MarketID)
		if err != nil {
			h.writeProviderError(w, r, err)
			return
		}
		price = market.Odds / 100
	}

	if price < 0 || price > 1 {
		h.writeError(w, "currentPrice must be in [0,1]", http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, portfolio.CalculatePnL(req.Position, price))
}

// HandleTradePreview handles POST /api/trades/preview.
func (h *APIHandler) HandleTradePreview(w http.ResponseWriter, r *http.Request) {
	var req TradePreviewRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if !req.Side.Valid() {
		h.writeError(w, "side must be YES or NO", http.StatusBadRequest)
		return
	}

	maxPosition := portfolio.DefaultMaxPositionSize
	if h.appConfig != nil {
		maxPosition = h.appConfig.MaxPositionSize
	}

	err := portfolio.ValidateTradeAmount(req.Amount, req.Balance, maxPosition)
	if err != nil {
		h.writeProviderError(w, r, err)
		return
	}

	market, err := h.provider.GetMarketDetails(r.Context(), req.MarketID)
	if err != nil {
		h.writeProviderError(w, r, err)
		return
	}

	yesPrice := market.Odds / 100
	payout, err := portfolio.CalculatePotentialPayout(req.Amount, yesPrice, req.Side)
	if err != nil {
		h.writeProviderError(w, r, err)
		return
	}

	entry := portfolio.SidePrice(req.Side, yesPrice)
	h.writeJSON(w, http.StatusOK, TradePreviewResponse{
		MarketID:           market.ID,
		Side:               req.Side,
		Amount:             req.Amount,
		EntryPrice:         entry,
		ImpliedProbability: portfolio.ImpliedProbability(entry),
		Shares:             payout,
		PotentialPayout:    payout,
	})
}

// HandleConfig handles GET /api/config.
func (h *APIHandler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	if h.appConfig == nil {
		h.writeJSON(w, http.StatusOK, config.APIStatus{Mode: h.provider.Mode()})
		return
	}
	h.writeJSON(w, http.StatusOK, h.appConfig.Status())
}

// HandleNews handles GET /api/news?category=.
func (h *APIHandler) HandleNews(w http.ResponseWriter, r *http.Request) {
	items, err := h.news.MarketNews(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.writeProviderError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, items)
}

func (h *APIHandler) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(v)
	if err != nil {
		h.writeError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, types.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *APIHandler) writeProviderError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	RequestErrorsTotal.WithLabelValues(strconv.Itoa(status)).Inc()

	if status >= http.StatusInternalServerError {
		h.logger.Error("request-failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	} else {
		h.logger.Debug("request-rejected",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}

	h.writeError(w, err.Error(), status)
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		h.logger.Error("response-encode-failed", zap.Error(err))
	}
}

func (h *APIHandler) writeError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, ErrorResponse{Error: message})
}
