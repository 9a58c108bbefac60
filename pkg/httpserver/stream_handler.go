package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-paper/pkg/types"
)

const (
	streamClientBuffer = 16
	streamWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleMarketStream handles GET /api/markets/{id}/ws. It upgrades the
// connection and forwards every update for the market as a JSON text
// frame until the client disconnects.
func (h *APIHandler) HandleMarketStream(w http.ResponseWriter, r *http.Request) {
	marketID := chi.URLParam(r, "id")

	if h.dispatcher == nil {
		h.writeError(w, "streaming is not available", http.StatusServiceUnavailable)
		return
	}

	_, err := h.provider.GetMarketDetails(r.Context(), marketID)
	if err != nil {
		h.writeProviderError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("stream-upgrade-failed", zap.Error(err))
		return
	}
	defer conn.Close()

	updates := make(chan types.MarketUpdate, streamClientBuffer)
	sub, err := h.dispatcher.Subscribe(marketID, func(u types.MarketUpdate) {
		select {
		case updates <- u:
		default:
			StreamUpdatesDroppedTotal.Inc()
		}
	})
	if err != nil {
		h.logger.Error("stream-subscribe-failed",
			zap.String("market-id", marketID),
			zap.Error(err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"),
			time.Now().Add(time.Second))
		return
	}
	defer sub.Cancel()

	StreamClientsActive.Inc()
	defer StreamClientsActive.Dec()

	h.logger.Info("stream-client-connected",
		zap.String("market-id", marketID),
		zap.String("subscription-id", sub.ID.String()))

	// Reads only detect the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			h.logger.Info("stream-client-disconnected",
				zap.String("market-id", marketID),
				zap.String("subscription-id", sub.ID.String()))
			return
		case <-r.Context().Done():
			return
		case u := <-updates:
			payload, err := json.Marshal(u)
			if err != nil {
				h.logger.Error("stream-encode-failed", zap.Error(err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			err = conn.WriteMessage(websocket.TextMessage, payload)
			if err != nil {
				h.logger.Debug("stream-write-failed",
					zap.String("market-id", marketID),
					zap.Error(err))
				return
			}
		}
	}
}
