// Package websocket maintains the live market stream: a single gorilla
// websocket connection with reconnect, keepalive and resubscription.
package websocket

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-paper/pkg/types"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("stream closed")

// Manager manages a single WebSocket connection to the market stream.
type Manager struct {
	url             string
	conn            *websocket.Conn
	logger          *zap.Logger
	reconnectMgr    *ReconnectManager
	config          Config
	messageChan     chan types.StreamMessage
	disconnected    chan struct{}
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	mu              sync.RWMutex
	writeMu         sync.Mutex
	subscribed      map[string]bool // market IDs to restore after reconnect
	connected       atomic.Bool
	closed          atomic.Bool
	closeOnce       sync.Once
	connectionStart atomic.Int64
}

// Config holds WebSocket manager configuration.
type Config struct {
	URL                   string
	DialTimeout           time.Duration
	PingInterval          time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
	MessageBufferSize     int
	Logger                *zap.Logger
}

// New creates a new WebSocket manager. Nothing is dialed until Start.
func New(cfg Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	if cfg.MessageBufferSize <= 0 {
		cfg.MessageBufferSize = 1000
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 10 * time.Second
	}

	reconnectCfg := ReconnectConfig{
		InitialDelay:      cfg.ReconnectInitialDelay,
		MaxDelay:          cfg.ReconnectMaxDelay,
		BackoffMultiplier: cfg.ReconnectBackoffMult,
		JitterPercent:     0.2,
	}

	return &Manager{
		url:          cfg.URL,
		logger:       cfg.Logger,
		reconnectMgr: NewReconnectManager(reconnectCfg, cfg.Logger),
		config:       cfg,
		messageChan:  make(chan types.StreamMessage, cfg.MessageBufferSize),
		disconnected: make(chan struct{}, 1),
		ctx:          ctx,
		cancel:       cancel,
		subscribed:   make(map[string]bool),
	}
}

// Start dials the stream and starts the read, ping and reconnect loops.
func (m *Manager) Start() error {
	m.logger.Info("websocket-manager-starting", zap.String("url", m.url))

	err := m.connect(m.ctx)
	if err != nil {
		return fmt.Errorf("initial connection: %w", err)
	}

	m.wg.Add(3)
	go m.readLoop()
	go m.pingLoop()
	go m.reconnectLoop()

	return nil
}

func (m *Manager) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: m.config.DialTimeout,
	}

	m.logger.Info("connecting-to-websocket", zap.String("url", m.url))

	conn, _, err := dialer.DialContext(ctx, m.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	m.mu.Lock()
	if m.closed.Load() {
		m.mu.Unlock()
		_ = conn.Close()
		return ErrClosed
	}
	m.conn = conn
	m.mu.Unlock()

	m.connected.Store(true)
	m.connectionStart.Store(time.Now().Unix())
	ActiveConnections.Set(1)

	m.logger.Info("websocket-connected")

	return nil
}

// Send writes a control request. Subscribe and unsubscribe requests also
// update the set of markets restored after a reconnect. If the write
// fails the tracked set is left unchanged.
func (m *Manager) Send(ctx context.Context, req types.StreamRequest) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := m.writeJSON(req)
	if err != nil {
		return fmt.Errorf("write %s message: %w", req.Type, err)
	}

	m.mu.Lock()
	switch req.Type {
	case types.StreamSubscribe:
		m.subscribed[req.MarketID] = true
	case types.StreamUnsubscribe:
		delete(m.subscribed, req.MarketID)
		UnsubscriptionsTotal.Inc()
	}
	total := len(m.subscribed)
	m.mu.Unlock()

	SubscriptionCount.Set(float64(total))

	m.logger.Debug("stream-request-sent",
		zap.String("type", req.Type),
		zap.String("market-id", req.MarketID),
		zap.Int("subscribed-count", total))

	return nil
}

func (m *Manager) writeJSON(v interface{}) error {
	m.mu.RLock()
	conn := m.conn
	m.mu.RUnlock()

	if conn == nil || !m.connected.Load() {
		return fmt.Errorf("not connected")
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return conn.WriteJSON(v)
}

// streamEnvelope picks the routing key out of an inbound message.
type streamEnvelope struct {
	MarketID string `json:"marketId"`
}

func (m *Manager) readLoop() {
	defer m.wg.Done()

	m.mu.RLock()
	conn := m.conn
	m.mu.RUnlock()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if m.ctx.Err() == nil {
				m.logger.Warn("read-error", zap.Error(err))
			}

			startTime := m.connectionStart.Load()
			if startTime > 0 {
				ConnectionDuration.Observe(time.Since(time.Unix(startTime, 0)).Seconds())
			}

			m.connected.Store(false)
			ActiveConnections.Set(0)

			select {
			case m.disconnected <- struct{}{}:
			default:
			}
			return
		}

		m.handleMessage(message)
	}
}

// handleMessage splits a frame (a single object or an array of objects)
// into per-market messages. Frames without a marketId are treated as
// control or heartbeat traffic.
func (m *Manager) handleMessage(message []byte) {
	trimmed := bytes.TrimSpace(message)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("[]")) {
		m.logger.Debug("websocket-heartbeat-received", zap.Int("bytes", len(message)))
		return
	}

	var frames []json.RawMessage
	if trimmed[0] == '[' {
		err := json.Unmarshal(trimmed, &frames)
		if err != nil {
			m.dropMalformed(message, err)
			return
		}
	} else {
		frames = []json.RawMessage{json.RawMessage(trimmed)}
	}

	for _, frame := range frames {
		var env streamEnvelope
		err := json.Unmarshal(frame, &env)
		if err != nil {
			m.dropMalformed(frame, err)
			continue
		}
		if env.MarketID == "" {
			MessagesReceivedTotal.WithLabelValues("control").Inc()
			m.logger.Debug("websocket-control-message", zap.Int("bytes", len(frame)))
			continue
		}

		MessagesReceivedTotal.WithLabelValues("market").Inc()

		msg := types.StreamMessage{
			MarketID: env.MarketID,
			Payload:  append(json.RawMessage(nil), frame...),
		}

		select {
		case m.messageChan <- msg:
		default:
			m.logger.Warn("message-channel-full", zap.String("market-id", env.MarketID))
			MessagesDroppedTotal.WithLabelValues("channel_full").Inc()
		}
	}
}

func (m *Manager) dropMalformed(message []byte, err error) {
	preview := string(message)
	if len(preview) > 100 {
		preview = preview[:100]
	}
	MessagesDroppedTotal.WithLabelValues("malformed").Inc()
	m.logger.Debug("websocket-unparseable-message",
		zap.Error(err),
		zap.Int("bytes", len(message)),
		zap.String("preview", preview))
}

func (m *Manager) pingLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if !m.connected.Load() {
				continue
			}

			m.mu.RLock()
			conn := m.conn
			m.mu.RUnlock()

			err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second))
			if err != nil {
				m.logger.Warn("ping-error", zap.Error(err))
			}
		}
	}
}

func (m *Manager) reconnectLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.disconnected:
		}

		m.logger.Warn("connection-lost-initiating-reconnect")

		err := m.reconnectMgr.Reconnect(m.ctx, m.connect)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.logger.Error("reconnection-failed", zap.Error(err))
			continue
		}

		err = m.resubscribeAll()
		if err != nil {
			m.logger.Error("resubscribe-failed", zap.Error(err))
		}

		m.logger.Info("reconnection-complete-restarting-read-loop")

		m.wg.Add(1)
		go m.readLoop()
	}
}

func (m *Manager) resubscribeAll() error {
	m.mu.RLock()
	marketIDs := make([]string, 0, len(m.subscribed))
	for id := range m.subscribed {
		marketIDs = append(marketIDs, id)
	}
	m.mu.RUnlock()

	for _, id := range marketIDs {
		err := m.writeJSON(types.StreamRequest{Type: types.StreamSubscribe, MarketID: id})
		if err != nil {
			return fmt.Errorf("resubscribe market %s: %w", id, err)
		}
	}

	m.logger.Info("resubscribed-to-all-markets", zap.Int("count", len(marketIDs)))

	return nil
}

// Messages returns the inbound message channel. It is closed by Close.
func (m *Manager) Messages() <-chan types.StreamMessage {
	return m.messageChan
}

// Subscribed reports whether marketID is in the resubscribe set.
func (m *Manager) Subscribed(marketID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.subscribed[marketID]
}

// Close shuts the connection and waits for all loops to exit. Safe to
// call more than once.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		m.logger.Info("closing-websocket-manager")

		m.closed.Store(true)
		m.cancel()

		m.mu.Lock()
		if m.conn != nil {
			_ = m.conn.Close()
		}
		m.mu.Unlock()

		m.wg.Wait()

		close(m.messageChan)
		ActiveConnections.Set(0)

		m.logger.Info("websocket-manager-closed")
	})

	return nil
}
