package testutil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/mselser95/polymarket-paper/internal/gamma"
	"github.com/mselser95/polymarket-paper/pkg/types"
)

// MockGammaAPI is a mock HTTP server for the market API.
type MockGammaAPI struct {
	*httptest.Server
	Markets []gamma.Market
	History map[string][]gamma.HistoryPoint

	mu         sync.RWMutex
	failStatus int
	requests   int
}

// NewMockGammaAPI creates a new mock market API server.
func NewMockGammaAPI(markets []gamma.Market) *MockGammaAPI {
	mock := &MockGammaAPI{
		Markets: markets,
		History: make(map[string][]gamma.HistoryPoint),
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requests++
		failStatus := mock.failStatus
		mock.mu.Unlock()

		if failStatus != 0 {
			http.Error(w, http.StatusText(failStatus), failStatus)
			return
		}

		mock.mu.RLock()
		defer mock.mu.RUnlock()

		if r.URL.Path == "/markets" {
			writeJSON(w, mock.Markets)
			return
		}

		rest, ok := strings.CutPrefix(r.URL.Path, "/markets/")
		if !ok {
			http.NotFound(w, r)
			return
		}

		if id, ok := strings.CutSuffix(rest, "/history"); ok {
			history, found := mock.History[id]
			if !found {
				http.NotFound(w, r)
				return
			}
			writeJSON(w, history)
			return
		}

		for i := range mock.Markets {
			if string(mock.Markets[i].ID) == rest {
				writeJSON(w, mock.Markets[i])
				return
			}
		}
		http.NotFound(w, r)
	})

	mock.Server = httptest.NewServer(handler)
	return mock
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// AddMarket adds a market to the mock API.
func (m *MockGammaAPI) AddMarket(market gamma.Market) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Markets = append(m.Markets, market)
}

// SetHistory sets the history served for a market.
func (m *MockGammaAPI) SetHistory(marketID string, points []gamma.HistoryPoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.History[marketID] = points
}

// FailWith makes every request return status. Zero restores normal
// responses.
func (m *MockGammaAPI) FailWith(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failStatus = status
}

// Requests returns the number of requests served.
func (m *MockGammaAPI) Requests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requests
}

// MockStorage is an in-memory update store for testing.
type MockStorage struct {
	Updates []*types.MarketUpdate
	Err     error
	mu      sync.Mutex
}

// NewMockStorage creates a new mock storage.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		Updates: make([]*types.MarketUpdate, 0),
	}
}

// StoreUpdate stores a copy of update in memory.
func (m *MockStorage) StoreUpdate(ctx context.Context, update *types.MarketUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	updateCopy := *update
	m.Updates = append(m.Updates, &updateCopy)
	return nil
}

// Close is a no-op for mock storage.
func (m *MockStorage) Close() error {
	return nil
}

// GetUpdates returns all stored updates.
func (m *MockStorage) GetUpdates() []*types.MarketUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*types.MarketUpdate, len(m.Updates))
	copy(result, m.Updates)
	return result
}

// ErrMockStreamClosed is returned by MockStream.Send after Close.
var ErrMockStreamClosed = errors.New("mock stream closed")

// MockStream is an in-memory market stream. Tests push inbound messages
// and inspect the control requests that were sent.
type MockStream struct {
	SendErr error

	mu       sync.Mutex
	messages chan types.StreamMessage
	requests []types.StreamRequest
	closed   bool
}

// NewMockStream creates a mock stream with the given inbound buffer.
func NewMockStream(bufferSize int) *MockStream {
	return &MockStream{
		messages: make(chan types.StreamMessage, bufferSize),
	}
}

// Send records req.
func (m *MockStream) Send(ctx context.Context, req types.StreamRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrMockStreamClosed
	}
	if m.SendErr != nil {
		return m.SendErr
	}
	m.requests = append(m.requests, req)
	return nil
}

// Messages returns the inbound channel.
func (m *MockStream) Messages() <-chan types.StreamMessage {
	return m.messages
}

// Push delivers a raw payload for marketID. It is a no-op once closed.
func (m *MockStream) Push(marketID string, payload string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.messages <- types.StreamMessage{MarketID: marketID, Payload: json.RawMessage(payload)}
}

// Close closes the inbound channel. Safe to call more than once.
func (m *MockStream) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.messages)
	}
	return nil
}

// Closed reports whether Close was called.
func (m *MockStream) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Requests returns the control requests sent so far.
func (m *MockStream) Requests() []types.StreamRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]types.StreamRequest, len(m.requests))
	copy(result, m.requests)
	return result
}

// MockStreamOpener hands out a fresh MockStream per Open call.
type MockStreamOpener struct {
	OpenErr error

	mu      sync.Mutex
	streams []*MockStream
}

// Open returns a new MockStream, or OpenErr.
func (o *MockStreamOpener) Open(ctx context.Context) (*MockStream, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.OpenErr != nil {
		return nil, o.OpenErr
	}
	s := NewMockStream(64)
	o.streams = append(o.streams, s)
	return s, nil
}

// Opens returns the number of successful Open calls.
func (o *MockStreamOpener) Opens() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.streams)
}

// Last returns the most recently opened stream, or nil.
func (o *MockStreamOpener) Last() *MockStream {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(o.streams) == 0 {
		return nil
	}
	return o.streams[len(o.streams)-1]
}
