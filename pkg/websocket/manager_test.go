package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-paper/pkg/types"
)

type streamServer struct {
	server   *httptest.Server
	requests chan types.StreamRequest
	conns    atomic.Int32
	// onConnect runs after each accepted connection; the handler keeps
	// reading until it returns false or the client disconnects.
	onConnect func(n int32, conn *websocket.Conn)
	dropFirst bool
}

func newStreamServer(t *testing.T, s *streamServer) *streamServer {
	t.Helper()
	s.requests = make(chan types.StreamRequest, 16)
	upgrader := websocket.Upgrader{}

	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		n := s.conns.Add(1)
		if s.onConnect != nil {
			s.onConnect(n, conn)
		}

		for {
			var req types.StreamRequest
			err := conn.ReadJSON(&req)
			if err != nil {
				return
			}
			s.requests <- req
			if s.dropFirst && n == 1 {
				return
			}
		}
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *streamServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.server.URL, "http")
}

func newTestManager(t *testing.T, url string) *Manager {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	return New(Config{
		URL:                   url,
		DialTimeout:           2 * time.Second,
		PingInterval:          time.Second,
		ReconnectInitialDelay: 10 * time.Millisecond,
		ReconnectMaxDelay:     50 * time.Millisecond,
		ReconnectBackoffMult:  2,
		MessageBufferSize:     16,
		Logger:                logger,
	})
}

func waitRequest(t *testing.T, ch <-chan types.StreamRequest) types.StreamRequest {
	t.Helper()
	select {
	case req := <-ch:
		return req
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for stream request")
		return types.StreamRequest{}
	}
}

func waitMessage(t *testing.T, ch <-chan types.StreamMessage) types.StreamMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for stream message")
		return types.StreamMessage{}
	}
}

func TestManager_SendAndRoute(t *testing.T) {
	srv := newStreamServer(t, &streamServer{
		onConnect: func(_ int32, conn *websocket.Conn) {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ack"}`))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`[]`))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"marketId":"m1","odds":55}`))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`[{"marketId":"m2","odds":10},{"marketId":"m1","odds":56}]`))
		},
	})

	mgr := newTestManager(t, srv.wsURL())
	if err := mgr.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer mgr.Close()

	err := mgr.Send(context.Background(), types.StreamRequest{Type: types.StreamSubscribe, MarketID: "m1"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	req := waitRequest(t, srv.requests)
	if req.Type != types.StreamSubscribe || req.MarketID != "m1" {
		t.Errorf("unexpected request %+v", req)
	}
	if !mgr.Subscribed("m1") {
		t.Error("expected m1 to be tracked as subscribed")
	}

	want := []string{"m1", "m2", "m1"}
	for i, id := range want {
		msg := waitMessage(t, mgr.Messages())
		if msg.MarketID != id {
			t.Fatalf("message %d: expected market %s, got %s", i, id, msg.MarketID)
		}
		var body struct {
			Odds float64 `json:"odds"`
		}
		if err := json.Unmarshal(msg.Payload, &body); err != nil {
			t.Fatalf("payload not valid JSON: %v", err)
		}
	}

	err = mgr.Send(context.Background(), types.StreamRequest{Type: types.StreamUnsubscribe, MarketID: "m1"})
	if err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	waitRequest(t, srv.requests)
	if mgr.Subscribed("m1") {
		t.Error("expected m1 to be removed after unsubscribe")
	}
}

func TestManager_CloseClosesMessages(t *testing.T) {
	srv := newStreamServer(t, &streamServer{})

	mgr := newTestManager(t, srv.wsURL())
	if err := mgr.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := mgr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	_ = mgr.Close()

	select {
	case _, ok := <-mgr.Messages():
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("messages channel not closed")
	}

	err := mgr.Send(context.Background(), types.StreamRequest{Type: types.StreamSubscribe, MarketID: "x"})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestManager_SendBeforeStart(t *testing.T) {
	mgr := newTestManager(t, "ws://127.0.0.1:1")
	err := mgr.Send(context.Background(), types.StreamRequest{Type: types.StreamSubscribe, MarketID: "x"})
	if err == nil {
		t.Error("expected error when not connected")
	}
	if mgr.Subscribed("x") {
		t.Error("failed send must not be tracked")
	}
}

func TestManager_StartFailsWithoutServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	mgr := newTestManager(t, url)
	if err := mgr.Start(); err == nil {
		t.Error("expected start to fail")
	}
	_ = mgr.Close()
}

func TestManager_ResubscribesAfterReconnect(t *testing.T) {
	srv := newStreamServer(t, &streamServer{dropFirst: true})

	mgr := newTestManager(t, srv.wsURL())
	if err := mgr.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer mgr.Close()

	err := mgr.Send(context.Background(), types.StreamRequest{Type: types.StreamSubscribe, MarketID: "m7"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	waitRequest(t, srv.requests)

	// The server drops the first connection after one request; the
	// manager must reconnect and restore the subscription by itself.
	req := waitRequest(t, srv.requests)
	if req.Type != types.StreamSubscribe || req.MarketID != "m7" {
		t.Errorf("expected resubscribe for m7, got %+v", req)
	}
	if got := srv.conns.Load(); got < 2 {
		t.Errorf("expected a second connection, got %d", got)
	}
}
