package types

import (
	"time"

	json "github.com/goccy/go-json"
)

// StreamMessage is an inbound message from the market stream, keyed by
// the market it refers to. Payload is the raw message body.
type StreamMessage struct {
	MarketID string
	Payload  json.RawMessage
}

// StreamRequest is an outbound subscribe/unsubscribe control message.
type StreamRequest struct {
	Type     string `json:"type"`
	MarketID string `json:"marketId"`
}

const (
	StreamSubscribe   = "subscribe"
	StreamUnsubscribe = "unsubscribe"
)

// NewsItem is a market-related headline.
type NewsItem struct {
	ID        string    `json:"id"`
	Headline  string    `json:"headline"`
	Summary   string    `json:"summary"`
	Source    string    `json:"source"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
}
