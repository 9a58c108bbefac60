package gamma

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// Market is a market as returned by the upstream API. Only the fields the
// provider maps are decoded.
type Market struct {
	ID            FlexString `json:"id"`
	Question      string     `json:"question"`
	Category      string     `json:"category"`
	OutcomePrices PriceList  `json:"outcomePrices"`
	Change24h     FlexFloat  `json:"change24h"`
	Volume        FlexFloat  `json:"volume"`
	EndDate       string     `json:"endDate"`
	Description   string     `json:"description"`
}

// HistoryPoint is one upstream price sample. Price is a probability.
type HistoryPoint struct {
	Timestamp Timestamp `json:"timestamp"`
	Price     FlexFloat `json:"price"`
}

// FlexString decodes a JSON string or number into a string.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		err := json.Unmarshal(data, &str)
		if err != nil {
			return fmt.Errorf("decode string: %w", err)
		}
		*s = FlexString(str)
		return nil
	}
	*s = FlexString(data)
	return nil
}

// FlexFloat decodes a JSON number or numeric string. Null and empty
// strings decode to 0.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		err := json.Unmarshal(data, &raw)
		if err != nil {
			return fmt.Errorf("decode numeric string: %w", err)
		}
		if raw == "" {
			*f = 0
			return nil
		}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("parse float %q: %w", raw, err)
	}
	*f = FlexFloat(v)
	return nil
}

// PriceList decodes outcome prices given either as a JSON array (of
// numbers or numeric strings) or as a string holding such an array.
type PriceList []float64

func (p *PriceList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*p = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var inner string
		err := json.Unmarshal(data, &inner)
		if err != nil {
			return fmt.Errorf("decode price list string: %w", err)
		}
		if inner == "" {
			*p = nil
			return nil
		}
		data = []byte(inner)
	}

	var values []FlexFloat
	err := json.Unmarshal(data, &values)
	if err != nil {
		return fmt.Errorf("decode price list: %w", err)
	}
	out := make(PriceList, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	*p = out
	return nil
}

// Timestamp decodes an RFC 3339 string or Unix milliseconds.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		err := json.Unmarshal(data, &s)
		if err != nil {
			return fmt.Errorf("decode timestamp: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("parse timestamp %q: %w", s, err)
		}
		t.Time = parsed
		return nil
	}
	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("parse unix millis %q: %w", data, err)
	}
	t.Time = time.UnixMilli(ms).UTC()
	return nil
}
