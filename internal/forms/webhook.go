package forms

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"signalpanel/internal/ports"
)

// Leverage bounds enforced before send, matching the exchange's
// accepted range.
const (
	MinLeverage = 1
	MaxLeverage = 125
)

// SignalForm is the typed webhook test console state. Zero-valued
// optional fields are omitted from the payload.
type SignalForm struct {
	Mode          string  `json:"mode"`
	Side          string  `json:"side"`
	Symbol        string  `json:"symbol"`
	PositionSize  float64 `json:"position_size"`
	OrderType     string  `json:"order_type"`
	Exchange      string  `json:"exchange"`
	FundManagerID string  `json:"fund_manager_id"`
	Timestamp     string  `json:"timestamp,omitempty"`
	Leverage      int     `json:"leverage,omitempty"`
	EntryPrice    float64 `json:"entry_price,omitempty"`
	ExitPrice     float64 `json:"exit_price,omitempty"`
}

// Validate lists every missing required field at once, so the console
// shows the full set instead of one error per attempt.
func (f SignalForm) Validate() []string {
	var missing []string
	req := []struct {
		name  string
		empty bool
	}{
		{"mode", strings.TrimSpace(f.Mode) == ""},
		{"side", strings.TrimSpace(f.Side) == ""},
		{"symbol", strings.TrimSpace(f.Symbol) == ""},
		{"position_size", f.PositionSize <= 0},
		{"order_type", strings.TrimSpace(f.OrderType) == ""},
		{"exchange", strings.TrimSpace(f.Exchange) == ""},
		{"fund_manager_id", strings.TrimSpace(f.FundManagerID) == ""},
	}
	for _, r := range req {
		if r.empty {
			missing = append(missing, r.name)
		}
	}
	return missing
}

// BuildPayload validates, defaults the timestamp to now and clamps
// leverage into range, then serializes the payload.
func (f SignalForm) BuildPayload(now time.Time) (json.RawMessage, error) {
	if missing := f.Validate(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required fields: %s",
			ports.ErrInvalidRequest, strings.Join(missing, ", "))
	}
	if f.Timestamp == "" {
		f.Timestamp = now.UTC().Format(time.RFC3339)
	}
	if f.Leverage != 0 {
		if f.Leverage < MinLeverage {
			f.Leverage = MinLeverage
		}
		if f.Leverage > MaxLeverage {
			f.Leverage = MaxLeverage
		}
	}
	return json.Marshal(f)
}

// ParseRawPayload is the raw-JSON edit mode's live validation: the
// text must be a JSON object, not merely well-formed JSON.
func ParseRawPayload(raw string) (json.RawMessage, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrDecodeFailed, err)
	}
	return json.RawMessage(raw), nil
}

// SendOutcome is the response badge state after a webhook send.
type SendOutcome struct {
	OK         bool   `json:"ok"`
	StatusCode int    `json:"status_code"`
	Body       string `json:"body"`
	Payload    string `json:"payload"`
}

// SendSignal posts a prepared payload through the backend and folds
// the response into the badge. A transport failure is returned as an
// error; an HTTP-level failure is a non-OK outcome, not an error.
func SendSignal(ctx context.Context, backend ports.Backend, payload json.RawMessage) (*SendOutcome, error) {
	res, err := backend.SendWebhook(ctx, payload)
	if err != nil {
		return nil, err
	}
	return &SendOutcome{
		OK:         res.OK,
		StatusCode: res.StatusCode,
		Body:       string(res.Body),
		Payload:    string(payload),
	}, nil
}
