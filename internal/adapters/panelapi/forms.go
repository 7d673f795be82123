package panelapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"signalpanel/internal/domain"
	"signalpanel/internal/ports"
)

// VerifyReferral posts a referral code for validation. A 401 surfaces
// as ErrAuthRequired so the caller can redirect to login.
func (c *Client) VerifyReferral(ctx context.Context, code string) error {
	body, status, err := c.post(ctx, "/referral/verify", map[string]string{"code": code})
	if err != nil {
		return err
	}

	var resp struct {
		Valid   *bool  `json:"valid"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: /referral/verify: %v", ports.ErrDecodeFailed, err)
	}
	if resp.Valid != nil && !*resp.Valid {
		if resp.Message != "" {
			return fmt.Errorf("%w: %s", ports.ErrInvalidRequest, resp.Message)
		}
		return fmt.Errorf("%w: referral code rejected (status %d)", ports.ErrInvalidRequest, status)
	}
	return nil
}

// SendWebhook posts a trading-signal payload to the webhook test
// endpoint. HTTP-level failures are part of the result, not an error;
// only transport failures error out.
func (c *Client) SendWebhook(ctx context.Context, payload json.RawMessage) (*ports.WebhookResult, error) {
	body, status, err := c.post(ctx, "/webhook", payload)
	if err != nil && status == 0 {
		return nil, err
	}
	// keep auth failures visible to the caller
	if errors.Is(err, ports.ErrAuthRequired) {
		return nil, err
	}
	return &ports.WebhookResult{
		StatusCode: status,
		OK:         status >= 200 && status < 300,
		Body:       body,
	}, nil
}

// TestStatus probes the admin test console status endpoint.
func (c *Client) TestStatus(ctx context.Context) (*domain.TestStatus, error) {
	body, _, err := c.do(ctx, http.MethodGet, "/admin/test/status", nil, nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Success      bool   `json:"success"`
		ConfigMode   string `json:"config_mode"`
		ExchangeMode string `json:"exchange_mode"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: /admin/test/status: %v", ports.ErrDecodeFailed, err)
	}
	return &domain.TestStatus{
		Success:      resp.Success,
		ConfigMode:   resp.ConfigMode,
		ExchangeMode: resp.ExchangeMode,
	}, nil
}
