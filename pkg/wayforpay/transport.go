package wayforpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	pkgerrors "github.com/kevin07696/wayforpay/pkg/errors"
	"github.com/kevin07696/wayforpay/pkg/observability"
	"github.com/kevin07696/wayforpay/pkg/ports"
)

// RawResponse is the unmodified answer of the gateway API
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v
func (r *RawResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// Reason is the gateway's result code and text. The SDK does not interpret it.
type Reason struct {
	Code int64
	Text string
}

// Reason extracts reasonCode and reason from the body. ok is false when the
// body is not JSON or carries no reasonCode.
func (r *RawResponse) Reason() (reason Reason, ok bool) {
	var body struct {
		ReasonCode json.Number `json:"reasonCode"`
		Reason     string      `json:"reason"`
	}
	if err := json.Unmarshal(r.Body, &body); err != nil || body.ReasonCode == "" {
		return Reason{}, false
	}
	code, err := body.ReasonCode.Int64()
	if err != nil {
		return Reason{}, false
	}
	return Reason{Code: code, Text: body.Reason}, true
}

// Send posts a prepared field set to the API endpoint in a single attempt.
// Any completed HTTP exchange returns the raw response; a non-2xx status also
// returns a gateway error carrying the same body.
func (c *Client) Send(ctx context.Context, prepared Fields) (*RawResponse, error) {
	if _, ok := prepared[FieldMerchantSignature]; !ok {
		return nil, pkgerrors.NewMissingSignatureFieldError([]string{FieldMerchantSignature})
	}
	transactionType := prepared.String(FieldTransactionType)

	payload, err := json.Marshal(prepared)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, pkgerrors.NewTransportError(err)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Info("making request to WayForPay API",
		ports.String("transaction_type", transactionType),
		ports.String("order_reference", prepared.String(FieldOrderReference)),
	)

	done := observability.TrackGatewayRequest(transactionType)
	start := time.Now()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		done(observability.OutcomeTransportError)
		c.logger.Error("failed to reach WayForPay API",
			ports.String("transaction_type", transactionType),
			ports.Err(err),
		)
		return nil, pkgerrors.NewTransportError(err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		done(observability.OutcomeTransportError)
		return nil, pkgerrors.NewTransportError(fmt.Errorf("failed to read response body: %w", err))
	}

	raw := &RawResponse{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		done(observability.OutcomeGatewayError)
		c.logger.Warn("WayForPay API returned error status",
			ports.String("transaction_type", transactionType),
			ports.Int("status_code", httpResp.StatusCode),
		)
		return raw, pkgerrors.NewGatewayError(httpResp.StatusCode, body)
	}

	done(observability.OutcomeOK)
	c.logger.Debug("received WayForPay API response",
		ports.String("transaction_type", transactionType),
		ports.Int("status_code", httpResp.StatusCode),
		ports.Duration("elapsed_ms", time.Since(start).Milliseconds()),
	)
	return raw, nil
}
