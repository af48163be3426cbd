// Package wayforpay is a client for the WayForPay payment gateway.
//
// Every operation builds a fresh field set, signs it with HMAC-MD5 over the
// transaction type's signature fields, validates it and then either sends it
// to the JSON API or renders it for a browser checkout.
package wayforpay

import (
	"context"
	"net/http"

	pkgerrors "github.com/kevin07696/wayforpay/pkg/errors"
	"github.com/kevin07696/wayforpay/pkg/ports"
	"golang.org/x/time/rate"
)

const (
	// DefaultAPIURL receives host-to-host JSON requests
	DefaultAPIURL = "https://api.wayforpay.com/api"
	// DefaultPurchaseURL hosts the checkout page
	DefaultPurchaseURL = "https://secure.wayforpay.com/pay"
	// APIVersion is added to every request except PURCHASE
	APIVersion = 1
)

// Client signs and dispatches requests for one merchant account.
// It holds no per-call state and is safe for concurrent use.
type Client struct {
	account     string
	secret      string
	apiURL      string
	purchaseURL string
	httpClient  ports.HTTPClient
	logger      ports.Logger
	limiter     *rate.Limiter
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient injects the HTTP client used by Send
func WithHTTPClient(httpClient ports.HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger injects a structured logger
func WithLogger(logger ports.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithAPIURL overrides the API endpoint (sandbox, test servers)
func WithAPIURL(apiURL string) Option {
	return func(c *Client) {
		c.apiURL = apiURL
	}
}

// WithPurchaseURL overrides the hosted checkout endpoint
func WithPurchaseURL(purchaseURL string) Option {
	return func(c *Client) {
		c.purchaseURL = purchaseURL
	}
}

// WithRateLimit throttles Send to rps requests per second with the given burst.
// Waiting happens before the single dispatch attempt and honours ctx.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// NewClient creates a client for the given merchant credentials
func NewClient(merchantAccount, merchantSecret string, opts ...Option) (*Client, error) {
	if merchantAccount == "" {
		return nil, pkgerrors.NewValidationError("merchantAccount", "must not be empty")
	}
	if merchantSecret == "" {
		return nil, pkgerrors.NewValidationError("merchantSecret", "must not be empty")
	}

	c := &Client{
		account:     merchantAccount,
		secret:      merchantSecret,
		apiURL:      DefaultAPIURL,
		purchaseURL: DefaultPurchaseURL,
		httpClient:  &http.Client{},
		logger:      ports.NopLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Account returns the merchant account the client signs for
func (c *Client) Account() string {
	return c.account
}

// Prepare returns a signed, validated copy of fields for t.
// The caller's map is left untouched. ACCEPT replies are built by Accept.
func (c *Client) Prepare(t TransactionType, fields Fields) (Fields, error) {
	if len(fields) == 0 {
		return nil, pkgerrors.NewEmptyArgumentsError()
	}
	if t == TransactionTypeAccept {
		return nil, pkgerrors.NewUnsupportedOperationError(string(t))
	}

	prepared := fields.Clone()
	prepared[FieldTransactionType] = string(t)
	prepared[FieldMerchantAccount] = c.account

	signature, err := ComputeSignature(t, prepared, c.secret)
	if err != nil {
		return nil, err
	}
	prepared[FieldMerchantSignature] = signature

	if t == TransactionTypePurchase {
		delete(prepared, FieldAPIVersion)
	} else {
		prepared[FieldAPIVersion] = APIVersion
	}

	if err := Validate(t, prepared); err != nil {
		return nil, err
	}
	return prepared, nil
}

// CreateSignature signs fields for t with the merchant secret as-is, without
// injecting any derived field.
func (c *Client) CreateSignature(t TransactionType, fields Fields) (string, error) {
	return ComputeSignature(t, fields, c.secret)
}

// VerifySignature checks a signature computed by the gateway over fields
func (c *Client) VerifySignature(t TransactionType, fields Fields, signature string) bool {
	return VerifySignature(t, fields, c.secret, signature)
}

// Call prepares fields for an API transaction type and sends them.
// PURCHASE and ACCEPT are not API operations and are rejected.
func (c *Client) Call(ctx context.Context, t TransactionType, fields Fields) (*RawResponse, error) {
	if t == TransactionTypePurchase || t == TransactionTypeAccept {
		return nil, pkgerrors.NewUnsupportedOperationError(string(t))
	}
	prepared, err := c.Prepare(t, fields)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, prepared)
}

// Settle captures a previously held payment
func (c *Client) Settle(ctx context.Context, fields Fields) (*RawResponse, error) {
	return c.Call(ctx, TransactionTypeSettle, fields)
}

// Charge debits a card or a recToken host-to-host
func (c *Client) Charge(ctx context.Context, fields Fields) (*RawResponse, error) {
	return c.Call(ctx, TransactionTypeCharge, fields)
}

// Refund returns funds for an order
func (c *Client) Refund(ctx context.Context, fields Fields) (*RawResponse, error) {
	return c.Call(ctx, TransactionTypeRefund, fields)
}

// CheckStatus queries the state of an order
func (c *Client) CheckStatus(ctx context.Context, fields Fields) (*RawResponse, error) {
	return c.Call(ctx, TransactionTypeCheckStatus, fields)
}

// Complete3DS submits the result of a 3-D Secure challenge
func (c *Client) Complete3DS(ctx context.Context, fields Fields) (*RawResponse, error) {
	return c.Call(ctx, TransactionTypeComplete3DS, fields)
}

// Account2Card transfers funds from the merchant account to a card
func (c *Client) Account2Card(ctx context.Context, fields Fields) (*RawResponse, error) {
	return c.Call(ctx, TransactionTypeP2PCredit, fields)
}

// CreateInvoice issues an invoice to the payer
func (c *Client) CreateInvoice(ctx context.Context, fields Fields) (*RawResponse, error) {
	return c.Call(ctx, TransactionTypeCreateInvoice, fields)
}

// Account2Phone transfers funds from the merchant account to a phone number
func (c *Client) Account2Phone(ctx context.Context, fields Fields) (*RawResponse, error) {
	return c.Call(ctx, TransactionTypeP2PPhone, fields)
}
