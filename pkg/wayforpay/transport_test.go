package wayforpay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/kevin07696/wayforpay/pkg/errors"
	"github.com/kevin07696/wayforpay/test/mocks"
)

func refundFields() Fields {
	return Fields{
		FieldOrderReference: "ORD-42",
		FieldAmount:         decimal.RequireFromString("10.50"),
		FieldCurrency:       "UAH",
		FieldComment:        "returned goods",
	}
}

func TestSend_PostsJSONToAPI(t *testing.T) {
	var (
		gotMethod string
		gotHeader http.Header
		gotBody   map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Clone()
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		_ = dec.Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"orderReference":"ORD-42","transactionStatus":"Refunded","reasonCode":1100,"reason":"Ok"}`)
	}))
	defer server.Close()

	client := newTestClient(t, WithAPIURL(server.URL), WithHTTPClient(server.Client()))

	resp, err := client.Refund(context.Background(), refundFields())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	assert.Equal(t, "REFUND", gotBody[FieldTransactionType])
	assert.Equal(t, testAccount, gotBody[FieldMerchantAccount])
	assert.Equal(t, json.Number("10.5"), gotBody[FieldAmount], "decimal amounts go out as JSON numbers")
	assert.Equal(t, json.Number("1"), gotBody[FieldAPIVersion])
	assert.Equal(t,
		expectedHMAC(testSecret, testAccount+";ORD-42;10.5;UAH"),
		gotBody[FieldMerchantSignature])

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	reason, ok := resp.Reason()
	require.True(t, ok)
	assert.Equal(t, Reason{Code: 1100, Text: "Ok"}, reason)

	var decoded struct {
		TransactionStatus string `json:"transactionStatus"`
	}
	require.NoError(t, resp.Decode(&decoded))
	assert.Equal(t, StatusRefunded, decoded.TransactionStatus)
}

func TestSend_DeclineIsNotAnError(t *testing.T) {
	httpClient := mocks.NewMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		return mocks.JSONResponse(http.StatusOK, `{"reasonCode":1109,"reason":"Order not found"}`), nil
	})
	client := newTestClient(t, WithHTTPClient(httpClient))

	resp, err := client.CheckStatus(context.Background(), Fields{FieldOrderReference: "ORD-1"})
	require.NoError(t, err)

	reason, ok := resp.Reason()
	require.True(t, ok)
	assert.Equal(t, int64(1109), reason.Code)
}

func TestSend_GatewayErrorKeepsRawResponse(t *testing.T) {
	httpClient := mocks.NewMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		return mocks.JSONResponse(http.StatusInternalServerError, `{"reason":"maintenance"}`), nil
	})
	logger := mocks.NewMockLogger()
	client := newTestClient(t, WithHTTPClient(httpClient), WithLogger(logger))

	resp, err := client.CheckStatus(context.Background(), Fields{FieldOrderReference: "ORD-1"})

	require.ErrorIs(t, err, pkgerrors.ErrGateway)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"reason":"maintenance"}`, string(resp.Body))

	var paymentErr *pkgerrors.PaymentError
	require.True(t, errors.As(err, &paymentErr))
	assert.True(t, paymentErr.IsRetriable)
	assert.Equal(t, http.StatusInternalServerError, paymentErr.StatusCode)

	require.Len(t, logger.WarnCalls, 1)
	assert.Equal(t, http.StatusInternalServerError, logger.WarnCalls[0].Field("status_code"))
}

func TestSend_TransportError(t *testing.T) {
	httpClient := mocks.NewMockHTTPClient(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	logger := mocks.NewMockLogger()
	client := newTestClient(t, WithHTTPClient(httpClient), WithLogger(logger))

	resp, err := client.Settle(context.Background(), Fields{
		FieldOrderReference: "ORD-1",
		FieldAmount:         "10",
		FieldCurrency:       "UAH",
	})

	assert.Nil(t, resp)
	require.ErrorIs(t, err, pkgerrors.ErrTransport)
	assert.Contains(t, err.Error(), "connection refused")
	require.Len(t, logger.ErrorCalls, 1)
	assert.Equal(t, "failed to reach WayForPay API", logger.ErrorCalls[0].Message)
}

func TestSend_ValidationFailureMakesNoRequest(t *testing.T) {
	httpClient := mocks.NewMockHTTPClient(nil)
	client := newTestClient(t, WithHTTPClient(httpClient))

	fields := refundFields()
	delete(fields, FieldComment)

	_, err := client.Refund(context.Background(), fields)

	require.ErrorIs(t, err, pkgerrors.ErrMissingFields)
	assert.Empty(t, httpClient.Calls)
}

func TestSend_RequiresSignedFields(t *testing.T) {
	httpClient := mocks.NewMockHTTPClient(nil)
	client := newTestClient(t, WithHTTPClient(httpClient))

	_, err := client.Send(context.Background(), Fields{FieldOrderReference: "ORD-1"})

	require.ErrorIs(t, err, pkgerrors.ErrMissingSignatureField)
	assert.Empty(t, httpClient.Calls)
}

func TestCall_RejectsBrowserOnlyTypes(t *testing.T) {
	httpClient := mocks.NewMockHTTPClient(nil)
	client := newTestClient(t, WithHTTPClient(httpClient))

	for _, tt := range []TransactionType{TransactionTypePurchase, TransactionTypeAccept} {
		_, err := client.Call(context.Background(), tt, allFields())
		assert.ErrorIs(t, err, pkgerrors.ErrUnsupportedOperation, tt)
	}
	assert.Empty(t, httpClient.Calls)
}

func TestSend_LogsRequest(t *testing.T) {
	httpClient := mocks.NewMockHTTPClient(nil)
	logger := mocks.NewMockLogger()
	client := newTestClient(t, WithHTTPClient(httpClient), WithLogger(logger))

	_, err := client.Account2Phone(context.Background(), Fields{
		FieldOrderReference: "ORD-7",
		FieldAmount:         "5",
		FieldCurrency:       "UAH",
		FieldPhone:          "380501234567",
	})
	require.NoError(t, err)

	require.Len(t, logger.InfoCalls, 1)
	assert.Equal(t, "P2P_PHONE", logger.InfoCalls[0].Field("transaction_type"))
	assert.Equal(t, "ORD-7", logger.InfoCalls[0].Field("order_reference"))
	require.Len(t, logger.DebugCalls, 1)
	assert.Equal(t, http.StatusOK, logger.DebugCalls[0].Field("status_code"))
}

func TestSend_RateLimitHonoursContext(t *testing.T) {
	httpClient := mocks.NewMockHTTPClient(nil)
	client := newTestClient(t, WithHTTPClient(httpClient), WithRateLimit(1, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.CheckStatus(ctx, Fields{FieldOrderReference: "ORD-1"})

	require.ErrorIs(t, err, pkgerrors.ErrTransport)
	assert.Empty(t, httpClient.Calls)
}

func TestRawResponse_ReasonWithoutCode(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>oops</html>"},
		{"no reason code", `{"reason":"Ok"}`},
		{"non integer code", `{"reasonCode":"abc"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := &RawResponse{StatusCode: http.StatusOK, Body: []byte(tt.body)}
			_, ok := raw.Reason()
			assert.False(t, ok)
		})
	}
}
