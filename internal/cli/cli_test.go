package cli

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kevin07696/wayforpay/pkg/wayforpay"
)

const (
	testAccount = "test_merch_n1"
	testSecret  = "flk3409refn54t54t*FNJRET"
)

func sign(message string) string {
	h := hmac.New(md5.New, []byte(testSecret))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}

func setupEnv(t *testing.T, apiURL string) {
	t.Helper()
	t.Setenv("WAYFORPAY_MERCHANT_ACCOUNT", testAccount)
	t.Setenv("WAYFORPAY_MERCHANT_SECRET", testSecret)
	t.Setenv("WAYFORPAY_MERCHANT_DOMAIN", "shop.example")
	t.Setenv("SECRETS_BACKEND", "env")
	t.Setenv("LOG_LEVEL", "error")
	if apiURL != "" {
		t.Setenv("WAYFORPAY_API_URL", apiURL)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFieldFlags(t *testing.T) {
	tests := []struct {
		name    string
		flags   fieldFlags
		want    wayforpay.Fields
		wantErr bool
	}{
		{
			name:  "scalars",
			flags: fieldFlags{pairs: []string{"orderReference=DH1", "comment=a=b"}},
			want:  wayforpay.Fields{"orderReference": "DH1", "comment": "a=b"},
		},
		{
			name:  "repeated key becomes a list",
			flags: fieldFlags{pairs: []string{"productName=A", "productName=B"}},
			want:  wayforpay.Fields{"productName": []string{"A", "B"}},
		},
		{
			name:  "bracket suffix forces a list",
			flags: fieldFlags{pairs: []string{"productName[]=A"}},
			want:  wayforpay.Fields{"productName": []string{"A"}},
		},
		{
			name: "pairs override json",
			flags: fieldFlags{
				jsonBody: `{"amount":10.50,"currency":"UAH","productCount":[1,2]}`,
				pairs:    []string{"currency=USD"},
			},
			want: wayforpay.Fields{
				"amount":       json.Number("10.50"),
				"currency":     "USD",
				"productCount": []any{json.Number("1"), json.Number("2")},
			},
		},
		{name: "missing equals", flags: fieldFlags{pairs: []string{"orderReference"}}, wantErr: true},
		{name: "empty key", flags: fieldFlags{pairs: []string{"=x"}}, wantErr: true},
		{name: "invalid json", flags: fieldFlags{jsonBody: `{"amount":`}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.flags.fields()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProductTotal(t *testing.T) {
	prices := []decimal.Decimal{decimal.RequireFromString("10.25"), decimal.RequireFromString("1.10")}
	assert.Equal(t, "21.6", productTotal(prices, []int{2}).String(), "missing count means one unit")
}

func TestSignCommand(t *testing.T) {
	setupEnv(t, "")

	out, err := run(t, "sign", "--type", "check_status",
		"-f", "merchantAccount="+testAccount, "-f", "orderReference=DH783023")
	require.NoError(t, err)
	assert.Equal(t, sign(testAccount+";DH783023")+"\n", out)
}

func TestSignCommand_Prepare(t *testing.T) {
	setupEnv(t, "")

	out, err := run(t, "sign", "--type", "REFUND", "--prepare",
		"--json", `{"orderReference":"DH783023","amount":1,"currency":"UAH","comment":"return"}`)
	require.NoError(t, err)

	var prepared map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &prepared))
	assert.Equal(t, "REFUND", prepared["transactionType"])
	assert.Equal(t, testAccount, prepared["merchantAccount"])
	assert.EqualValues(t, 1, prepared["apiVersion"])
	assert.Equal(t, sign(testAccount+";DH783023;1;UAH"), prepared["merchantSignature"])
}

func TestSignCommand_Errors(t *testing.T) {
	setupEnv(t, "")

	_, err := run(t, "sign", "--type", "AUTH", "-f", "orderReference=DH1")
	assert.Error(t, err, "unknown transaction type")

	_, err = run(t, "sign", "--type", "REFUND", "--prepare", "-f", "orderReference=DH1")
	assert.Error(t, err, "validation fails without amount")
}

func TestPurchaseURLCommand(t *testing.T) {
	setupEnv(t, "")

	out, err := run(t, "purchase-url", "--order-reference", "ORD-7",
		"--product-name", "Samsung WB1100F", "--product-count", "2", "--product-price", "10.25")
	require.NoError(t, err)

	link, err := url.Parse(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "secure.wayforpay.com", link.Host)

	q := link.Query()
	assert.Equal(t, "ORD-7", q.Get("orderReference"))
	assert.Equal(t, "20.5", q.Get("amount"), "amount defaults to the product total")
	assert.Equal(t, "UAH", q.Get("currency"))
	assert.Equal(t, "shop.example", q.Get("merchantDomainName"))
	assert.Equal(t, []string{"Samsung WB1100F"}, q["productName[]"])
	assert.Equal(t, []string{"2"}, q["productCount[]"])
	assert.Equal(t, []string{"10.25"}, q["productPrice[]"])
	assert.Empty(t, q.Get("apiVersion"))

	expected := sign(strings.Join([]string{
		testAccount, "shop.example", "ORD-7", q.Get("orderDate"), "20.5", "UAH", "Samsung WB1100F", "2", "10.25",
	}, ";"))
	assert.Equal(t, expected, q.Get("merchantSignature"))
}

func TestFormAndWidgetCommands(t *testing.T) {
	setupEnv(t, "")
	args := []string{"--amount", "5", "--product-name", "Tea", "--product-count", "1", "--product-price", "5"}

	form, err := run(t, append([]string{"form"}, args...)...)
	require.NoError(t, err)
	assert.Contains(t, form, `action="https://secure.wayforpay.com/pay"`)
	assert.Contains(t, form, `name="productName[]"`)

	widget, err := run(t, append([]string{"widget", "--handler", "openCheckout"}, args...)...)
	require.NoError(t, err)
	assert.Contains(t, widget, "openCheckout")

	_, err = run(t, append([]string{"widget", "--handler", "not valid"}, args...)...)
	assert.Error(t, err)
}

func TestWidgetCommand_HandlerFlag(t *testing.T) {
	widget, _, err := NewRootCommand().Find([]string{"widget"})
	require.NoError(t, err)

	flag := widget.Flags().Lookup("handler")
	require.NotNil(t, flag)
	assert.Contains(t, flag.Usage, "message listener")
	assert.Contains(t, flag.Usage, "receiveMessage")
	assert.Empty(t, flag.DefValue)
}

func TestCheckStatusCommand(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"orderReference":"DH1","transactionStatus":"Approved","reasonCode":1100,"reason":"Ok"}`))
	}))
	defer server.Close()
	setupEnv(t, server.URL)

	out, err := run(t, "check-status", "--order-reference", "DH1")
	require.NoError(t, err)

	assert.Contains(t, out, "reasonCode 1100: Ok")
	assert.Contains(t, out, `"transactionStatus":"Approved"`)
	assert.Equal(t, "CHECK_STATUS", received["transactionType"])
	assert.Equal(t, sign(testAccount+";DH1"), received["merchantSignature"])
}

func TestRefundCommand_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"reasonCode":1113,"reason":"Internal error"}`))
	}))
	defer server.Close()
	setupEnv(t, server.URL)

	out, err := run(t, "refund", "--order-reference", "DH1", "--amount", "1.5", "--comment", "return")
	require.Error(t, err)
	assert.Contains(t, out, "reasonCode 1113: Internal error", "body is printed before the error")

	_, err = run(t, "refund", "--order-reference", "DH1", "--amount", "abc", "--comment", "return")
	assert.Error(t, err)
}

func TestCallbackServer(t *testing.T) {
	setupEnv(t, "")

	a := &app{}
	require.NoError(t, a.setup(context.Background()))

	var out bytes.Buffer
	server, limiter := a.newCallbackServer(&out, zaptest.NewLogger(t))
	defer limiter.Shutdown()
	assert.Equal(t, "0.0.0.0:8080", server.Addr)

	signature := sign(testAccount + ";ORD-1;100;UAH;541963;41****8217;Approved;1100")
	body := fmt.Sprintf(`{"merchantAccount":%q,"orderReference":"ORD-1","merchantSignature":%q,`+
		`"amount":100,"currency":"UAH","authCode":"541963","cardPan":"41****8217",`+
		`"transactionStatus":"Approved","reason":"Ok","reasonCode":1100}`, testAccount, signature)

	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/wayforpay/notify", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	var accept map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accept))
	assert.Equal(t, "ORD-1", accept["orderReference"])
	assert.Equal(t, "accept", accept["status"])

	assert.Contains(t, out.String(), `"orderReference":"ORD-1"`)
	assert.True(t, strings.HasSuffix(out.String(), "\n"))

	rec = httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
