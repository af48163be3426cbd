package wayforpay

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Request field names used by the gateway.
const (
	FieldTransactionType     = "transactionType"
	FieldMerchantAccount     = "merchantAccount"
	FieldMerchantSignature   = "merchantSignature"
	FieldMerchantDomainName  = "merchantDomainName"
	FieldAPIVersion          = "apiVersion"
	FieldOrderReference      = "orderReference"
	FieldOrderDate           = "orderDate"
	FieldAmount              = "amount"
	FieldCurrency            = "currency"
	FieldProductName         = "productName"
	FieldProductCount        = "productCount"
	FieldProductPrice        = "productPrice"
	FieldComment             = "comment"
	FieldRecToken            = "recToken"
	FieldCard                = "card"
	FieldExpMonth            = "expMonth"
	FieldExpYear             = "expYear"
	FieldCardCvv             = "cardCvv"
	FieldCardHolder          = "cardHolder"
	FieldCardBeneficiary     = "cardBeneficiary"
	FieldRec2Token           = "rec2Token"
	FieldPhone               = "phone"
	FieldAuthorizationTicket = "authorization_ticket"
	FieldD3DSMd              = "d3ds_md"
	FieldD3DSPares           = "d3ds_pares"
	FieldStatus              = "status"
	FieldTime                = "time"
	FieldSignature           = "signature"
	FieldAuthCode            = "authCode"
	FieldCardPan             = "cardPan"
	FieldTransactionStatus   = "transactionStatus"
	FieldReasonCode          = "reasonCode"
)

// listSeparator joins array values and signature parts alike.
const listSeparator = ";"

// Fields is the parameter set of one gateway request. Values are strings,
// numbers, decimals, booleans or slices of those for array-valued fields
// such as product lines.
type Fields map[string]any

// Clone returns a shallow copy. Slice values are shared.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f)+4)
	for k, v := range f {
		out[k] = v
	}
	return out
}

// String returns the serialized value of key, or "" when absent.
func (f Fields) String(key string) string {
	v, ok := f[key]
	if !ok {
		return ""
	}
	return JoinValue(v)
}

// FormatValue renders a scalar value as the gateway expects it.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case decimal.Decimal:
		return x.String()
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint8:
		return strconv.FormatUint(uint64(x), 10)
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// ListValues returns the formatted elements of an array-valued field.
// ok is false for scalars.
func ListValues(v any) (values []string, ok bool) {
	switch x := v.(type) {
	case []string:
		return append([]string(nil), x...), true
	case []any:
		return formatAll(x), true
	case []int:
		return formatAll(x), true
	case []int8:
		return formatAll(x), true
	case []int16:
		return formatAll(x), true
	case []int32:
		return formatAll(x), true
	case []int64:
		return formatAll(x), true
	case []uint:
		return formatAll(x), true
	case []uint16:
		return formatAll(x), true
	case []uint32:
		return formatAll(x), true
	case []uint64:
		return formatAll(x), true
	case []float32:
		return formatAll(x), true
	case []float64:
		return formatAll(x), true
	case []bool:
		return formatAll(x), true
	case []decimal.Decimal:
		return formatAll(x), true
	case []json.Number:
		return formatAll(x), true
	default:
		return nil, false
	}
}

func formatAll[T any](xs []T) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = FormatValue(x)
	}
	return out
}

// JoinValue renders any field value as a single string. Array values are
// joined with ";", the same convention the signature uses.
func JoinValue(v any) string {
	if list, ok := ListValues(v); ok {
		return strings.Join(list, listSeparator)
	}
	return FormatValue(v)
}

// isEmpty reports whether a value counts as missing for validation.
func isEmpty(v any) bool {
	if list, ok := ListValues(v); ok {
		return len(list) == 0
	}
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case decimal.Decimal:
		return x.IsZero()
	case json.Number:
		f, err := x.Float64()
		return x == "" || (err == nil && f == 0)
	case float32:
		return x == 0
	case float64:
		return x == 0
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return FormatValue(x) == "0"
	default:
		return false
	}
}

// wireValue converts decimals to JSON numbers so amounts are not quoted.
func wireValue(v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		return json.Number(x.String())
	case []decimal.Decimal:
		out := make([]json.Number, len(x))
		for i, d := range x {
			out[i] = json.Number(d.String())
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = wireValue(e)
		}
		return out
	default:
		return v
	}
}

// MarshalJSON encodes the field set as the gateway's JSON request body.
func (f Fields) MarshalJSON() ([]byte, error) {
	wire := make(map[string]any, len(f))
	for k, v := range f {
		wire[k] = wireValue(v)
	}
	return json.Marshal(wire)
}
