package wayforpay

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
	"strings"

	pkgerrors "github.com/kevin07696/wayforpay/pkg/errors"
)

// SignatureMessage builds the string that is signed for t: the values of the
// type's signature fields, in order, joined by ";".
func SignatureMessage(t TransactionType, fields Fields) (string, error) {
	rule, err := Rules(t)
	if err != nil {
		return "", err
	}
	return joinFields(rule.SignatureFields, fields)
}

func joinFields(names []string, fields Fields) (string, error) {
	values := make([]string, 0, len(names))
	var missing []string
	for _, name := range names {
		v, ok := fields[name]
		if !ok || v == nil {
			missing = append(missing, name)
			continue
		}
		values = append(values, JoinValue(v))
	}
	if len(missing) > 0 {
		return "", pkgerrors.NewMissingSignatureFieldError(missing)
	}
	return strings.Join(values, listSeparator), nil
}

// ComputeSignature calculates the merchant signature for t
// Signature = hex(HMAC-MD5(secret, SignatureMessage))
func ComputeSignature(t TransactionType, fields Fields, secret string) (string, error) {
	message, err := SignatureMessage(t, fields)
	if err != nil {
		return "", err
	}
	return hmacMD5(secret, message), nil
}

// VerifySignature validates a signature received from the gateway
func VerifySignature(t TransactionType, fields Fields, secret, signature string) bool {
	expected, err := ComputeSignature(t, fields, secret)
	if err != nil {
		return false
	}
	return hmacEqual(expected, signature)
}

// hmacEqual compares hex digests in constant time, ignoring the case of received
func hmacEqual(expected, received string) bool {
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(received)))
}

func hmacMD5(key, message string) string {
	h := hmac.New(md5.New, []byte(key))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}
