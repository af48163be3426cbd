package wayforpay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	pkgerrors "github.com/kevin07696/wayforpay/pkg/errors"
	"github.com/shopspring/decimal"
)

// Transaction statuses reported in service URL notifications and CHECK_STATUS
const (
	StatusInProcessing        = "InProcessing"
	StatusWaitingAuthComplete = "WaitingAuthComplete"
	StatusApproved            = "Approved"
	StatusPending             = "Pending"
	StatusExpired             = "Expired"
	StatusRefunded            = "Refunded"
	StatusVoided              = "Voided"
	StatusDeclined            = "Declined"
	StatusRefundInProcessing  = "RefundInProcessing"
)

// AcceptStatus is the only status a merchant replies with
const AcceptStatus = "accept"

// NotificationSignatureFields is the order the gateway signs service URL
// notifications in.
var NotificationSignatureFields = []string{
	FieldMerchantAccount,
	FieldOrderReference,
	FieldAmount,
	FieldCurrency,
	FieldAuthCode,
	FieldCardPan,
	FieldTransactionStatus,
	FieldReasonCode,
}

// Notification is a payment status callback posted to the merchant's service URL
type Notification struct {
	MerchantAccount   string
	OrderReference    string
	Signature         string
	Amount            decimal.Decimal
	Currency          string
	TransactionStatus string
	ReasonCode        int64
	Reason            string
	RecToken          string

	// Fields keeps every received value with numbers in their original text
	Fields Fields
}

// ParseNotification decodes a notification body
func ParseNotification(body []byte) (*Notification, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, pkgerrors.NewValidationError("body", fmt.Sprintf("malformed notification: %v", err))
	}
	fields := Fields(raw)

	n := &Notification{
		MerchantAccount:   fields.String(FieldMerchantAccount),
		OrderReference:    fields.String(FieldOrderReference),
		Signature:         fields.String(FieldMerchantSignature),
		Currency:          fields.String(FieldCurrency),
		TransactionStatus: fields.String(FieldTransactionStatus),
		Reason:            fields.String("reason"),
		RecToken:          fields.String(FieldRecToken),
		Fields:            fields,
	}
	if n.OrderReference == "" {
		return nil, pkgerrors.NewValidationError(FieldOrderReference, "missing from notification")
	}

	if s := fields.String(FieldAmount); s != "" {
		amount, err := decimal.NewFromString(s)
		if err != nil {
			return nil, pkgerrors.NewValidationError(FieldAmount, fmt.Sprintf("not a number: %q", s))
		}
		n.Amount = amount
	}
	if s := fields.String(FieldReasonCode); s != "" {
		code, err := json.Number(s).Int64()
		if err != nil {
			return nil, pkgerrors.NewValidationError(FieldReasonCode, fmt.Sprintf("not an integer: %q", s))
		}
		n.ReasonCode = code
	}
	return n, nil
}

// IsApproved reports whether the notification confirms a successful payment
func (n *Notification) IsApproved() bool {
	return n.TransactionStatus == StatusApproved
}

// VerifyNotification checks the notification's merchantSignature
func (c *Client) VerifyNotification(n *Notification) error {
	if n.MerchantAccount != c.account {
		return pkgerrors.NewValidationError(FieldMerchantAccount, fmt.Sprintf("notification for unknown merchant %q", n.MerchantAccount))
	}
	message, err := joinFields(NotificationSignatureFields, n.Fields)
	if err != nil {
		return err
	}
	if !hmacEqual(hmacMD5(c.secret, message), n.Signature) {
		return pkgerrors.NewInvalidSignatureError(FieldMerchantSignature)
	}
	return nil
}

// AcceptResponse is the merchant's reply confirming receipt of a notification
type AcceptResponse struct {
	OrderReference string `json:"orderReference"`
	Status         string `json:"status"`
	Time           int64  `json:"time"`
	Signature      string `json:"signature"`
}

// Accept builds the signed ACCEPT reply for orderReference
func (c *Client) Accept(orderReference string, now time.Time) (*AcceptResponse, error) {
	fields := Fields{
		FieldOrderReference: orderReference,
		FieldStatus:         AcceptStatus,
		FieldTime:           now.Unix(),
	}
	signature, err := ComputeSignature(TransactionTypeAccept, fields, c.secret)
	if err != nil {
		return nil, err
	}
	fields[FieldSignature] = signature
	if err := Validate(TransactionTypeAccept, fields); err != nil {
		return nil, err
	}

	return &AcceptResponse{
		OrderReference: orderReference,
		Status:         AcceptStatus,
		Time:           now.Unix(),
		Signature:      signature,
	}, nil
}
