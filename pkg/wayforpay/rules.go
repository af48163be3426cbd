package wayforpay

import (
	pkgerrors "github.com/kevin07696/wayforpay/pkg/errors"
)

// TransactionType identifies the gateway operation a field set is built for
type TransactionType string

const (
	TransactionTypePurchase      TransactionType = "PURCHASE"       // Hosted checkout
	TransactionTypeSettle        TransactionType = "SETTLE"         // Capture a held payment
	TransactionTypeCharge        TransactionType = "CHARGE"         // Host-to-host card or token charge
	TransactionTypeRefund        TransactionType = "REFUND"         // Refund or void
	TransactionTypeCheckStatus   TransactionType = "CHECK_STATUS"   // Order status lookup
	TransactionTypeP2PCredit     TransactionType = "P2P_CREDIT"     // Account to card transfer
	TransactionTypeCreateInvoice TransactionType = "CREATE_INVOICE" // Invoice sent to the payer
	TransactionTypeP2PPhone      TransactionType = "P2P_PHONE"      // Account to phone transfer
	TransactionTypeComplete3DS   TransactionType = "COMPLETE_3DS"   // Finish a 3-D Secure challenge
	TransactionTypeAccept        TransactionType = "ACCEPT"         // Merchant reply to a service URL notification
)

// TransactionTypes lists every supported type in declaration order.
func TransactionTypes() []TransactionType {
	return []TransactionType{
		TransactionTypePurchase,
		TransactionTypeSettle,
		TransactionTypeCharge,
		TransactionTypeRefund,
		TransactionTypeCheckStatus,
		TransactionTypeP2PCredit,
		TransactionTypeCreateInvoice,
		TransactionTypeP2PPhone,
		TransactionTypeComplete3DS,
		TransactionTypeAccept,
	}
}

func (t TransactionType) String() string {
	return string(t)
}

var (
	purchaseSignature = []string{
		FieldMerchantAccount,
		FieldMerchantDomainName,
		FieldOrderReference,
		FieldOrderDate,
		FieldAmount,
		FieldCurrency,
		FieldProductName,
		FieldProductCount,
		FieldProductPrice,
	}
	moneySignature = []string{
		FieldMerchantAccount,
		FieldOrderReference,
		FieldAmount,
		FieldCurrency,
	}

	// Injected by Prepare for every type except PURCHASE
	apiEnvelope = []string{FieldTransactionType, FieldAPIVersion, FieldMerchantSignature}

	cardDetails = []string{FieldCard, FieldExpMonth, FieldExpYear, FieldCardCvv, FieldCardHolder}
)

type rule struct {
	signature []string
	required  func(fields Fields) []string
}

func static(lists ...[]string) func(Fields) []string {
	var all []string
	for _, l := range lists {
		all = append(all, l...)
	}
	// capped so callers appending to the result never share a backing array
	return func(Fields) []string { return all[:len(all):len(all)] }
}

// chargeRequired asks for recToken when one is supplied, otherwise for raw card details.
func chargeRequired(fields Fields) []string {
	out := static(apiEnvelope, purchaseSignature)(fields)
	if !isEmpty(fields[FieldRecToken]) {
		return append(out, FieldRecToken)
	}
	return append(out, cardDetails...)
}

var rules = map[TransactionType]rule{
	TransactionTypePurchase: {
		signature: purchaseSignature,
		required:  static(purchaseSignature),
	},
	TransactionTypeCharge: {
		signature: purchaseSignature,
		required:  chargeRequired,
	},
	TransactionTypeCreateInvoice: {
		signature: purchaseSignature,
		required:  static(apiEnvelope, purchaseSignature),
	},
	TransactionTypeRefund: {
		signature: moneySignature,
		required:  static(apiEnvelope, moneySignature, []string{FieldComment}),
	},
	TransactionTypeSettle: {
		signature: moneySignature,
		required:  static(apiEnvelope, moneySignature),
	},
	TransactionTypeCheckStatus: {
		signature: []string{FieldMerchantAccount, FieldOrderReference},
		required:  static(apiEnvelope, []string{FieldMerchantAccount, FieldOrderReference}),
	},
	TransactionTypeP2PCredit: {
		signature: append(append([]string(nil), moneySignature...), FieldCardBeneficiary, FieldRec2Token),
		required:  static(apiEnvelope, moneySignature, []string{FieldCardBeneficiary, FieldRec2Token}),
	},
	TransactionTypeP2PPhone: {
		signature: append(append([]string(nil), moneySignature...), FieldPhone),
		required:  static(apiEnvelope, moneySignature, []string{FieldPhone}),
	},
	TransactionTypeComplete3DS: {
		signature: []string{FieldTransactionType, FieldAuthorizationTicket, FieldD3DSPares},
		required: static(apiEnvelope, []string{
			FieldMerchantAccount,
			FieldAuthorizationTicket,
			FieldD3DSMd,
			FieldD3DSPares,
		}),
	},
	TransactionTypeAccept: {
		signature: []string{FieldOrderReference, FieldStatus, FieldTime},
		required:  static([]string{FieldOrderReference, FieldStatus, FieldTime, FieldSignature}),
	},
}

// Rule is the field contract of one transaction type
type Rule struct {
	Type            TransactionType
	SignatureFields []string
	requiredFn      func(Fields) []string
}

// RequiredFields returns the fields that must be present and non-empty.
// For CHARGE the list depends on whether fields carries a recToken.
func (r Rule) RequiredFields(fields Fields) []string {
	return append([]string(nil), r.requiredFn(fields)...)
}

// Rules returns the field contract for t
func Rules(t TransactionType) (Rule, error) {
	r, ok := rules[t]
	if !ok {
		return Rule{}, pkgerrors.NewUnsupportedOperationError(string(t))
	}
	return Rule{
		Type:            t,
		SignatureFields: append([]string(nil), r.signature...),
		requiredFn:      r.required,
	}, nil
}
