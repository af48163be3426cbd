package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds. Every error returned by the SDK matches exactly one of these
// through errors.Is.
var (
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrEmptyArguments        = errors.New("arguments must be not empty")
	ErrUnsupportedOperation  = errors.New("unsupported operation")
	ErrMissingSignatureField = errors.New("missing signature field")
	ErrMissingFields         = errors.New("missing required fields")
	ErrInvalidSignature      = errors.New("invalid signature")
	ErrTransport             = errors.New("transport error")
	ErrGateway               = errors.New("gateway error")
)

// ErrorCategory represents the category of error for handling
type ErrorCategory string

const (
	CategoryNetworkError   ErrorCategory = "network_error"
	CategorySystemError    ErrorCategory = "system_error"
	CategoryInvalidRequest ErrorCategory = "invalid_request"
)

// PaymentError represents a failed exchange with the gateway.
// Kind is ErrTransport when no HTTP response was received and ErrGateway
// when the gateway answered with a non-success status.
type PaymentError struct {
	Kind        error
	Code        string
	Message     string
	Category    ErrorCategory
	IsRetriable bool
	StatusCode  int
	RawBody     []byte
	Err         error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Code, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is the sentinel kind of this error.
func (e *PaymentError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// NewTransportError wraps a network-level failure
func NewTransportError(err error) *PaymentError {
	return &PaymentError{
		Kind:        ErrTransport,
		Code:        "NETWORK_ERROR",
		Message:     "failed to connect to payment gateway",
		Category:    CategoryNetworkError,
		IsRetriable: true,
		Err:         err,
	}
}

// NewGatewayError wraps a completed exchange that returned a non-success status
func NewGatewayError(statusCode int, body []byte) *PaymentError {
	e := &PaymentError{
		Kind:       ErrGateway,
		Code:       "GATEWAY_ERROR",
		Message:    "payment gateway error",
		Category:   CategorySystemError,
		StatusCode: statusCode,
		RawBody:    body,
	}
	if statusCode >= 500 {
		e.IsRetriable = true
	} else {
		e.Code = "REQUEST_ERROR"
		e.Message = "invalid request to payment gateway"
		e.Category = CategoryInvalidRequest
	}
	return e
}

// ValidationError represents input validation errors raised before any
// network call is attempted.
type ValidationError struct {
	Kind    error
	Field   string
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	switch {
	case len(e.Fields) > 0:
		return fmt.Sprintf("%v: %s", e.Kind, strings.Join(e.Fields, ", "))
	case e.Field != "":
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	default:
		return fmt.Sprintf("%v: %s", e.Kind, e.Message)
	}
}

func (e *ValidationError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// NewValidationError creates an invalid argument error for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Kind:    ErrInvalidArgument,
		Field:   field,
		Message: message,
	}
}

// NewEmptyArgumentsError is returned when an operation receives no fields
func NewEmptyArgumentsError() *ValidationError {
	return &ValidationError{
		Kind:    ErrEmptyArguments,
		Message: "no fields supplied",
	}
}

// NewUnsupportedOperationError is returned for transaction types with no rules
func NewUnsupportedOperationError(transactionType string) *ValidationError {
	return &ValidationError{
		Kind:    ErrUnsupportedOperation,
		Field:   "transactionType",
		Message: fmt.Sprintf("unsupported transaction type %q", transactionType),
	}
}

// NewMissingSignatureFieldError lists every field absent from the signature input
func NewMissingSignatureFieldError(fields []string) *ValidationError {
	return &ValidationError{
		Kind:   ErrMissingSignatureField,
		Fields: fields,
	}
}

// NewMissingFieldsError lists every required field that is absent or empty
func NewMissingFieldsError(fields []string) *ValidationError {
	return &ValidationError{
		Kind:   ErrMissingFields,
		Fields: fields,
	}
}

// NewInvalidSignatureError is returned when a received signature does not match
func NewInvalidSignatureError(field string) *ValidationError {
	return &ValidationError{
		Kind:    ErrInvalidSignature,
		Field:   field,
		Message: "signature mismatch",
	}
}

// MissingFields returns the field list carried by err, if any.
func MissingFields(err error) []string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}
