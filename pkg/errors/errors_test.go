package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Is(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"invalid argument", NewValidationError("merchantAccount", "required"), ErrInvalidArgument},
		{"empty arguments", NewEmptyArgumentsError(), ErrEmptyArguments},
		{"unsupported", NewUnsupportedOperationError("VOID"), ErrUnsupportedOperation},
		{"missing signature field", NewMissingSignatureFieldError([]string{"amount"}), ErrMissingSignatureField},
		{"missing fields", NewMissingFieldsError([]string{"card"}), ErrMissingFields},
		{"invalid signature", NewInvalidSignatureError("merchantSignature"), ErrInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.kind)
			assert.ErrorIs(t, fmt.Errorf("wrapped: %w", tt.err), tt.kind)
			assert.NotErrorIs(t, tt.err, ErrGateway)
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := NewMissingFieldsError([]string{"card", "expMonth"})
	assert.Equal(t, "missing required fields: card, expMonth", err.Error())

	err = NewValidationError("merchantSecret", "must not be empty")
	assert.Equal(t, "validation error on field 'merchantSecret': must not be empty", err.Error())
}

func TestMissingFields(t *testing.T) {
	err := fmt.Errorf("prepare: %w", NewMissingSignatureFieldError([]string{"amount", "currency"}))
	assert.Equal(t, []string{"amount", "currency"}, MissingFields(err))
	assert.Nil(t, MissingFields(errors.New("other")))
}

func TestPaymentError(t *testing.T) {
	t.Run("transport", func(t *testing.T) {
		cause := errors.New("dial tcp: connection refused")
		err := NewTransportError(cause)

		assert.ErrorIs(t, err, ErrTransport)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, CategoryNetworkError, err.Category)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("gateway 5xx", func(t *testing.T) {
		err := NewGatewayError(502, []byte("bad gateway"))

		assert.ErrorIs(t, err, ErrGateway)
		assert.True(t, err.IsRetriable)
		assert.Equal(t, CategorySystemError, err.Category)
		assert.Equal(t, []byte("bad gateway"), err.RawBody)
	})

	t.Run("gateway 4xx", func(t *testing.T) {
		err := NewGatewayError(400, nil)

		assert.ErrorIs(t, err, ErrGateway)
		assert.False(t, err.IsRetriable)
		assert.Equal(t, "REQUEST_ERROR", err.Code)
		assert.Equal(t, "REQUEST_ERROR: invalid request to payment gateway (status 400)", err.Error())
	})
}
