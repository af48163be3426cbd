// Package callback serves the merchant service URL that WayForPay posts
// payment status notifications to.
package callback

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	pkgerrors "github.com/kevin07696/wayforpay/pkg/errors"
	"github.com/kevin07696/wayforpay/pkg/observability"
	"github.com/kevin07696/wayforpay/pkg/wayforpay"
)

const maxNotificationBytes = 64 << 10

// NotificationVerifier checks notification signatures and signs the reply
type NotificationVerifier interface {
	VerifyNotification(n *wayforpay.Notification) error
	Accept(orderReference string, now time.Time) (*wayforpay.AcceptResponse, error)
}

// NotificationProcessor applies a verified notification to merchant state.
// A returned error withholds the ACCEPT reply so the gateway retries.
type NotificationProcessor interface {
	Process(ctx context.Context, n *wayforpay.Notification) error
}

// CallbackHandler handles WayForPay service URL notifications
type CallbackHandler struct {
	verifier  NotificationVerifier
	processor NotificationProcessor
	logger    *zap.Logger
	now       func() time.Time
}

// NewCallbackHandler creates a new callback handler. processor may be nil.
func NewCallbackHandler(verifier NotificationVerifier, processor NotificationProcessor, logger *zap.Logger) *CallbackHandler {
	return &CallbackHandler{
		verifier:  verifier,
		processor: processor,
		logger:    logger,
		now:       time.Now,
	}
}

// Register mounts the handler on router at path
func (h *CallbackHandler) Register(router *httprouter.Router, path string) {
	router.POST(path, h.HandleNotification)
}

// HandleNotification verifies a notification and answers with a signed ACCEPT
// POST {service URL}
func (h *CallbackHandler) HandleNotification(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxNotificationBytes))
	if err != nil {
		h.logger.Warn("failed to read notification body", zap.Error(err))
		observability.RecordCallback("", observability.CallbackMalformed)
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	n, err := wayforpay.ParseNotification(body)
	if err != nil {
		h.logger.Warn("malformed notification", zap.Error(err))
		observability.RecordCallback("", observability.CallbackMalformed)
		http.Error(w, "malformed notification", http.StatusBadRequest)
		return
	}

	logger := h.logger.With(
		zap.String("order_reference", n.OrderReference),
		zap.String("transaction_status", n.TransactionStatus),
	)

	if err := h.verifier.VerifyNotification(n); err != nil {
		logger.Warn("rejected notification", zap.Error(err))
		observability.RecordCallback(n.TransactionStatus, observability.CallbackInvalidSignature)
		status := http.StatusUnauthorized
		if errors.Is(err, pkgerrors.ErrMissingSignatureField) {
			status = http.StatusBadRequest
		}
		http.Error(w, "notification rejected", status)
		return
	}

	if h.processor != nil {
		if err := h.processor.Process(r.Context(), n); err != nil {
			logger.Error("failed to process notification", zap.Error(err))
			http.Error(w, "processing failed", http.StatusInternalServerError)
			return
		}
	}

	reply, err := h.verifier.Accept(n.OrderReference, h.now())
	if err != nil {
		logger.Error("failed to sign accept reply", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	observability.RecordCallback(n.TransactionStatus, observability.CallbackAccepted)
	logger.Info("accepted notification",
		zap.String("amount", n.Amount.String()),
		zap.String("currency", n.Currency),
		zap.Int64("reason_code", n.ReasonCode),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(reply); err != nil {
		logger.Error("failed to write accept reply", zap.Error(err))
	}
}
