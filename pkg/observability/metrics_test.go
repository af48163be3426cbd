package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackGatewayRequest(t *testing.T) {
	before := testutil.ToFloat64(gatewayRequestsTotal.WithLabelValues("CHECK_STATUS", OutcomeOK))

	done := TrackGatewayRequest("CHECK_STATUS")
	assert.Equal(t, float64(1), testutil.ToFloat64(gatewayRequestsInFlight))
	done(OutcomeOK)

	assert.Equal(t, float64(0), testutil.ToFloat64(gatewayRequestsInFlight))
	assert.Equal(t, before+1, testutil.ToFloat64(gatewayRequestsTotal.WithLabelValues("CHECK_STATUS", OutcomeOK)))
}

func TestRecordCallback(t *testing.T) {
	before := testutil.ToFloat64(callbackNotificationsTotal.WithLabelValues("Approved", CallbackAccepted))
	RecordCallback("Approved", CallbackAccepted)
	assert.Equal(t, before+1, testutil.ToFloat64(callbackNotificationsTotal.WithLabelValues("Approved", CallbackAccepted)))
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}
