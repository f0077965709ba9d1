package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorders(t *testing.T) {
	m := New("pricing")

	m.RecordCalculation("price", "call")
	m.RecordCalculation("price", "call")
	m.RecordError("greeks", "invalid_option_type")
	m.RecordCache("hit")
	m.RecordEvent("OptionPriced", "ok")
	m.RecordHTTPRequest(http.MethodGet, "/price", 200, 0.002)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CalculationsTotal.WithLabelValues("price", "call")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("greeks", "invalid_option_type")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRequestsTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublishedTotal.WithLabelValues("OptionPriced", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/price", "200")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New("pricing")
	m.RecordCalculation("greeks", "put")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "trading_pricing_calculations_total")
}
