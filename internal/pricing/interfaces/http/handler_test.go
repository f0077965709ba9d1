package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/optionanalytics/internal/pricing/application"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc := application.NewPricingService(nil, nil, nil, application.Config{MaxSensitivityPoints: 1000})
	NewPricingHandler(svc).RegisterRoutes(r)
	return r
}

func benchmarkQuery(optionType string) url.Values {
	return url.Values{
		"S":     {"100"},
		"X":     {"100"},
		"T":     {"1"},
		"r":     {"0.05"},
		"sigma": {"0.2"},
		"type":  {optionType},
	}
}

func get(t *testing.T, r http.Handler, path string, q url.Values) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path+"?"+q.Encode(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHealth(t *testing.T) {
	r := newRouter()
	for _, path := range []string{"/", "/health"} {
		w, body := get(t, r, path, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", body["status"])
		assert.Contains(t, body["service"], "Black-Scholes")
	}
}

func TestPriceCall(t *testing.T) {
	w, body := get(t, newRouter(), "/price", benchmarkQuery("call"))
	require.Equal(t, http.StatusOK, w.Code)

	price, ok := body["price"].(float64)
	require.True(t, ok)
	assert.InDelta(t, 10.4506, price, 1e-3)
	assert.Equal(t, 10.450584, price)

	inputs := body["inputs"].(map[string]any)
	assert.Equal(t, 100.0, inputs["S"])
	assert.Equal(t, 0.05, inputs["r"])
	assert.Equal(t, "call", inputs["type"])
}

func TestPriceErrors(t *testing.T) {
	r := newRouter()

	w, body := get(t, r, "/price", benchmarkQuery("invalid"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "option type must be 'call' or 'put'", body["error"])

	q := benchmarkQuery("call")
	q.Set("S", "abc")
	w, body = get(t, r, "/price", q)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid input parameters", body["error"])

	q = benchmarkQuery("invalid")
	q.Del("sigma")
	w, body = get(t, r, "/price", q)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid input parameters", body["error"])

	q = benchmarkQuery("call")
	q.Set("T", "0")
	w, body = get(t, r, "/price", q)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "degenerate")
}

func TestGreeks(t *testing.T) {
	r := newRouter()

	w, body := get(t, r, "/greeks", benchmarkQuery("call"))
	require.Equal(t, http.StatusOK, w.Code)
	for _, name := range []string{"delta", "gamma", "theta", "vega", "rho"} {
		_, ok := body[name].(float64)
		assert.True(t, ok, name)
	}
	assert.InDelta(t, 0.6368306511756191, body["delta"], 1e-9)

	w, body = get(t, r, "/greeks", benchmarkQuery("invalid"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid option type", body["error"])
}

func TestProbability(t *testing.T) {
	r := newRouter()

	w, body := get(t, r, "/probability", benchmarkQuery("call"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 0.5596176923702425, body["probability"], 1e-9)
	assert.Equal(t, "call", body["type"])

	w, body = get(t, r, "/probability", benchmarkQuery("put"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 1-0.5596176923702425, body["probability"], 1e-9)

	w, _ = get(t, r, "/probability", benchmarkQuery("straddle"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSensitivity(t *testing.T) {
	r := newRouter()

	q := benchmarkQuery("call")
	q.Set("s_min", "80")
	q.Set("s_max", "120")
	q.Set("points", "5")
	w, body := get(t, r, "/sensitivity", q)
	require.Equal(t, http.StatusOK, w.Code)
	points := body["points"].([]any)
	require.Len(t, points, 5)
	mid := points[2].(map[string]any)
	assert.InDelta(t, 100.0, mid["spot"], 1e-12)
	assert.InDelta(t, 0.6368306511756191, mid["delta"], 1e-9)

	assert.InDelta(t, 10.450583572185565, mid["price"], 1e-9)

	spots := benchmarkQuery("call")
	spots.Set("spots", "90, 100,110")
	w, body = get(t, r, "/sensitivity", spots)
	require.Equal(t, http.StatusOK, w.Code)
	series := body["points"].([]any)
	require.Len(t, series, 3)
	assert.Equal(t, 110.0, series[2].(map[string]any)["spot"])
	assert.InDelta(t, 10.450583572185565, series[1].(map[string]any)["price"], 1e-9)

	spots.Set("spots", "90,abc")
	w, body = get(t, r, "/sensitivity", spots)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid input parameters", body["error"])

	spots.Set("spots", "90,-1")
	w, _ = get(t, r, "/sensitivity", spots)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = get(t, r, "/sensitivity", benchmarkQuery("put"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["points"], 100)

	q.Set("points", "1001")
	w, _ = get(t, r, "/sensitivity", q)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	q.Set("points", "x")
	w, body = get(t, r, "/sensitivity", q)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid input parameters", body["error"])
}

func post(t *testing.T, r http.Handler, target, contentType, payload string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(payload))
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestVolatility(t *testing.T) {
	r := newRouter()

	w, body := post(t, r, "/volatility", "application/json", `{"prices":[100,101,99,102,98,103]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 0.5801590555767, body["sigma"], 1e-9)
	assert.Equal(t, 5.0, body["observations"])

	w, body = post(t, r, "/volatility?column=px", "text/csv", "date,px\na,100\nb,101\nc,99\nd,102\ne,98\nf,103\n")
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 0.5801590555767, body["sigma"], 1e-9)

	w, _ = post(t, r, "/volatility", "application/json", `{"prices":[100,101]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, body = post(t, r, "/volatility", "application/json", `{"prices":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid input parameters", body["error"])

	w, _ = post(t, r, "/volatility", "text/csv", "date,open\na,1\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoundMatchesBinaryValue(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{10.450583572185565, 10.450584},
		{0.1234565, 0.123456},
		{1.0000025, 1.000002},
		{0.0078125, 0.007812},
		{-5.5735265, -5.573526},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, round(tc.in), "%v", tc.in)
	}
}
