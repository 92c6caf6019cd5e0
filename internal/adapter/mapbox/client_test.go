package mapbox

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/aqi-monitor/internal/observability"
)

const (
	testToken         = "test-token"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testClient(baseURL string) *Client {
	c := NewClient(testToken, 5*time.Second, testMetrics(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.baseURL = baseURL
	return c
}

func TestClient_ReverseGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// lon,lat order
		assert.Equal(t, "/-122.419400,37.761200.json", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, testToken, r.URL.Query().Get("access_token"))

		resp := response{
			Features: []feature{{
				PlaceName: "Mission District, San Francisco, California, United States",
				Text:      "Mission District",
				Relevance: 0.98,
			}},
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	result, err := testClient(srv.URL).ReverseGeocode(context.Background(), 37.7612, -122.4194)
	require.NoError(t, err)

	assert.Equal(t, "Mission District, San Francisco, California, United States", result.FormattedAddress)
	assert.Equal(t, "Mission District", result.PlaceName)
	assert.InDelta(t, 0.98, result.Confidence, 1e-9)
}

func TestClient_ReverseGeocode_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	result, err := testClient(srv.URL).ReverseGeocode(context.Background(), 0.5, 0.5)
	require.NoError(t, err)
	assert.Empty(t, result.FormattedAddress)
}

func TestClient_ReverseGeocode_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Not Authorized - Invalid Token"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.ReverseGeocode(context.Background(), 37.76, -122.41)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.GeocodeRequests.WithLabelValues("error")), 0)
}

func TestClient_ReverseGeocode_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.httpClient.Timeout = 20 * time.Millisecond

	_, err := c.ReverseGeocode(context.Background(), 37.76, -122.41)
	require.Error(t, err)
}
