package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wayfinder/internal/modules/plan"
)

// newTestServer wires a server with no provider adapters, so every plan
// resolves through the synthetic fallback and no network is touched.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := plan.NewService(nil, nil, plan.Config{}, nil)
	srv := NewServer(ServerDeps{Plan: svc})
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func planBody(originLat, originLng, destLat, destLng float64) []byte {
	return []byte(fmt.Sprintf(
		`{"origin":{"latitude":%g,"longitude":%g},"destination":{"latitude":%g,"longitude":%g}}`,
		originLat, originLng, destLat, destLng))
}

func TestPlanEndpointReturnsOptionsAndAgents(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/plan", "application/json",
		bytes.NewReader(planBody(37.7749, -122.4194, 37.8044, -122.2712)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		State   string                   `json:"state"`
		Options []plan.NormalizedOption  `json:"options"`
		Agents  plan.Agents              `json:"agents"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "degraded", body.State)
	assert.Len(t, body.Options, 5)
	require.NotNil(t, body.Agents.Speed)
	require.NotNil(t, body.Agents.Cost)
	require.NotNil(t, body.Agents.Eco)
	require.NotNil(t, body.Agents.Safety)
}

func TestPlanEndpointRejectsMissingFields(t *testing.T) {
	ts := newTestServer(t)

	cases := []string{
		`{}`,
		`{"origin":{"latitude":37.7,"longitude":-122.4}}`,
		`{"origin":{"latitude":37.7},"destination":{"latitude":37.8,"longitude":-122.2}}`,
		`not json`,
	}
	for _, body := range cases {
		resp, err := http.Post(ts.URL+"/api/plan", "application/json", bytes.NewReader([]byte(body)))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body=%s", body)
	}
}

func TestPlanEndpointAcceptsZeroCoordinates(t *testing.T) {
	// Null Island is a legal trip endpoint; zero must not read as absent.
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/plan", "application/json",
		bytes.NewReader(planBody(0, 0, 37.8044, -122.2712)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPlanEndpointRejectsOutOfRangeCoordinates(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/plan", "application/json",
		bytes.NewReader(planBody(99, 0, 37.8044, -122.2712)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRoutesEndpointSortsFastestFirst(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/routes", "application/json",
		bytes.NewReader(planBody(37.7749, -122.4194, 37.8044, -122.2712)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Routes []plan.Route `json:"routes"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Routes, 5)
	for i, r := range body.Routes {
		assert.NotEmpty(t, r.Polyline)
		assert.NotEmpty(t, r.Segments)
		if i > 0 {
			assert.GreaterOrEqual(t, r.TotalDurationSeconds, body.Routes[i-1].TotalDurationSeconds)
		}
	}
}

func TestSummaryEndpointUnavailableWithoutSummarizer(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/plan/summary", "application/json",
		bytes.NewReader(planBody(37.7749, -122.4194, 37.8044, -122.2712)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestDiagnosticsEndpointUnavailableWithoutStore(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/diagnostics/failures")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequestIDHeaderIsEchoed(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "abc-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-Id"))

	resp2, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.NotEmpty(t, resp2.Header.Get("X-Request-Id"))
}
