package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/isossa/routematrix/internal/adapter/http"
	"github.com/isossa/routematrix/internal/domain"
)

type mockService struct {
	readyErr    error
	coordinates []string
	resolveErr  error
	matrix      [][]float64
	matrixErr   error
	made        int
	saved       int

	lastCoordinates []string
	lastMetric      domain.Metric
	lastTravelMode  string
}

func (m *mockService) CheckReadiness(_ context.Context) error { return m.readyErr }

func (m *mockService) ResolveAddresses(_ context.Context, _ []*domain.Address) ([]string, error) {
	return m.coordinates, m.resolveErr
}

func (m *mockService) Matrix(_ context.Context, coordinates []string, metric domain.Metric, travelMode string) ([][]float64, error) {
	m.lastCoordinates = coordinates
	m.lastMetric = metric
	m.lastTravelMode = travelMode
	return m.matrix, m.matrixErr
}

func (m *mockService) Counters() (int, int) { return m.made, m.saved }

func newTestServer(svc *mockService) *httpadapter.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpadapter.NewServer(":0", svc, logger)
}

func doRequest(srv *httpadapter.Server, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := doRequest(newTestServer(&mockService{}), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := doRequest(newTestServer(&mockService{}), http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(&mockService{readyErr: fmt.Errorf("no operations completed yet")})
	rec := doRequest(srv, http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "no operations completed yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := doRequest(newTestServer(&mockService{}), http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRequestIDHeader(t *testing.T) {
	rec := doRequest(newTestServer(&mockService{}), http.MethodGet, "/healthz", "")

	id := rec.Header().Get("X-Request-Id")
	_, err := uuid.Parse(id)
	require.NoError(t, err)
}

func TestGeocode_Success(t *testing.T) {
	svc := &mockService{coordinates: []string{"30.2672, -97.7431"}}
	rec := doRequest(newTestServer(svc), http.MethodPost, "/v1/geocode",
		`{"addresses":[{"street":"600 Congress Ave","city":"Austin","state":"TX","country":"United States","postal_code":"78701"}]}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Coordinates []string `json:"coordinates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"30.2672, -97.7431"}, body.Coordinates)
}

func TestGeocode_EmptyAddressList(t *testing.T) {
	rec := doRequest(newTestServer(&mockService{}), http.MethodPost, "/v1/geocode", `{"addresses":[]}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGeocode_InvalidBody(t *testing.T) {
	rec := doRequest(newTestServer(&mockService{}), http.MethodPost, "/v1/geocode", `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGeocode_OutOfRangeCoordinates(t *testing.T) {
	svc := &mockService{resolveErr: fmt.Errorf("geocode result: %w", domain.ErrCoordinatesOutOfRange)}
	rec := doRequest(newTestServer(svc), http.MethodPost, "/v1/geocode",
		`{"addresses":[{"city":"Austin"}]}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGeocode_ProviderError(t *testing.T) {
	svc := &mockService{resolveErr: errors.New("geocode request: connection refused")}
	rec := doRequest(newTestServer(svc), http.MethodPost, "/v1/geocode",
		`{"addresses":[{"city":"Austin"}]}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestMatrix_Success(t *testing.T) {
	svc := &mockService{
		matrix: [][]float64{{0, 12.5}, {12.9, 0}},
		made:   2,
		saved:  1,
	}
	rec := doRequest(newTestServer(svc), http.MethodPost, "/v1/matrix",
		`{"coordinates":["30.2672, -97.7431","32.7767, -96.797"],"metric":"travelDistance","travel_mode":"walking"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.MetricTravelDistance, svc.lastMetric)
	assert.Equal(t, "walking", svc.lastTravelMode)

	var body struct {
		Matrix        [][]float64 `json:"matrix"`
		Degraded      bool        `json:"degraded"`
		RequestsMade  int         `json:"requests_made"`
		RequestsSaved int         `json:"requests_saved"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, [][]float64{{0, 12.5}, {12.9, 0}}, body.Matrix)
	assert.False(t, body.Degraded)
	assert.Equal(t, 2, body.RequestsMade)
	assert.Equal(t, 1, body.RequestsSaved)
}

func TestMatrix_UnknownMetric(t *testing.T) {
	svc := &mockService{matrixErr: domain.ErrUnknownMetric}
	rec := doRequest(newTestServer(svc), http.MethodPost, "/v1/matrix",
		`{"coordinates":["A","B"],"metric":"fuelCost"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMatrix_DegradedLookup(t *testing.T) {
	svc := &mockService{matrix: [][]float64{}, made: 1}
	rec := doRequest(newTestServer(svc), http.MethodPost, "/v1/matrix",
		`{"coordinates":["A","B"],"metric":"travelDuration"}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Matrix   [][]float64 `json:"matrix"`
		Degraded bool        `json:"degraded"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Matrix)
	assert.True(t, body.Degraded)
}

func TestMatrix_EmptyCoordinates(t *testing.T) {
	rec := doRequest(newTestServer(&mockService{}), http.MethodPost, "/v1/matrix",
		`{"coordinates":[],"metric":"travelDistance"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestMatrix_ProviderUnreachable(t *testing.T) {
	svc := &mockService{matrixErr: errors.New("matrix request: connection refused")}
	rec := doRequest(newTestServer(svc), http.MethodPost, "/v1/matrix",
		`{"coordinates":["A","B"],"metric":"travelDistance"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
