package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isossa/routematrix/internal/observability"
)

// --- mock requester ---

type mockRequester struct {
	response   MatrixResponse
	err        error
	calls      int
	lastCoords []string
	lastMode   string
}

func (m *mockRequester) RequestMatrix(_ context.Context, coordinates []string, travelMode string) (MatrixResponse, error) {
	m.calls++
	m.lastCoords = append([]string(nil), coordinates...)
	m.lastMode = travelMode
	return m.response, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCache(requester MatrixRequester) *MatrixCache {
	return NewMatrixCache(requester, discardLogger(), observability.NewMetricsForTesting())
}

// twoByTwoResponse covers 2 coordinates: 4 flat results in row-major order.
func twoByTwoResponse() MatrixResponse {
	return MatrixResponse{
		StatusCode:        200,
		StatusDescription: "OK",
		Results: []PairResult{
			{TravelDistance: 0, TravelDuration: 0},
			{TravelDistance: 12.5, TravelDuration: 18.1},
			{TravelDistance: 12.9, TravelDuration: 19.4},
			{TravelDistance: 0, TravelDuration: 0},
		},
	}
}

// --- tests ---

func TestMatrixCache_ReshapeRowMajor(t *testing.T) {
	req := &mockRequester{response: twoByTwoResponse()}
	cache := newTestCache(req)
	coords := []string{"30.2672, -97.7431", "32.7767, -96.797"}

	distances, err := cache.GetMatrix(context.Background(), coords, MetricTravelDistance, "driving")
	require.NoError(t, err)

	require.Len(t, distances, 2)
	assert.Equal(t, []float64{0, 12.5}, distances[0])
	assert.Equal(t, []float64{12.9, 0}, distances[1])

	durations, err := cache.GetMatrix(context.Background(), coords, MetricTravelDuration, "driving")
	require.NoError(t, err)

	require.Len(t, durations, 2)
	assert.Equal(t, []float64{0, 18.1}, durations[0])
	assert.Equal(t, []float64{19.4, 0}, durations[1])

	assert.Equal(t, "driving", req.lastMode)
}

func TestMatrixCache_HitOnReorderedSet(t *testing.T) {
	req := &mockRequester{response: MatrixResponse{StatusCode: 200, Results: make([]PairResult, 9)}}
	cache := newTestCache(req)

	_, err := cache.GetMatrix(context.Background(), []string{"A", "B", "C"}, MetricTravelDistance, "driving")
	require.NoError(t, err)

	_, err = cache.GetMatrix(context.Background(), []string{"C", "A", "B"}, MetricTravelDistance, "driving")
	require.NoError(t, err)

	assert.Equal(t, 1, req.calls, "reordered set must reuse the cached response")

	made, saved := cache.Counters()
	assert.Equal(t, 2, made, "made counts attempts, not network calls")
	assert.Equal(t, 1, saved)
}

func TestMatrixCache_HitIgnoresDuplicates(t *testing.T) {
	req := &mockRequester{response: twoByTwoResponse()}
	cache := newTestCache(req)

	_, err := cache.GetMatrix(context.Background(), []string{"A", "B"}, MetricTravelDistance, "driving")
	require.NoError(t, err)

	_, err = cache.GetMatrix(context.Background(), []string{"B", "A", "B"}, MetricTravelDistance, "driving")
	require.NoError(t, err)

	assert.Equal(t, 1, req.calls, "duplicates do not change the requested set")
}

func TestMatrixCache_MissOnChangedSet(t *testing.T) {
	req := &mockRequester{response: MatrixResponse{StatusCode: 200, Results: make([]PairResult, 9)}}
	cache := newTestCache(req)

	_, err := cache.GetMatrix(context.Background(), []string{"A", "B", "C"}, MetricTravelDistance, "driving")
	require.NoError(t, err)

	_, err = cache.GetMatrix(context.Background(), []string{"A", "B", "D"}, MetricTravelDistance, "driving")
	require.NoError(t, err)

	assert.Equal(t, 2, req.calls)
	assert.Equal(t, []string{"A", "B", "D"}, req.lastCoords)

	made, saved := cache.Counters()
	assert.Equal(t, 2, made)
	assert.Equal(t, 0, saved)
}

func TestMatrixCache_UnknownMetric(t *testing.T) {
	req := &mockRequester{response: twoByTwoResponse()}
	cache := newTestCache(req)

	matrix, err := cache.GetMatrix(context.Background(), []string{"A", "B"}, Metric("walkingDistance"), "driving")
	require.ErrorIs(t, err, ErrUnknownMetric)
	assert.Nil(t, matrix)

	assert.Equal(t, 0, req.calls, "unknown metric must not reach the provider")
	made, saved := cache.Counters()
	assert.Equal(t, 0, made)
	assert.Equal(t, 0, saved)
}

func TestMatrixCache_DegradedResponse(t *testing.T) {
	req := &mockRequester{response: MatrixResponse{
		StatusCode:        401,
		StatusDescription: "Unauthorized",
	}}
	cache := newTestCache(req)
	coords := []string{"A", "B"}

	matrix, err := cache.GetMatrix(context.Background(), coords, MetricTravelDistance, "driving")
	require.NoError(t, err, "non-success provider status degrades, it does not fail")
	assert.Empty(t, matrix)

	// The failing response is cached, so an identical request refetches.
	_, err = cache.GetMatrix(context.Background(), coords, MetricTravelDistance, "driving")
	require.NoError(t, err)
	assert.Equal(t, 2, req.calls)

	made, saved := cache.Counters()
	assert.Equal(t, 2, made)
	assert.Equal(t, 0, saved)
}

func TestMatrixCache_TransportErrorPropagates(t *testing.T) {
	wantErr := errors.New("dial tcp: connection refused")
	req := &mockRequester{err: wantErr}
	cache := newTestCache(req)
	coords := []string{"A", "B"}

	_, err := cache.GetMatrix(context.Background(), coords, MetricTravelDistance, "driving")
	require.ErrorIs(t, err, wantErr)

	// A transport failure leaves no cached response behind; the next
	// attempt goes back to the provider.
	req.err = nil
	req.response = twoByTwoResponse()

	matrix, err := cache.GetMatrix(context.Background(), coords, MetricTravelDistance, "driving")
	require.NoError(t, err)
	assert.Len(t, matrix, 2)
	assert.Equal(t, 2, req.calls)
}

func TestSameSet(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want bool
	}{
		{"identical", []string{"A", "B"}, []string{"A", "B"}, true},
		{"reordered", []string{"A", "B", "C"}, []string{"C", "B", "A"}, true},
		{"duplicates ignored", []string{"A", "A", "B"}, []string{"B", "A"}, true},
		{"different element", []string{"A", "B"}, []string{"A", "C"}, false},
		{"subset", []string{"A", "B"}, []string{"A"}, false},
		{"both empty", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sameSet(tt.a, tt.b))
		})
	}
}
