package domain

import (
	"context"
	"log/slog"
	"sync"

	"github.com/isossa/routematrix/internal/observability"
)

// MatrixCache wraps a MatrixRequester and reuses the previous upstream
// response when the requested coordinate set is unchanged.
//
// The reuse condition is deliberate policy: the cached response is valid
// only when it exists, its status is a success, and the new coordinate list
// is the same unordered set as the previous one. Reordering the same
// coordinates is a hit; adding, removing, or changing any coordinate is a
// miss, as is any cached failure status.
//
// A single mutex guards the three pieces of state (last requested set, last
// response, counters) as one unit, so the cache is safe for concurrent use.
type MatrixCache struct {
	requester MatrixRequester
	logger    *slog.Logger
	metrics   *observability.Metrics

	mu            sync.Mutex
	lastRequested []string
	lastResponse  *MatrixResponse
	requestsMade  int
	requestsSaved int
}

// NewMatrixCache creates a cache around the given requester.
func NewMatrixCache(requester MatrixRequester, logger *slog.Logger, metrics *observability.Metrics) *MatrixCache {
	return &MatrixCache{
		requester: requester,
		logger:    logger,
		metrics:   metrics,
	}
}

// GetMatrix returns the square matrix of the requested metric, one row per
// origin coordinate and one column per destination coordinate.
//
// An unrecognized metric fails with ErrUnknownMetric before any request or
// counter side effect. Transport errors from the requester propagate
// unmodified. A provider-level failure status yields an empty matrix and a
// logged diagnostic, not an error: the caller detects it by the empty
// result, and the failing response is still cached so the next call
// refetches.
func (c *MatrixCache) GetMatrix(ctx context.Context, coordinates []string, metric Metric, travelMode string) ([][]float64, error) {
	if !metric.Valid() {
		return nil, ErrUnknownMetric
	}

	response, err := c.fetch(ctx, coordinates, travelMode)
	if err != nil {
		return nil, err
	}

	grid := c.reshape(response, len(coordinates))

	matrix := make([][]float64, len(grid))
	for i, row := range grid {
		cells := make([]float64, len(row))
		for j, pair := range row {
			if metric == MetricTravelDistance {
				cells[j] = pair.TravelDistance
			} else {
				cells[j] = pair.TravelDuration
			}
		}
		matrix[i] = cells
	}
	return matrix, nil
}

// Counters returns how many matrix lookups were attempted and how many of
// them were served from the cached response.
func (c *MatrixCache) Counters() (made, saved int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestsMade, c.requestsSaved
}

// fetch returns the cached response when it is still valid, otherwise asks
// the requester for a fresh one. The made counter counts attempts, not
// network calls, so it advances on every invocation.
func (c *MatrixCache) fetch(ctx context.Context, coordinates []string, travelMode string) (MatrixResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requestsMade++
	c.metrics.MatrixRequests.Inc()

	if c.lastResponse != nil && c.lastResponse.OK() && sameSet(c.lastRequested, coordinates) {
		c.requestsSaved++
		c.metrics.MatrixRequestsSaved.Inc()
		return *c.lastResponse, nil
	}

	response, err := c.requester.RequestMatrix(ctx, coordinates, travelMode)
	if err != nil {
		// Transport failure: leave the cached set and response untouched so
		// the next attempt refetches.
		return MatrixResponse{}, err
	}

	c.lastRequested = append([]string(nil), coordinates...)
	c.lastResponse = &response
	return response, nil
}

// reshape groups the flat row-major result list into rows of n cells, one
// row per origin. A provider failure status produces no rows and a logged
// diagnostic naming the status code and description.
func (c *MatrixCache) reshape(response MatrixResponse, n int) [][]PairResult {
	if !response.OK() {
		c.logger.Warn("matrix request degraded",
			"status_code", response.StatusCode,
			"status_description", response.StatusDescription,
		)
		c.metrics.MatrixDegraded.Inc()
		return nil
	}
	if n == 0 {
		return nil
	}

	var grid [][]PairResult
	row := make([]PairResult, 0, n)
	for _, pair := range response.Results {
		row = append(row, pair)
		if len(row) == n {
			grid = append(grid, row)
			row = make([]PairResult, 0, n)
		}
	}
	return grid
}

// sameSet compares two coordinate lists as unordered sets, ignoring
// duplicates.
func sameSet(a, b []string) bool {
	as := make(map[string]struct{}, len(a))
	for _, s := range a {
		as[s] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, s := range b {
		bs[s] = struct{}{}
	}
	if len(as) != len(bs) {
		return false
	}
	for s := range as {
		if _, ok := bs[s]; !ok {
			return false
		}
	}
	return true
}
