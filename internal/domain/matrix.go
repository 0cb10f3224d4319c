package domain

import (
	"context"
	"errors"
	"time"
)

// Metric selects which value is projected out of each matrix cell.
type Metric string

const (
	MetricTravelDistance Metric = "travelDistance"
	MetricTravelDuration Metric = "travelDuration"
)

// ErrUnknownMetric reports a metric outside the two recognized values.
// It is returned before any counter is touched or any request is issued.
var ErrUnknownMetric = errors.New(`metric must be "travelDistance" or "travelDuration"`)

// Valid reports whether the metric is one of the two recognized values.
func (m Metric) Valid() bool {
	return m == MetricTravelDistance || m == MetricTravelDuration
}

// PairResult holds both metrics for one origin/destination pair.
type PairResult struct {
	TravelDistance float64
	TravelDuration float64
}

// MatrixResponse is a routing provider's answer to a matrix request.
//
// StatusCode is the provider's application-level status (200 on success),
// not the HTTP transport status. Results is the flat row-major list of
// per-pair values: all destinations for origin 0, then origin 1, and so on.
type MatrixResponse struct {
	StatusCode        int
	StatusDescription string
	Results           []PairResult
}

// OK reports whether the provider answered with a success status.
func (r MatrixResponse) OK() bool { return r.StatusCode == 200 }

// MatrixComputed is the event published after a matrix lookup succeeds, for
// downstream route-optimization consumers.
type MatrixComputed struct {
	CoordinateCount int       `json:"coordinate_count"`
	Metric          Metric    `json:"metric"`
	TravelMode      string    `json:"travel_mode"`
	FromCache       bool      `json:"from_cache"`
	ComputedAt      time.Time `json:"computed_at"`
}

// MatrixRequester fetches pairwise travel results for a coordinate list.
// The same list is used for origins and destinations. Transport and decode
// failures are errors; a provider-level failure status is carried inside
// the response so callers can apply their own degradation policy.
type MatrixRequester interface {
	RequestMatrix(ctx context.Context, coordinates []string, travelMode string) (MatrixResponse, error)
}
