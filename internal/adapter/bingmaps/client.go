package bingmaps

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/isossa/routematrix/internal/domain"
	"github.com/isossa/routematrix/internal/observability"
)

const defaultBaseURL = "https://dev.virtualearth.net"

// Client implements domain.MatrixRequester using the Bing Maps
// DistanceMatrix API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a Bing Maps distance-matrix client. The API key is
// passed through unchanged on every request.
func NewClient(baseURL string, apiKey string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  logger,
		metrics: metrics,
	}
}

// RequestMatrix asks for the pairwise matrix over the coordinate list. The
// same list is sent as both origins and destinations, so the provider
// answers with one flat row-major result per coordinate pair.
//
// A provider-level failure status (carried in the response body) is not an
// error: it is returned inside the MatrixResponse so the cache can apply
// its degraded-response policy. Only transport and decode failures error.
func (c *Client) RequestMatrix(ctx context.Context, coordinates []string, travelMode string) (domain.MatrixResponse, error) {
	joined := strings.Join(coordinates, "; ")
	params := url.Values{
		"origins":      {joined},
		"destinations": {joined},
		"travelMode":   {travelMode},
		"key":          {c.apiKey},
	}

	fullURL := c.baseURL + "/REST/v1/Routes/DistanceMatrix?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.MatrixResponse{}, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.MatrixAPIRequests.WithLabelValues("error").Inc()
		return domain.MatrixResponse{}, fmt.Errorf("matrix request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.MatrixAPIDuration.Observe(time.Since(start).Seconds())

	// Bing reports failures in the body's statusCode as well as the HTTP
	// status, so the body is decoded regardless of the transport status.
	var decoded response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.metrics.MatrixAPIRequests.WithLabelValues("error").Inc()
		return domain.MatrixResponse{}, fmt.Errorf("decode matrix response (http %d): %w", resp.StatusCode, err)
	}

	out := domain.MatrixResponse{
		StatusCode:        decoded.StatusCode,
		StatusDescription: decoded.StatusDescription,
	}

	if !out.OK() {
		c.metrics.MatrixAPIRequests.WithLabelValues("error").Inc()
		return out, nil
	}

	if len(decoded.ResourceSets) == 0 || len(decoded.ResourceSets[0].Resources) == 0 {
		c.metrics.MatrixAPIRequests.WithLabelValues("error").Inc()
		return domain.MatrixResponse{}, fmt.Errorf("malformed matrix response: no resource sets")
	}

	results := decoded.ResourceSets[0].Resources[0].Results
	out.Results = make([]domain.PairResult, len(results))
	for i, r := range results {
		out.Results[i] = domain.PairResult{
			TravelDistance: r.TravelDistance,
			TravelDuration: r.TravelDuration,
		}
	}

	c.metrics.MatrixAPIRequests.WithLabelValues("success").Inc()
	return out, nil
}

// Bing Maps DistanceMatrix response types.

type response struct {
	StatusCode        int           `json:"statusCode"`
	StatusDescription string        `json:"statusDescription"`
	ResourceSets      []resourceSet `json:"resourceSets"`
}

type resourceSet struct {
	Resources []resource `json:"resources"`
}

type resource struct {
	Results []pairResult `json:"results"`
}

type pairResult struct {
	OriginIndex      int     `json:"originIndex"`
	DestinationIndex int     `json:"destinationIndex"`
	TravelDistance   float64 `json:"travelDistance"`
	TravelDuration   float64 `json:"travelDuration"`
}
