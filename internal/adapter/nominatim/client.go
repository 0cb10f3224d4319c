package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"github.com/isossa/routematrix/internal/domain"
	"github.com/isossa/routematrix/internal/observability"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Client implements domain.Geocoder using the Nominatim search API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a Nominatim geocoding client. Nominatim's usage policy
// requires an identifying User-Agent, so userAgent must be non-empty.
func NewClient(baseURL string, timeout time.Duration, userAgent string, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:   baseURL,
		userAgent: userAgent,
		logger:    logger,
		metrics:   metrics,
	}
}

// Geocode resolves the address fields to coordinates via /search. The first
// feature's coordinate pair is returned along with the full decoded response
// body as opaque metadata.
func (c *Client) Geocode(ctx context.Context, query domain.GeocodeQuery) (domain.GeocodeResult, error) {
	params := url.Values{
		"street":      {query.Street},
		"city":        {query.City},
		"state":       {query.State},
		"country":     {query.Country},
		"postalcode":  {query.PostalCode},
		"format":      {"geocodejson"},
		"polygon_svg": {"1"},
	}

	body, err := c.doRequest(ctx, c.baseURL+"/search?"+params.Encode())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodeResult{}, err
	}

	// geocodejson puts coordinates in (lon, lat) order.
	coords := gjson.GetBytes(body, "features.0.geometry.coordinates").Array()
	if len(coords) != 2 {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodeResult{}, fmt.Errorf("nominatim: no geocoding results for %v", query)
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodeResult{}, fmt.Errorf("decode geocode response: %w", err)
	}

	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	return domain.GeocodeResult{
		Lon: coords[0].Float(),
		Lat: coords[1].Float(),
		Raw: raw,
	}, nil
}

// Status probes /status.php and returns an error when the Nominatim server
// reports anything other than a healthy state.
func (c *Client) Status(ctx context.Context) error {
	body, err := c.doRequest(ctx, c.baseURL+"/status.php?format=json")
	if err != nil {
		return err
	}

	if code := gjson.GetBytes(body, "status").Int(); code != 0 {
		return fmt.Errorf("nominatim unavailable: status %d: %s", code, gjson.GetBytes(body, "message").String())
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read geocode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}
