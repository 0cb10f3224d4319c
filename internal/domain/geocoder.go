package domain

import "context"

// GeocodeQuery carries the address fields sent to a geocoding provider.
type GeocodeQuery struct {
	Street     string
	City       string
	State      string
	Country    string
	PostalCode string
}

// GeocodeResult is the first match returned by a geocoding provider.
// Raw holds the provider's full response payload as decoded JSON, so callers
// keep access to provider-specific fields (confidence, bounding boxes, ...)
// without the domain depending on any one provider's schema.
type GeocodeResult struct {
	Lat float64
	Lon float64
	Raw map[string]any
}

// Geocoder resolves an address to geographic coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query GeocodeQuery) (GeocodeResult, error)
}
