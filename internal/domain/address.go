package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrCoordinatesOutOfRange reports a geocoding result outside the valid
// latitude/longitude bounds. It signals malformed upstream data and is never
// retried.
var ErrCoordinatesOutOfRange = errors.New("coordinates out of range")

// Address is a postal address plus, once resolved, its geographic
// coordinates and the geocoder's full response metadata.
//
// All five text fields are optional. Latitude and longitude are NaN until
// Resolve succeeds. The zero metadata map marks the address as unresolved;
// Resolve is a no-op afterwards, so resolving is idempotent.
type Address struct {
	street     string
	city       string
	state      string
	country    string
	postalCode string

	latitude   float64
	longitude  float64
	info       map[string]any
	resolvedAt time.Time
}

// NewAddress creates an unresolved address from its raw fields.
func NewAddress(street, city, state, country, postalCode string) *Address {
	return &Address{
		street:     street,
		city:       city,
		state:      state,
		country:    country,
		postalCode: postalCode,
		latitude:   math.NaN(),
		longitude:  math.NaN(),
	}
}

func (a *Address) Street() string     { return a.street }
func (a *Address) City() string       { return a.city }
func (a *Address) State() string      { return a.state }
func (a *Address) Country() string    { return a.country }
func (a *Address) PostalCode() string { return a.postalCode }

// Coordinates returns the resolved (latitude, longitude) pair. Both values
// are NaN until Resolve has succeeded.
func (a *Address) Coordinates() (lat, lon float64) {
	return a.latitude, a.longitude
}

// Info returns the geocoder metadata stored by Resolve. Nil until resolved.
func (a *Address) Info() map[string]any { return a.info }

// ResolvedAt returns when Resolve stored the coordinates. Zero until resolved.
func (a *Address) ResolvedAt() time.Time { return a.resolvedAt }

// Resolved reports whether geocoding has already populated this address.
func (a *Address) Resolved() bool { return len(a.info) > 0 }

// Query returns the geocoding query for this address.
func (a *Address) Query() GeocodeQuery {
	return GeocodeQuery{
		Street:     a.street,
		City:       a.city,
		State:      a.state,
		Country:    a.country,
		PostalCode: a.postalCode,
	}
}

func (a *Address) String() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s", a.street, a.city, a.state, a.country, a.postalCode)
}

// Resolve geocodes the address and stores latitude, longitude, and the
// provider metadata. It is a no-op when the address is already resolved.
//
// A result outside the valid coordinate bounds fails with
// ErrCoordinatesOutOfRange and stores nothing. Provider errors propagate
// unmodified.
func (a *Address) Resolve(ctx context.Context, geocoder Geocoder) error {
	if a.Resolved() {
		return nil
	}

	result, err := geocoder.Geocode(ctx, a.Query())
	if err != nil {
		return err
	}

	if result.Lat < -90 || result.Lat > 90 {
		return fmt.Errorf("geocode %q: latitude %v: %w", a, result.Lat, ErrCoordinatesOutOfRange)
	}
	if result.Lon < -180 || result.Lon > 180 {
		return fmt.Errorf("geocode %q: longitude %v: %w", a, result.Lon, ErrCoordinatesOutOfRange)
	}

	a.latitude = result.Lat
	a.longitude = result.Lon
	a.info = result.Raw
	a.resolvedAt = clock.Now()
	return nil
}

// ResolveAll resolves each address in turn and returns "<lat>, <lon>"
// coordinate strings in input order. The first failure aborts the batch;
// there is no partial-results contract.
func ResolveAll(ctx context.Context, geocoder Geocoder, addresses []*Address) ([]string, error) {
	coordinates := make([]string, 0, len(addresses))
	for _, address := range addresses {
		if err := address.Resolve(ctx, geocoder); err != nil {
			return nil, err
		}
		lat, lon := address.Coordinates()
		coordinates = append(coordinates, fmt.Sprintf("%v, %v", lat, lon))
	}
	return coordinates, nil
}
