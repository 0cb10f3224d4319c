// Package domain models postal addresses, geocoding results, and pairwise
// travel distance/duration matrices.
//
// # Addresses and geocoding
//
// An [Address] carries five free-text fields (street, city, state, country,
// postal code). The postal code is text, not a number, so leading zeros and
// international formats survive round-trips. Coordinates start out as NaN and
// are filled in exactly once by [Address.Resolve], which asks a [Geocoder]
// for the first matching result. Geocoding providers return coordinates in
// (longitude, latitude) order; the domain stores and exposes them as
// (latitude, longitude).
//
// Resolved coordinates must satisfy -90 <= lat <= 90 and -180 <= lon <= 180.
// A provider response outside those bounds is malformed upstream data and
// fails with [ErrCoordinatesOutOfRange]; values are never clamped.
//
// # Distance matrices
//
// A [MatrixRequester] fetches pairwise results for a coordinate list, using
// the same list for origins and destinations. Providers return the pairs as
// a flat list in row-major order: all destinations for origin 0, then origin
// 1, and so on. [MatrixCache] reshapes that list into a square grid and
// projects out one metric ("travelDistance" or "travelDuration") per cell.
//
// The cache remembers the last upstream response and reuses it whenever the
// requested coordinate list is the same *set* as the previous one. Order and
// duplicates are ignored on purpose: travel distance between a fixed set of
// points does not depend on how the list is ordered, and matrix calls are
// billed per request.
package domain
