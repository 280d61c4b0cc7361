package geocode

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNoResult is returned when the provider finds no match for an address.
	ErrNoResult = errors.New("no geocoding result")
	// ErrZeroCoordinates is returned when the provider answers with (0,0).
	ErrZeroCoordinates = errors.New("geocoding returned zero coordinates")
)

// Coordinates is a WGS84 position.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// IsZero reports whether both coordinates are zero, which is treated as a failed lookup.
func (c Coordinates) IsZero() bool {
	return c.Latitude == 0 && c.Longitude == 0
}

// Geocoder resolves a formatted address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Coordinates, error)
}

// FormatAddress joins address parts as "street, postalCode city, country",
// skipping empty parts.
func FormatAddress(address, postalCode, city, country string) string {
	locality := strings.TrimSpace(strings.TrimSpace(postalCode) + " " + strings.TrimSpace(city))

	parts := make([]string, 0, 3)
	for _, part := range []string{strings.TrimSpace(address), locality, strings.TrimSpace(country)} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}

// Func adapts a function to the Geocoder interface.
type Func func(ctx context.Context, address string) (Coordinates, error)

// Geocode calls f.
func (f Func) Geocode(ctx context.Context, address string) (Coordinates, error) {
	return f(ctx, address)
}
