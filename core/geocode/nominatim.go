package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Nominatim queries an OpenStreetMap Nominatim server.
type Nominatim struct {
	baseURL   string
	userAgent string
	email     string
	client    *http.Client
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NewNominatim creates a Nominatim client from configuration.
func NewNominatim(cfg Config) *Nominatim {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 10
	}
	return &Nominatim{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		email:     cfg.Email,
		client:    &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}
}

// Geocode returns the coordinates of the best match for address.
func (n *Nominatim) Geocode(ctx context.Context, address string) (Coordinates, error) {
	if strings.TrimSpace(address) == "" {
		return Coordinates{}, ErrNoResult
	}

	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("limit", "1")
	if n.email != "" {
		params.Set("email", n.email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("failed to build geocoding request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf("geocoding request failed with status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return Coordinates{}, fmt.Errorf("failed to decode geocoding response: %w", err)
	}
	if len(places) == 0 {
		return Coordinates{}, ErrNoResult
	}

	coords, err := parsePlace(places[0])
	if err != nil {
		return Coordinates{}, err
	}
	if coords.IsZero() {
		return Coordinates{}, ErrZeroCoordinates
	}
	return coords, nil
}

func parsePlace(place nominatimPlace) (Coordinates, error) {
	lat, err := decimal.NewFromString(place.Lat)
	if err != nil {
		return Coordinates{}, fmt.Errorf("invalid latitude %q: %w", place.Lat, err)
	}
	lon, err := decimal.NewFromString(place.Lon)
	if err != nil {
		return Coordinates{}, fmt.Errorf("invalid longitude %q: %w", place.Lon, err)
	}
	if lat.Abs().GreaterThan(decimal.NewFromInt(90)) || lon.Abs().GreaterThan(decimal.NewFromInt(180)) {
		return Coordinates{}, fmt.Errorf("coordinates out of range: %s,%s", place.Lat, place.Lon)
	}

	latitude, _ := lat.Round(7).Float64()
	longitude, _ := lon.Round(7).Float64()
	return Coordinates{Latitude: latitude, Longitude: longitude}, nil
}
