package geocode

// Config holds configuration for the geocoding provider.
type Config struct {
	// BaseURL is the Nominatim compatible endpoint.
	BaseURL string `mapstructure:"base_url" default:"https://nominatim.openstreetmap.org"`
	// UserAgent identifies the application to the provider.
	UserAgent string `mapstructure:"user_agent" default:"rental-directory"`
	// Email is sent along with requests as required by the Nominatim usage policy.
	Email string `mapstructure:"email" default:""`
	// TimeoutSeconds bounds a single lookup.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"10"`
}
