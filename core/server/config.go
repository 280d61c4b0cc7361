package server

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the admin API.
	ApiKey string `mapstructure:"api_key" default:""`
	// BodyLimitMB caps request bodies; import payloads are the largest.
	BodyLimitMB int `mapstructure:"body_limit_mb" default:"16"`
	// AllowedOrigins is a comma separated CORS origin list for the map front end.
	AllowedOrigins string `mapstructure:"allowed_origins" default:"*"`
}

const defaultBodyLimitMB = 16

// BodyLimit returns the request body limit in bytes.
func (c Config) BodyLimit() int {
	mb := c.BodyLimitMB
	if mb <= 0 {
		mb = defaultBodyLimitMB
	}
	return mb * 1024 * 1024
}

// AdminEnabled reports whether an API key is configured. Without one every
// admin request is rejected.
func (c Config) AdminEnabled() bool {
	return c.ApiKey != ""
}
