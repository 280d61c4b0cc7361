// Package config provides configuration management for the rental directory.
//
// It loads an optional .env file with godotenv and then reads environment
// variables through Viper. Every leaf field carries `mapstructure` and
// `default` tags; defaults are registered by reflection so that AutomaticEnv
// can resolve nested keys (SERVER_PORT -> server.port).
//
// # Configuration Structure
//
//   - Server: HTTP port, admin API key, body limit, CORS origins
//   - Database: driver (mysql or sqlite) and connection details
//   - Storage: S3/MinIO credentials and bucket for import archives
//   - Log: logging level and format
//   - Geocoder: Nominatim endpoint and identification
//   - Import: session backend (memory or redis), session TTL and size, snapshot TTL
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
