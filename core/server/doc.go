// Package server holds the HTTP server configuration.
//
// While the main application entry point handles the server startup, this package
// defines the configuration structure and derived values for server settings.
//
// # Configuration
//
// The Config struct defines the HTTP port, the admin API key, the request body
// limit (imports can be large) and the CORS origins allowed to call the
// public search endpoints.
//
// # Usage
//
// This package is primarily used by the core/config package to embed server settings
// and by the start command when building the Fiber application.
package server
