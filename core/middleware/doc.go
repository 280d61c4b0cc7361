// Package middleware groups the Fiber middleware shared by every feature.
//
//   - auth: checks the X-API-Key header (or a Bearer token) against
//     SERVER_API_KEY. The start command installs it after the public search
//     routes, so only catalog, import and integrity routes require a key.
//   - rayid: tags each request with a RayID, echoed in the X-Ray-ID response
//     header and attached to log lines through logger.WithRayID.
//
// CORS and body limits come from Fiber itself and are configured in the
// start command from server.Config.
package middleware
