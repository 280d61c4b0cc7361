// Package integrity provides system health checks.
//
// # Checks Provided
//
//   - Catalog: Verifies ids, product/manufacturer prefixes, inventory references and company coordinates.
//   - Structure: Checks if the imports/ folder exists in the storage bucket.
//   - Archives: Reports archived imports that do not follow imports/YYYY/MM/DD/<id>.<format>.
//   - Server: Validates that the database schema matches the catalog models (columns, types).
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/catalog : Runs catalog check.
//   - GET /integrity/structure : Runs structure check (supports ?fix=true).
//   - GET /integrity/archives : Runs archive check.
//   - GET /integrity/server : Runs server schema check.
package integrity
