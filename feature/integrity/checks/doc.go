// Package checks holds the individual integrity checks. Each check is a
// plain function over a storage client, a database handle or a catalog
// snapshot so it can be run from the HTTP handlers and the CLI alike.
package checks
