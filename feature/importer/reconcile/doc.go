// Package reconcile turns parsed import records into a catalog write plan.
//
// Planning runs in stages: validation, manufacturer resolution, product
// creation and company create/update with geocoding. Unknown manufacturers
// without a resolution suspend the import and are reported as missing
// entities together with a session id. The resulting plan is executed by
// the catalog repository in a single transaction.
package reconcile
