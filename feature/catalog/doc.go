// Package catalog owns manufacturers, products and rental companies.
//
// Models are GORM structs whose JSON tags form the API contract. The
// Repository does the persistence, including the transactional batch writer
// used by imports (it implements reconcile.Mutator and reconcile.BatchMutator).
// The Service enforces the catalog rules:
//
//   - a product's manufacturerId is derived from its id prefix and the
//     manufacturer must exist;
//   - a manufacturer cannot be deleted while products reference it;
//   - company coordinates come from the geocoder and are never (0,0);
//   - inventory lines reference known products with positive quantities,
//     duplicates are merged by summing.
//
// Every mutation invalidates the cached Snapshot used by search and import.
package catalog
