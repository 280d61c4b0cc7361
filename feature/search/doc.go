// Package search is the filter engine behind the public map.
//
// FilteredRentalCompanies and FilteredProducts are pure functions over the
// catalog. State is an explicit, constructible filter selection that keeps
// products consistent with manufacturers, mirrors itself to the q,
// manufacturers and products query parameters and notifies subscribers
// synchronously. The HTTP handler builds a fresh State per request from the
// query string.
package search
