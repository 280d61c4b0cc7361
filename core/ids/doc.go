// Package ids validates and normalizes the identifiers used across the
// rental directory.
//
// Identifiers carry structure:
//   - Manufacturer: exactly three digits ("559").
//   - Product: "<manufacturer>-<4 alphanumerics>-<alphanumeric suffix>"
//     ("559-1065-2012"). The manufacturer id is always the first segment.
//   - Rental company: "K" followed by at least four digits ("K1234").
//
// Product ids are accepted in a flexible form where the separators may be
// "-", "_" or missing entirely ("559_1065_2012", "55910652012").
// NormalizeProductID rewrites any flexible form to the canonical dashed one.
//
// Every function in this package is total: invalid input yields false or an
// empty result, never a panic.
package ids
