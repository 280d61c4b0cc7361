// Package geocode resolves postal addresses into coordinates.
//
// The Geocoder interface is what the catalog and importer depend on; the
// Nominatim type implements it against an OpenStreetMap Nominatim server.
// A result of (0,0) is never accepted and is reported as ErrZeroCoordinates.
package geocode
