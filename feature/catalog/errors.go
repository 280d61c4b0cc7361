package catalog

import "errors"

var (
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating an entity whose id is taken.
	ErrAlreadyExists = errors.New("already exists")
	// ErrManufacturerInUse blocks deleting a manufacturer that still has products.
	ErrManufacturerInUse = errors.New("manufacturer has products")
	// ErrProductInUse blocks deleting a product that is still in an inventory.
	ErrProductInUse = errors.New("product is referenced by inventory")
	// ErrInvalidID is returned for ids that do not match their format.
	ErrInvalidID = errors.New("invalid id")
	// ErrInvalid is returned for payloads that break a catalog rule.
	ErrInvalid = errors.New("invalid")
	// ErrGeocode wraps address lookup failures.
	ErrGeocode = errors.New("geocoding failed")
)
