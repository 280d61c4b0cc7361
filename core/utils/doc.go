// Package utils provides common utility functions for the rental directory.
// It includes helpers for coercing loosely typed values (decoded JSON,
// CSV fields) into the concrete types used by the catalog.
package utils
