package ids

import "regexp"

var (
	manufacturerPattern    = regexp.MustCompile(`^[0-9]{3}$`)
	strictProductPattern   = regexp.MustCompile(`^([0-9]{3})-([A-Za-z0-9]{4})-([A-Za-z0-9]+)$`)
	flexibleProductPattern = regexp.MustCompile(`^([0-9]{3})[-_]?([A-Za-z0-9]{4})[-_]?([A-Za-z0-9]+)$`)
	rentalCompanyPattern   = regexp.MustCompile(`^K[0-9]{4,}$`)
)

// ValidateManufacturerID reports whether id is exactly three ASCII digits.
func ValidateManufacturerID(id string) bool {
	return manufacturerPattern.MatchString(id)
}

// ValidateProductID reports whether id is a product id in either the strict
// dashed form or the flexible separator form.
func ValidateProductID(id string) bool {
	return strictProductPattern.MatchString(id) || flexibleProductPattern.MatchString(id)
}

// IsCanonicalProductID reports whether id is already in the dashed form.
func IsCanonicalProductID(id string) bool {
	return strictProductPattern.MatchString(id)
}

// ValidateRentalCompanyID reports whether id is "K" followed by four or more digits.
func ValidateRentalCompanyID(id string) bool {
	return rentalCompanyPattern.MatchString(id)
}

// NormalizeProductID rewrites a flexible product id into its canonical
// dashed form. Input that matches no known shape is returned unchanged, so
// callers that care must validate separately.
func NormalizeProductID(id string) string {
	m := flexibleProductPattern.FindStringSubmatch(id)
	if m == nil {
		return id
	}
	return GenerateProductID(m[1], m[2], m[3])
}

// ExtractManufacturerID returns the manufacturer segment of a product id.
// ok is false when id does not match the flexible product pattern.
func ExtractManufacturerID(productID string) (manufacturerID string, ok bool) {
	m := flexibleProductPattern.FindStringSubmatch(productID)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// GenerateProductID joins the three product id segments.
func GenerateProductID(manufacturerID, middle, suffix string) string {
	return manufacturerID + "-" + middle + "-" + suffix
}

// ReplaceManufacturer returns productID with its manufacturer segment swapped
// for manufacturerID, in canonical form. ok is false when productID is not a
// product id.
func ReplaceManufacturer(productID, manufacturerID string) (string, bool) {
	m := flexibleProductPattern.FindStringSubmatch(productID)
	if m == nil {
		return productID, false
	}
	return GenerateProductID(manufacturerID, m[2], m[3]), true
}
