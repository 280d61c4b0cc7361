package checks

import (
	"fmt"

	"rental-directory/core/ids"
	"rental-directory/feature/catalog"
)

// Issue is one inconsistency found in the catalog.
type Issue struct {
	Entity  string `json:"entity"`
	ID      string `json:"id"`
	Problem string `json:"problem"`
}

// CatalogReport is the result of a catalog consistency check.
type CatalogReport struct {
	Manufacturers int     `json:"manufacturers"`
	Products      int     `json:"products"`
	Companies     int     `json:"companies"`
	Matched       bool    `json:"matched"`
	Issues        []Issue `json:"issues"`
}

// CheckCatalog verifies the invariants the write paths are supposed to keep.
// Rows written by other tools or older versions can still break them.
func CheckCatalog(snap *catalog.Snapshot) *CatalogReport {
	report := &CatalogReport{
		Manufacturers: len(snap.Manufacturers),
		Products:      len(snap.Products),
		Companies:     len(snap.Companies),
		Issues:        []Issue{},
	}
	add := func(entity, id, format string, args ...any) {
		report.Issues = append(report.Issues, Issue{Entity: entity, ID: id, Problem: fmt.Sprintf(format, args...)})
	}

	for _, m := range snap.ManufacturerList() {
		if !ids.ValidateManufacturerID(m.ID) {
			add("manufacturer", m.ID, "invalid manufacturer id")
		}
	}

	for _, p := range snap.ProductList() {
		if !ids.IsCanonicalProductID(p.ID) {
			add("product", p.ID, "product id is not in canonical form")
		}
		if prefix, ok := ids.ExtractManufacturerID(p.ID); !ok || prefix != p.ManufacturerID {
			add("product", p.ID, "manufacturer_id %q does not match the id prefix", p.ManufacturerID)
		}
		if _, ok := snap.Manufacturers[p.ManufacturerID]; !ok {
			add("product", p.ID, "manufacturer %s does not exist", p.ManufacturerID)
		}
	}

	for _, c := range snap.CompanyList() {
		if !ids.ValidateRentalCompanyID(c.ID) {
			add("company", c.ID, "invalid rental company id")
		}
		if !catalog.ValidCountry(c.Country) {
			add("company", c.ID, "country %q is not a 2-letter code", c.Country)
		}
		if c.Latitude == 0 && c.Longitude == 0 {
			add("company", c.ID, "missing coordinates")
		}
		for _, item := range c.Inventory {
			if _, ok := snap.Products[item.ProductID]; !ok {
				add("company", c.ID, "inventory references unknown product %s", item.ProductID)
			}
			if item.Quantity <= 0 {
				add("company", c.ID, "non-positive quantity %d for %s", item.Quantity, item.ProductID)
			}
		}
	}

	report.Matched = len(report.Issues) == 0
	return report
}
