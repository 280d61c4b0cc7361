package search

import (
	"sort"
	"strings"

	"rental-directory/core/ids"
	"rental-directory/feature/catalog"

	"golang.org/x/text/cases"
)

// ProductIndex resolves inventory lines to their product and manufacturer.
type ProductIndex struct {
	products      map[string]catalog.Product
	manufacturers map[string]catalog.Manufacturer
}

// NewProductIndex indexes products and manufacturers by id.
func NewProductIndex(products []catalog.Product, manufacturers []catalog.Manufacturer) ProductIndex {
	ix := ProductIndex{
		products:      make(map[string]catalog.Product, len(products)),
		manufacturers: make(map[string]catalog.Manufacturer, len(manufacturers)),
	}
	for _, p := range products {
		ix.products[p.ID] = p
	}
	for _, m := range manufacturers {
		ix.manufacturers[m.ID] = m
	}
	return ix
}

// ManufacturerOf returns the manufacturer of a product. Unknown products fall
// back to the id prefix.
func (ix ProductIndex) ManufacturerOf(productID string) (string, bool) {
	if p, ok := ix.products[productID]; ok {
		return p.ManufacturerID, true
	}
	return ids.ExtractManufacturerID(productID)
}

// Label returns "product name manufacturer name" for text matching.
func (ix ProductIndex) Label(productID string) string {
	p, ok := ix.products[productID]
	if !ok {
		return ""
	}
	return strings.TrimSpace(p.Name + " " + ix.manufacturers[p.ManufacturerID].Name)
}

// FilteredRentalCompanies returns the companies matching every active filter,
// sorted by the summed quantity of matching inventory lines, highest first.
// The input order is kept between equal sums.
func FilteredRentalCompanies(companies []catalog.RentalCompany, filters Filters, index ProductIndex) []catalog.RentalCompany {
	fold := cases.Fold()
	text := fold.String(strings.TrimSpace(filters.Text))
	manufacturers := toSet(filters.Manufacturers)
	products := toSet(filters.Products)

	type scored struct {
		company catalog.RentalCompany
		score   int
	}
	var matched []scored

	for _, c := range companies {
		if text != "" && !strings.Contains(fold.String(haystack(c, index)), text) {
			continue
		}

		var hasManufacturer, hasProduct bool
		score := 0
		for _, line := range c.Inventory {
			mfrID, _ := index.ManufacturerOf(line.ProductID)
			_, mfrHit := manufacturers[mfrID]
			_, prodHit := products[line.ProductID]
			hasManufacturer = hasManufacturer || mfrHit
			hasProduct = hasProduct || prodHit

			if (len(manufacturers) == 0 || mfrHit) && (len(products) == 0 || prodHit) {
				score += line.Quantity
			}
		}
		if len(manufacturers) > 0 && !hasManufacturer {
			continue
		}
		if len(products) > 0 && !hasProduct {
			continue
		}
		matched = append(matched, scored{company: c, score: score})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].score > matched[j].score
	})

	out := make([]catalog.RentalCompany, len(matched))
	for i, m := range matched {
		out[i] = m.company
	}
	return out
}

// FilteredProducts returns the products of the selected manufacturers, or
// every product when no manufacturer is selected.
func FilteredProducts(products []catalog.Product, filters Filters) []catalog.Product {
	if len(filters.Manufacturers) == 0 {
		return append([]catalog.Product(nil), products...)
	}
	manufacturers := toSet(filters.Manufacturers)
	out := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		if _, ok := manufacturers[p.ManufacturerID]; ok {
			out = append(out, p)
		}
	}
	return out
}

func haystack(c catalog.RentalCompany, index ProductIndex) string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte(' ')
	b.WriteString(c.City)
	b.WriteByte(' ')
	b.WriteString(c.Address)
	for _, line := range c.Inventory {
		b.WriteByte(' ')
		b.WriteString(index.Label(line.ProductID))
	}
	return b.String()
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
