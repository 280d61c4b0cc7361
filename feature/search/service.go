package search

import (
	"context"
	"net/url"

	"rental-directory/feature/catalog"

	"go.uber.org/zap"
)

// CompaniesResult is the visible company list for a filter selection.
type CompaniesResult struct {
	Companies []catalog.RentalCompany `json:"companies"`
	Filters   Filters                 `json:"filters"`
	Query     string                  `json:"query"`
}

// ProductsResult is the product list offered for a manufacturer selection.
type ProductsResult struct {
	Products []catalog.Product `json:"products"`
}

// Service evaluates filters against the catalog snapshot.
type Service struct {
	catalog *catalog.Service
	logger  *zap.Logger
}

// NewService creates a search service.
func NewService(catalogService *catalog.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{catalog: catalogService, logger: logger}
}

// Companies returns the active companies matching the filters encoded in query.
func (s *Service) Companies(ctx context.Context, query url.Values) (*CompaniesResult, error) {
	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	products := snap.ProductList()

	state := NewState(products)
	state.LoadQuery(query)
	filters := state.GetState()

	var active []catalog.RentalCompany
	for _, c := range snap.CompanyList() {
		if c.IsActive {
			active = append(active, c)
		}
	}

	companies := FilteredRentalCompanies(active, filters, NewProductIndex(products, snap.ManufacturerList()))
	if companies == nil {
		companies = []catalog.RentalCompany{}
	}
	return &CompaniesResult{
		Companies: companies,
		Filters:   filters,
		Query:     state.QueryString(),
	}, nil
}

// Products returns the active products offered for the selected manufacturers.
func (s *Service) Products(ctx context.Context, query url.Values) (*ProductsResult, error) {
	snap, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var active []catalog.Product
	for _, p := range snap.ProductList() {
		if p.IsActive {
			active = append(active, p)
		}
	}

	filters := Filters{Manufacturers: splitList(query.Get(ParamManufacturers))}
	return &ProductsResult{Products: FilteredProducts(active, filters)}, nil
}
