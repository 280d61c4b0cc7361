package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rental-directory/core/geocode"
	"rental-directory/core/ids"
	"rental-directory/core/metrics"
	"rental-directory/core/reconcile"

	"go.uber.org/zap"
)

const snapshotKey = "catalog"

// ManufacturerInput creates a manufacturer.
type ManufacturerInput struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive *bool  `json:"isActive,omitempty"`
}

// ManufacturerPatch updates a manufacturer.
type ManufacturerPatch struct {
	Name     *string `json:"name,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

// ProductInput creates a product. ManufacturerID is optional and must match
// the id prefix when given.
type ProductInput struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ManufacturerID string `json:"manufacturerId,omitempty"`
	IsActive       *bool  `json:"isActive,omitempty"`
}

// ProductPatch updates a product. The manufacturer cannot change.
type ProductPatch struct {
	Name     *string `json:"name,omitempty"`
	IsActive *bool   `json:"isActive,omitempty"`
}

// CompanyInput creates a rental company.
type CompanyInput struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Address    string          `json:"address"`
	City       string          `json:"city"`
	PostalCode string          `json:"postalCode"`
	Country    string          `json:"country"`
	Website    string          `json:"website,omitempty"`
	Phone      string          `json:"phone,omitempty"`
	Email      string          `json:"email,omitempty"`
	IsActive   *bool           `json:"isActive,omitempty"`
	Inventory  []InventoryItem `json:"inventory"`
}

// Service implements the catalog rules on top of the repository.
type Service struct {
	repo      *Repository
	geocoder  geocode.Geocoder
	snapshots *reconcile.Cache[*Snapshot]
	metrics   *metrics.Recorder
	logger    *zap.Logger
}

// NewService creates a catalog service. snapshotTTL controls how long the
// snapshot used by imports and search is reused.
func NewService(repo *Repository, geocoder geocode.Geocoder, snapshotTTL time.Duration, recorder *metrics.Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:      repo,
		geocoder:  geocoder,
		snapshots: reconcile.NewCache[*Snapshot](snapshotTTL),
		metrics:   recorder,
		logger:    logger,
	}
}

// Repository returns the underlying repository.
func (s *Service) Repository() *Repository {
	return s.repo
}

// Geocoder returns the configured geocoder.
func (s *Service) Geocoder() geocode.Geocoder {
	return s.geocoder
}

// Logger returns the service logger.
func (s *Service) Logger() *zap.Logger {
	return s.logger
}

// Snapshot returns the cached catalog snapshot.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	return s.snapshots.Get(ctx, snapshotKey, s.repo.LoadSnapshot)
}

// InvalidateSnapshot forces the next Snapshot call to reload.
func (s *Service) InvalidateSnapshot() {
	s.snapshots.Invalidate(snapshotKey)
}

// GetManufacturers lists manufacturers.
func (s *Service) GetManufacturers(ctx context.Context, includeInactive bool) ([]Manufacturer, error) {
	return s.repo.ListManufacturers(ctx, includeInactive)
}

// GetManufacturer loads one manufacturer.
func (s *Service) GetManufacturer(ctx context.Context, id string) (*Manufacturer, error) {
	return s.repo.GetManufacturer(ctx, id)
}

// CreateManufacturer validates and inserts a manufacturer.
func (s *Service) CreateManufacturer(ctx context.Context, in ManufacturerInput) (*Manufacturer, error) {
	id := strings.TrimSpace(in.ID)
	if !ids.ValidateManufacturerID(id) {
		return nil, fmt.Errorf("%w: manufacturer id %q must be 3 digits", ErrInvalidID, in.ID)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: manufacturer name is required", ErrInvalid)
	}
	if _, err := s.repo.GetManufacturer(ctx, id); err == nil {
		return nil, fmt.Errorf("manufacturer %s: %w", id, ErrAlreadyExists)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	m := &Manufacturer{ID: id, Name: name, IsActive: boolOr(in.IsActive, true)}
	if err := s.repo.CreateManufacturer(ctx, m); err != nil {
		return nil, err
	}
	s.mutated("manufacturer", "create")
	return m, nil
}

// UpdateManufacturer applies a partial update.
func (s *Service) UpdateManufacturer(ctx context.Context, id string, patch ManufacturerPatch) (*Manufacturer, error) {
	if _, err := s.repo.GetManufacturer(ctx, id); err != nil {
		return nil, err
	}
	cols := map[string]any{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: manufacturer name cannot be empty", ErrInvalid)
		}
		cols["name"] = name
	}
	if patch.IsActive != nil {
		cols["is_active"] = *patch.IsActive
	}
	if err := s.repo.UpdateManufacturer(ctx, id, cols); err != nil {
		return nil, err
	}
	s.mutated("manufacturer", "update")
	return s.repo.GetManufacturer(ctx, id)
}

// DeleteManufacturer removes a manufacturer without products.
func (s *Service) DeleteManufacturer(ctx context.Context, id string) error {
	if err := s.repo.DeleteManufacturer(ctx, id); err != nil {
		return err
	}
	s.mutated("manufacturer", "delete")
	return nil
}

// GetProducts lists products, optionally for one manufacturer.
func (s *Service) GetProducts(ctx context.Context, manufacturerID string, includeInactive bool) ([]Product, error) {
	return s.repo.ListProducts(ctx, manufacturerID, includeInactive)
}

// GetProduct loads one product. Non-canonical ids are normalized first.
func (s *Service) GetProduct(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetProduct(ctx, ids.NormalizeProductID(id))
}

// CreateProduct validates and inserts a product.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	id := ids.NormalizeProductID(strings.TrimSpace(in.ID))
	mfrID, ok := ids.ExtractManufacturerID(id)
	if !ok || !ids.ValidateProductID(id) {
		return nil, fmt.Errorf("%w: product id %q", ErrInvalidID, in.ID)
	}
	if in.ManufacturerID != "" && in.ManufacturerID != mfrID {
		return nil, fmt.Errorf("%w: manufacturerId %s does not match product id prefix %s", ErrInvalid, in.ManufacturerID, mfrID)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", ErrInvalid)
	}
	if _, err := s.repo.GetManufacturer(ctx, mfrID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: manufacturer %s does not exist", ErrInvalid, mfrID)
		}
		return nil, err
	}
	if _, err := s.repo.GetProduct(ctx, id); err == nil {
		return nil, fmt.Errorf("product %s: %w", id, ErrAlreadyExists)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	p := &Product{ID: id, Name: name, ManufacturerID: mfrID, IsActive: boolOr(in.IsActive, true)}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.mutated("product", "create")
	return p, nil
}

// UpdateProduct applies a partial update.
func (s *Service) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (*Product, error) {
	id = ids.NormalizeProductID(id)
	if _, err := s.repo.GetProduct(ctx, id); err != nil {
		return nil, err
	}
	cols := map[string]any{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: product name cannot be empty", ErrInvalid)
		}
		cols["name"] = name
	}
	if patch.IsActive != nil {
		cols["is_active"] = *patch.IsActive
	}
	if err := s.repo.UpdateProduct(ctx, id, cols); err != nil {
		return nil, err
	}
	s.mutated("product", "update")
	return s.repo.GetProduct(ctx, id)
}

// DeleteProduct removes a product that no company stocks.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.DeleteProduct(ctx, ids.NormalizeProductID(id)); err != nil {
		return err
	}
	s.mutated("product", "delete")
	return nil
}

// GetRentalCompanies lists companies with their inventory.
func (s *Service) GetRentalCompanies(ctx context.Context, opts ListOptions) ([]RentalCompany, error) {
	return s.repo.ListCompanies(ctx, opts)
}

// GetRentalCompany loads one company.
func (s *Service) GetRentalCompany(ctx context.Context, id string) (*RentalCompany, error) {
	return s.repo.GetCompany(ctx, id)
}

// CreateRentalCompany validates, geocodes and inserts a company.
func (s *Service) CreateRentalCompany(ctx context.Context, in CompanyInput) (*RentalCompany, error) {
	id := strings.TrimSpace(in.ID)
	if !ids.ValidateRentalCompanyID(id) {
		return nil, fmt.Errorf("%w: rental company id %q must be K followed by at least 4 digits", ErrInvalidID, in.ID)
	}
	c := RentalCompany{
		ID:         id,
		Name:       strings.TrimSpace(in.Name),
		Address:    strings.TrimSpace(in.Address),
		City:       strings.TrimSpace(in.City),
		PostalCode: strings.TrimSpace(in.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(in.Country)),
		Website:    strings.TrimSpace(in.Website),
		Phone:      strings.TrimSpace(in.Phone),
		Email:      strings.TrimSpace(in.Email),
		IsActive:   boolOr(in.IsActive, true),
	}
	if err := validateCompanyFields(c); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetCompany(ctx, id); err == nil {
		return nil, fmt.Errorf("rental company %s: %w", id, ErrAlreadyExists)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	inventory, err := s.checkInventory(ctx, in.Inventory)
	if err != nil {
		return nil, err
	}
	c.Inventory = inventory

	coords, err := s.locate(ctx, c)
	if err != nil {
		return nil, err
	}
	c.Latitude, c.Longitude = coords.Latitude, coords.Longitude

	if err := s.repo.CreateCompany(ctx, &c); err != nil {
		return nil, err
	}
	s.mutated("rental_company", "create")
	return s.repo.GetCompany(ctx, id)
}

// UpdateRentalCompany applies a partial update, re-geocoding when the address changes.
func (s *Service) UpdateRentalCompany(ctx context.Context, id string, update CompanyUpdate) (*RentalCompany, error) {
	current, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Country != nil {
		country := strings.ToUpper(strings.TrimSpace(*update.Country))
		update.Country = &country
	}
	update.Latitude, update.Longitude = nil, nil

	next := update.Apply(*current)
	if err := validateCompanyFields(next); err != nil {
		return nil, err
	}
	if update.Inventory != nil {
		inventory, err := s.checkInventory(ctx, update.Inventory)
		if err != nil {
			return nil, err
		}
		update.Inventory = inventory
	}
	if update.AddressChanged(*current) {
		coords, err := s.locate(ctx, next)
		if err != nil {
			return nil, err
		}
		update.Latitude, update.Longitude = &coords.Latitude, &coords.Longitude
	}

	if err := s.repo.UpdateCompany(ctx, id, update); err != nil {
		return nil, err
	}
	s.mutated("rental_company", "update")
	return s.repo.GetCompany(ctx, id)
}

// DeleteRentalCompany removes a company and its inventory.
func (s *Service) DeleteRentalCompany(ctx context.Context, id string) error {
	if err := s.repo.DeleteCompany(ctx, id); err != nil {
		return err
	}
	s.mutated("rental_company", "delete")
	return nil
}

func (s *Service) locate(ctx context.Context, c RentalCompany) (geocode.Coordinates, error) {
	return Locate(ctx, s.geocoder, c)
}

// Locate geocodes a company address with g. Failures and (0,0) results wrap ErrGeocode.
func Locate(ctx context.Context, g geocode.Geocoder, c RentalCompany) (geocode.Coordinates, error) {
	if g == nil {
		return geocode.Coordinates{}, fmt.Errorf("%w: no geocoder configured", ErrGeocode)
	}
	address := geocode.FormatAddress(c.Address, c.PostalCode, c.City, c.Country)
	coords, err := g.Geocode(ctx, address)
	if err != nil {
		return geocode.Coordinates{}, fmt.Errorf("%w for %q: %w", ErrGeocode, address, err)
	}
	if coords.IsZero() {
		return geocode.Coordinates{}, fmt.Errorf("%w for %q: %w", ErrGeocode, address, geocode.ErrZeroCoordinates)
	}
	return coords, nil
}

// checkInventory normalizes product ids, merges duplicates and requires
// known products with positive quantities.
func (s *Service) checkInventory(ctx context.Context, items []InventoryItem) ([]InventoryItem, error) {
	merged, err := MergeInventory(items)
	if err != nil {
		return nil, err
	}
	if len(merged) == 0 {
		return merged, nil
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range merged {
		if _, ok := snap.Products[item.ProductID]; !ok {
			return nil, fmt.Errorf("%w: inventory references unknown product %s", ErrInvalid, item.ProductID)
		}
	}
	return merged, nil
}

// MergeInventory normalizes product ids and sums quantities of duplicate
// lines, keeping first-seen order. Lines must have a valid product id and a
// positive quantity.
func MergeInventory(items []InventoryItem) ([]InventoryItem, error) {
	merged := make([]InventoryItem, 0, len(items))
	position := make(map[string]int, len(items))
	for _, item := range items {
		pid := ids.NormalizeProductID(strings.TrimSpace(item.ProductID))
		if !ids.ValidateProductID(pid) {
			return nil, fmt.Errorf("%w: inventory product id %q", ErrInvalidID, item.ProductID)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity for %s must be positive", ErrInvalid, pid)
		}
		if i, ok := position[pid]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		position[pid] = len(merged)
		merged = append(merged, InventoryItem{ProductID: pid, Quantity: item.Quantity})
	}
	return merged, nil
}

func validateCompanyFields(c RentalCompany) error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", c.Name},
		{"address", c.Address},
		{"city", c.City},
		{"postalCode", c.PostalCode},
		{"country", c.Country},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalid, strings.Join(missing, ", "))
	}
	if !ValidCountry(c.Country) {
		return fmt.Errorf("%w: country %q must be a 2-letter code", ErrInvalid, c.Country)
	}
	return nil
}

// ValidCountry reports whether code is a 2-letter ASCII country code.
func ValidCountry(code string) bool {
	if len(code) != 2 {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

func (s *Service) mutated(entity, op string) {
	s.InvalidateSnapshot()
	s.metrics.CatalogMutation(entity, op)
	s.logger.Debug("Catalog mutated", zap.String("entity", entity), zap.String("op", op))
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
