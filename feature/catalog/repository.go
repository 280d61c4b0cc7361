package catalog

import (
	"context"
	"errors"
	"fmt"

	"rental-directory/core/reconcile"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListOptions filters company listings.
type ListOptions struct {
	IncludeInactive bool
	Country         string
	City            string
}

// Repository persists the catalog through GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a repository on top of db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates or updates the catalog tables.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate catalog: %w", err)
	}
	return nil
}

// ListManufacturers returns manufacturers ordered by id.
func (r *Repository) ListManufacturers(ctx context.Context, includeInactive bool) ([]Manufacturer, error) {
	var out []Manufacturer
	q := r.db.WithContext(ctx).Order("id")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list manufacturers: %w", err)
	}
	return out, nil
}

// GetManufacturer loads one manufacturer.
func (r *Repository) GetManufacturer(ctx context.Context, id string) (*Manufacturer, error) {
	var m Manufacturer
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound("manufacturer", id, err)
	}
	return &m, nil
}

// CreateManufacturer inserts a manufacturer.
func (r *Repository) CreateManufacturer(ctx context.Context, m *Manufacturer) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to create manufacturer %s: %w", m.ID, err)
	}
	return nil
}

// UpdateManufacturer writes the given columns.
func (r *Repository) UpdateManufacturer(ctx context.Context, id string, cols map[string]any) error {
	return r.updateColumns(ctx, &Manufacturer{}, "manufacturer", id, cols)
}

// DeleteManufacturer removes a manufacturer that no product references.
func (r *Repository) DeleteManufacturer(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Product{}).Where("manufacturer_id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count products of manufacturer %s: %w", id, err)
		}
		if count > 0 {
			return fmt.Errorf("manufacturer %s: %w (%d)", id, ErrManufacturerInUse, count)
		}
		return deleteByID(tx, &Manufacturer{}, "manufacturer", id)
	})
}

// ListProducts returns products ordered by id, optionally for one manufacturer.
func (r *Repository) ListProducts(ctx context.Context, manufacturerID string, includeInactive bool) ([]Product, error) {
	var out []Product
	q := r.db.WithContext(ctx).Order("id")
	if manufacturerID != "" {
		q = q.Where("manufacturer_id = ?", manufacturerID)
	}
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return out, nil
}

// GetProduct loads one product.
func (r *Repository) GetProduct(ctx context.Context, id string) (*Product, error) {
	var p Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound("product", id, err)
	}
	return &p, nil
}

// CreateProduct inserts a product.
func (r *Repository) CreateProduct(ctx context.Context, p *Product) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create product %s: %w", p.ID, err)
	}
	return nil
}

// UpdateProduct writes the given columns.
func (r *Repository) UpdateProduct(ctx context.Context, id string, cols map[string]any) error {
	return r.updateColumns(ctx, &Product{}, "product", id, cols)
}

// DeleteProduct removes a product that no inventory references.
func (r *Repository) DeleteProduct(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&InventoryItem{}).Where("product_id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count inventory of product %s: %w", id, err)
		}
		if count > 0 {
			return fmt.Errorf("product %s: %w (%d)", id, ErrProductInUse, count)
		}
		return deleteByID(tx, &Product{}, "product", id)
	})
}

// ListCompanies returns companies with their inventory, ordered by id.
func (r *Repository) ListCompanies(ctx context.Context, opts ListOptions) ([]RentalCompany, error) {
	var out []RentalCompany
	q := r.db.WithContext(ctx).Preload("Inventory", func(db *gorm.DB) *gorm.DB {
		return db.Order("product_id")
	}).Order("id")
	if !opts.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if opts.Country != "" {
		q = q.Where("country = ?", opts.Country)
	}
	if opts.City != "" {
		q = q.Where("city = ?", opts.City)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list rental companies: %w", err)
	}
	return out, nil
}

// GetCompany loads one company with its inventory.
func (r *Repository) GetCompany(ctx context.Context, id string) (*RentalCompany, error) {
	var c RentalCompany
	err := r.db.WithContext(ctx).Preload("Inventory", func(db *gorm.DB) *gorm.DB {
		return db.Order("product_id")
	}).First(&c, "id = ?", id).Error
	if err != nil {
		return nil, notFound("rental company", id, err)
	}
	return &c, nil
}

// CreateCompany inserts a company and its inventory in one transaction.
func (r *Repository) CreateCompany(ctx context.Context, c *RentalCompany) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createCompany(tx, c)
	})
}

// UpdateCompany patches a company and, when given, replaces its inventory.
func (r *Repository) UpdateCompany(ctx context.Context, id string, update CompanyUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return updateCompany(tx, id, update)
	})
}

// DeleteCompany removes a company and its inventory.
func (r *Repository) DeleteCompany(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("rental_company_id = ?", id).Delete(&InventoryItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete inventory of %s: %w", id, err)
		}
		return deleteByID(tx, &RentalCompany{}, "rental company", id)
	})
}

// LoadSnapshot reads the whole catalog, inactive entities included.
func (r *Repository) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	manufacturers, err := r.ListManufacturers(ctx, true)
	if err != nil {
		return nil, err
	}
	products, err := r.ListProducts(ctx, "", true)
	if err != nil {
		return nil, err
	}
	companies, err := r.ListCompanies(ctx, ListOptions{IncludeInactive: true})
	if err != nil {
		return nil, err
	}
	return NewSnapshot(manufacturers, products, companies), nil
}

// Apply executes a single planned action in its own transaction.
func (r *Repository) Apply(ctx context.Context, action reconcile.Action) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return applyAction(tx, action)
	})
}

// ApplyBatch executes all planned actions in one transaction.
// Any failure rolls back the whole batch.
func (r *Repository) ApplyBatch(ctx context.Context, actions []reconcile.Action) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, action := range actions {
			if err := applyAction(tx, action); err != nil {
				return err
			}
		}
		return nil
	})
}

func applyAction(tx *gorm.DB, action reconcile.Action) error {
	switch action.Type {
	case reconcile.ActionCreateManufacturer:
		m, ok := action.Payload.(*Manufacturer)
		if !ok {
			return payloadError(action)
		}
		// Concurrent imports may create the same manufacturer.
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(m).Error; err != nil {
			return fmt.Errorf("failed to create manufacturer %s: %w", m.ID, err)
		}
	case reconcile.ActionCreateProduct:
		p, ok := action.Payload.(*Product)
		if !ok {
			return payloadError(action)
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(p).Error; err != nil {
			return fmt.Errorf("failed to create product %s: %w", p.ID, err)
		}
	case reconcile.ActionCreateCompany:
		c, ok := action.Payload.(*RentalCompany)
		if !ok {
			return payloadError(action)
		}
		return createCompany(tx, c)
	case reconcile.ActionUpdateCompany:
		u, ok := action.Payload.(*CompanyUpdate)
		if !ok {
			return payloadError(action)
		}
		return updateCompany(tx, action.Key, *u)
	default:
		return fmt.Errorf("unsupported action type %s", action.Type)
	}
	return nil
}

func createCompany(tx *gorm.DB, c *RentalCompany) error {
	if err := tx.Omit("Inventory").Create(c).Error; err != nil {
		return fmt.Errorf("failed to create rental company %s: %w", c.ID, err)
	}
	return replaceInventory(tx, c.ID, c.Inventory)
}

func updateCompany(tx *gorm.DB, id string, update CompanyUpdate) error {
	if cols := update.Columns(); len(cols) > 0 {
		if err := tx.Model(&RentalCompany{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return fmt.Errorf("failed to update rental company %s: %w", id, err)
		}
	}
	if update.Inventory != nil {
		return replaceInventory(tx, id, update.Inventory)
	}
	return nil
}

func replaceInventory(tx *gorm.DB, companyID string, items []InventoryItem) error {
	if err := tx.Where("rental_company_id = ?", companyID).Delete(&InventoryItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear inventory of %s: %w", companyID, err)
	}
	if len(items) == 0 {
		return nil
	}
	rows := make([]InventoryItem, len(items))
	for i, item := range items {
		item.RentalCompanyID = companyID
		rows[i] = item
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to write inventory of %s: %w", companyID, err)
	}
	return nil
}

func (r *Repository) updateColumns(ctx context.Context, model any, entity, id string, cols map[string]any) error {
	if len(cols) == 0 {
		return nil
	}
	// MySQL reports zero affected rows for unchanged values, so existence
	// is checked by the service before updating.
	if err := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(cols).Error; err != nil {
		return fmt.Errorf("failed to update %s %s: %w", entity, id, err)
	}
	return nil
}

func deleteByID(tx *gorm.DB, model any, entity, id string) error {
	res := tx.Where("id = ?", id).Delete(model)
	if res.Error != nil {
		return fmt.Errorf("failed to delete %s %s: %w", entity, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	return nil
}

func notFound(entity, id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s %s: %w", entity, id, err)
}

func payloadError(action reconcile.Action) error {
	return fmt.Errorf("unexpected payload %T for %s %s", action.Payload, action.Type, action.Key)
}
