package catalog

import (
	"time"

	"rental-directory/core/reconcile"
)

// Manufacturer is an equipment maker identified by a 3-digit id.
type Manufacturer struct {
	ID        string    `gorm:"column:id;primaryKey;type:varchar(3)" json:"id"`
	Name      string    `gorm:"column:name;type:varchar(255);not null" json:"name"`
	IsActive  bool      `gorm:"column:is_active;not null" json:"isActive"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName overrides the table name.
func (Manufacturer) TableName() string {
	return "manufacturers"
}

// Product is a piece of equipment. ManufacturerID always equals the id prefix.
type Product struct {
	ID             string    `gorm:"column:id;primaryKey;type:varchar(64)" json:"id"`
	Name           string    `gorm:"column:name;type:varchar(255);not null" json:"name"`
	ManufacturerID string    `gorm:"column:manufacturer_id;type:varchar(3);index;not null" json:"manufacturerId"`
	IsActive       bool      `gorm:"column:is_active;not null" json:"isActive"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName overrides the table name.
func (Product) TableName() string {
	return "products"
}

// RentalCompany is a location renting out equipment.
type RentalCompany struct {
	ID         string          `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	Name       string          `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Address    string          `gorm:"column:address;type:varchar(255);not null" json:"address"`
	City       string          `gorm:"column:city;type:varchar(128);index;not null" json:"city"`
	PostalCode string          `gorm:"column:postal_code;type:varchar(32);not null" json:"postalCode"`
	Country    string          `gorm:"column:country;type:varchar(2);index;not null" json:"country"`
	Latitude   float64         `gorm:"column:latitude;type:double" json:"latitude"`
	Longitude  float64         `gorm:"column:longitude;type:double" json:"longitude"`
	Website    string          `gorm:"column:website;type:varchar(255)" json:"website,omitempty"`
	Phone      string          `gorm:"column:phone;type:varchar(64)" json:"phone,omitempty"`
	Email      string          `gorm:"column:email;type:varchar(255)" json:"email,omitempty"`
	IsActive   bool            `gorm:"column:is_active;not null" json:"isActive"`
	Inventory  []InventoryItem `gorm:"foreignKey:RentalCompanyID;references:ID;constraint:OnDelete:CASCADE" json:"inventory"`
	CreatedAt  time.Time       `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt  time.Time       `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName overrides the table name.
func (RentalCompany) TableName() string {
	return "rental_companies"
}

// InventoryItem is the quantity of one product a company holds.
type InventoryItem struct {
	RentalCompanyID string `gorm:"column:rental_company_id;primaryKey;type:varchar(32)" json:"-"`
	ProductID       string `gorm:"column:product_id;primaryKey;type:varchar(64);index" json:"productId"`
	Quantity        int    `gorm:"column:quantity;type:int;not null" json:"quantity"`
}

// TableName overrides the table name.
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// Models returns every persisted model, in migration order.
func Models() []any {
	return []any{&Manufacturer{}, &Product{}, &RentalCompany{}, &InventoryItem{}}
}

// CompanyUpdate is a partial company update. Only non-nil fields are written;
// a non-nil Inventory replaces the stored inventory wholesale.
type CompanyUpdate struct {
	Name       *string         `json:"name,omitempty"`
	Address    *string         `json:"address,omitempty"`
	City       *string         `json:"city,omitempty"`
	PostalCode *string         `json:"postalCode,omitempty"`
	Country    *string         `json:"country,omitempty"`
	Website    *string         `json:"website,omitempty"`
	Phone      *string         `json:"phone,omitempty"`
	Email      *string         `json:"email,omitempty"`
	IsActive   *bool           `json:"isActive,omitempty"`
	Latitude   *float64        `json:"-"`
	Longitude  *float64        `json:"-"`
	Inventory  []InventoryItem `json:"inventory,omitempty"`
}

// Columns returns the column values to update.
func (u CompanyUpdate) Columns() map[string]any {
	cols := map[string]any{}
	set := func(col string, v *string) {
		if v != nil {
			cols[col] = *v
		}
	}
	set("name", u.Name)
	set("address", u.Address)
	set("city", u.City)
	set("postal_code", u.PostalCode)
	set("country", u.Country)
	set("website", u.Website)
	set("phone", u.Phone)
	set("email", u.Email)
	if u.IsActive != nil {
		cols["is_active"] = *u.IsActive
	}
	if u.Latitude != nil {
		cols["latitude"] = *u.Latitude
	}
	if u.Longitude != nil {
		cols["longitude"] = *u.Longitude
	}
	return cols
}

// AddressChanged reports whether the update touches any address field of c.
func (u CompanyUpdate) AddressChanged(c RentalCompany) bool {
	changed := func(v *string, current string) bool {
		return v != nil && *v != current
	}
	return changed(u.Address, c.Address) || changed(u.City, c.City) ||
		changed(u.PostalCode, c.PostalCode) || changed(u.Country, c.Country)
}

// Apply returns c with the update applied.
func (u CompanyUpdate) Apply(c RentalCompany) RentalCompany {
	assign := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	assign(&c.Name, u.Name)
	assign(&c.Address, u.Address)
	assign(&c.City, u.City)
	assign(&c.PostalCode, u.PostalCode)
	assign(&c.Country, u.Country)
	assign(&c.Website, u.Website)
	assign(&c.Phone, u.Phone)
	assign(&c.Email, u.Email)
	if u.IsActive != nil {
		c.IsActive = *u.IsActive
	}
	if u.Latitude != nil {
		c.Latitude = *u.Latitude
	}
	if u.Longitude != nil {
		c.Longitude = *u.Longitude
	}
	if u.Inventory != nil {
		c.Inventory = u.Inventory
	}
	return c
}

// Snapshot is an in-memory view of the catalog used for import planning
// and integrity checks.
type Snapshot struct {
	Manufacturers map[string]Manufacturer
	Products      map[string]Product
	Companies     map[string]RentalCompany
}

// NewSnapshot indexes the given entities by id.
func NewSnapshot(manufacturers []Manufacturer, products []Product, companies []RentalCompany) *Snapshot {
	return &Snapshot{
		Manufacturers: reconcile.BuildIndex(manufacturers, func(m Manufacturer) string { return m.ID }),
		Products:      reconcile.BuildIndex(products, func(p Product) string { return p.ID }),
		Companies:     reconcile.BuildIndex(companies, func(c RentalCompany) string { return c.ID }),
	}
}

// ManufacturerList returns manufacturers sorted by id.
func (s *Snapshot) ManufacturerList() []Manufacturer {
	out := make([]Manufacturer, 0, len(s.Manufacturers))
	for _, id := range reconcile.SortedKeys(s.Manufacturers) {
		out = append(out, s.Manufacturers[id])
	}
	return out
}

// ProductList returns products sorted by id.
func (s *Snapshot) ProductList() []Product {
	out := make([]Product, 0, len(s.Products))
	for _, id := range reconcile.SortedKeys(s.Products) {
		out = append(out, s.Products[id])
	}
	return out
}

// CompanyList returns companies sorted by id.
func (s *Snapshot) CompanyList() []RentalCompany {
	out := make([]RentalCompany, 0, len(s.Companies))
	for _, id := range reconcile.SortedKeys(s.Companies) {
		out = append(out, s.Companies[id])
	}
	return out
}
