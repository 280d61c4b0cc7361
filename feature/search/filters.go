package search

import (
	"net/url"
	"strings"
	"sync"

	"rental-directory/core/ids"
	"rental-directory/feature/catalog"
)

// Query parameter names mirrored from the filter state.
const (
	ParamText          = "q"
	ParamManufacturers = "manufacturers"
	ParamProducts      = "products"
)

// Filters is the visitor's current search selection.
type Filters struct {
	Text          string   `json:"text"`
	Manufacturers []string `json:"manufacturers"`
	Products      []string `json:"products"`
}

// IsEmpty reports whether no filter is active.
func (f Filters) IsEmpty() bool {
	return strings.TrimSpace(f.Text) == "" && len(f.Manufacturers) == 0 && len(f.Products) == 0
}

func (f Filters) clone() Filters {
	return Filters{
		Text:          f.Text,
		Manufacturers: append([]string{}, f.Manufacturers...),
		Products:      append([]string{}, f.Products...),
	}
}

// State holds one visitor's filters and keeps the product selection
// consistent with the manufacturer selection. It is safe for concurrent use.
type State struct {
	mu          sync.RWMutex
	filters     Filters
	query       url.Values
	owners      map[string]string
	subscribers map[int]func(Filters)
	nextSubID   int
}

// NewState creates an empty filter state. products is used to look up which
// manufacturer a selected product belongs to.
func NewState(products []catalog.Product) *State {
	s := &State{
		filters:     Filters{Manufacturers: []string{}, Products: []string{}},
		query:       url.Values{},
		subscribers: make(map[int]func(Filters)),
	}
	s.setOwners(products)
	return s
}

// SetCatalog replaces the product lookup. Current selections are kept.
func (s *State) SetCatalog(products []catalog.Product) {
	s.mu.Lock()
	s.setOwners(products)
	s.mu.Unlock()
}

func (s *State) setOwners(products []catalog.Product) {
	s.owners = make(map[string]string, len(products))
	for _, p := range products {
		s.owners[p.ID] = p.ManufacturerID
	}
}

// GetState returns a copy of the current filters.
func (s *State) GetState() Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters.clone()
}

// Query returns the filters encoded as query parameters.
func (s *State) Query() url.Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := url.Values{}
	for k, v := range s.query {
		out[k] = append([]string{}, v...)
	}
	return out
}

// QueryString returns Query encoded for a URL.
func (s *State) QueryString() string {
	return s.Query().Encode()
}

// Subscribe registers fn to be called synchronously after every change.
// The returned function removes the subscription.
func (s *State) Subscribe(fn func(Filters)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

// SetText sets the free text filter.
func (s *State) SetText(text string) {
	s.update(func(f *Filters) {
		f.Text = text
	})
}

// ToggleManufacturer selects or deselects a manufacturer. Deselecting drops
// the selected products of that manufacturer, and deselecting the last one
// clears the product selection. Selecting prunes products that are not valid
// under the new manufacturer set.
func (s *State) ToggleManufacturer(id string) {
	s.update(func(f *Filters) {
		if i := indexOf(f.Manufacturers, id); i >= 0 {
			f.Manufacturers = append(f.Manufacturers[:i:i], f.Manufacturers[i+1:]...)
			if len(f.Manufacturers) == 0 {
				f.Products = []string{}
				return
			}
			kept := f.Products[:0:0]
			for _, pid := range f.Products {
				if owner, _ := s.ownerOf(pid); owner != id {
					kept = append(kept, pid)
				}
			}
			f.Products = kept
			return
		}
		f.Manufacturers = append(f.Manufacturers, id)
		f.Products = s.prune(f.Products, f.Manufacturers)
	})
}

// ToggleProduct selects or deselects a product. While manufacturers are
// selected, selecting a product of another manufacturer or an unknown
// product is a no-op and the manufacturer selection is left untouched.
// With no manufacturer selected any product can be selected.
func (s *State) ToggleProduct(id string) {
	s.update(func(f *Filters) {
		if i := indexOf(f.Products, id); i >= 0 {
			f.Products = append(f.Products[:i:i], f.Products[i+1:]...)
			return
		}
		if len(s.prune([]string{id}, f.Manufacturers)) == 0 {
			return
		}
		f.Products = append(f.Products, id)
	})
}

// SetManufacturers replaces the manufacturer selection and prunes products.
func (s *State) SetManufacturers(manufacturerIDs []string) {
	s.update(func(f *Filters) {
		f.Manufacturers = dedupe(manufacturerIDs)
		if len(f.Manufacturers) == 0 {
			f.Products = []string{}
			return
		}
		f.Products = s.prune(f.Products, f.Manufacturers)
	})
}

// SetProducts replaces the product selection, keeping only products valid
// under the selected manufacturers.
func (s *State) SetProducts(productIDs []string) {
	s.update(func(f *Filters) {
		f.Products = s.prune(dedupe(productIDs), f.Manufacturers)
	})
}

// Reset clears every filter.
func (s *State) Reset() {
	s.update(func(f *Filters) {
		*f = Filters{Manufacturers: []string{}, Products: []string{}}
	})
}

// LoadQuery replaces the filters with the ones encoded in values.
func (s *State) LoadQuery(values url.Values) {
	s.update(func(f *Filters) {
		f.Text = values.Get(ParamText)
		f.Manufacturers = splitList(values.Get(ParamManufacturers))
		f.Products = s.prune(splitList(values.Get(ParamProducts)), f.Manufacturers)
	})
}

// update applies fn under the lock, re-encodes the query and notifies
// subscribers after the lock is released.
func (s *State) update(fn func(f *Filters)) {
	s.mu.Lock()
	fn(&s.filters)
	s.query = encode(s.filters)
	snapshot := s.filters.clone()
	subs := make([]func(Filters), 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snapshot.clone())
	}
}

// prune keeps the products that belong to one of manufacturers. With no
// manufacturer selected every product is valid.
func (s *State) prune(products, manufacturers []string) []string {
	kept := make([]string, 0, len(products))
	if len(manufacturers) == 0 {
		return append(kept, products...)
	}
	allowed := toSet(manufacturers)
	for _, pid := range products {
		owner, ok := s.ownerOf(pid)
		if !ok {
			continue
		}
		if _, valid := allowed[owner]; valid {
			kept = append(kept, pid)
		}
	}
	return kept
}

func (s *State) ownerOf(productID string) (string, bool) {
	if owner, ok := s.owners[productID]; ok {
		return owner, true
	}
	return ids.ExtractManufacturerID(productID)
}

func encode(f Filters) url.Values {
	values := url.Values{}
	if f.Text != "" {
		values.Set(ParamText, f.Text)
	}
	if len(f.Manufacturers) > 0 {
		values.Set(ParamManufacturers, strings.Join(f.Manufacturers, ","))
	}
	if len(f.Products) > 0 {
		values.Set(ParamProducts, strings.Join(f.Products, ","))
	}
	return values
}

func splitList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	return dedupe(strings.Split(raw, ","))
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func indexOf(values []string, v string) int {
	for i, x := range values {
		if x == v {
			return i
		}
	}
	return -1
}
