package catalog

// Product is a single catalog entry as served by the upstream shop API.
// A nil Price marks the product as priceless: it can be viewed but not bought.
type Product struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Category    string `json:"category"`
	Price       *int64 `json:"price"`
}

// Priced reports whether the product has a defined price.
func (p Product) Priced() bool {
	return p.Price != nil
}

// PriceValue returns the price, or zero for priceless products.
func (p Product) PriceValue() int64 {
	if p.Price == nil {
		return 0
	}
	return *p.Price
}

// Catalog is an immutable-for-session snapshot of products with id lookup.
type Catalog struct {
	products []Product
	byID     map[string]int
}

// New constructs a Catalog snapshot. Later entries with a duplicate id are dropped.
func New(products []Product) *Catalog {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	for _, p := range products {
		if _, ok := c.byID[p.ID]; ok {
			continue
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c
}

// All returns a copy of the product list in upstream order.
func (c *Catalog) All() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// ByID returns the product with the given id, if present.
func (c *Catalog) ByID(id string) (Product, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[idx], true
}

// Len returns the number of products in the snapshot.
func (c *Catalog) Len() int {
	return len(c.products)
}
