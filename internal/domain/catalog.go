package domain

// CatalogItem is a bookable clinic service and its unit price.
type CatalogItem struct {
	Name  string
	Price float64
}

// Catalog is an ordered price list.
type Catalog struct {
	items  []CatalogItem
	prices map[string]float64
}

// DefaultCatalog lists the services the clinic offers.
var DefaultCatalog = NewCatalog(
	CatalogItem{Name: "Dental Cleaning", Price: 1000},
	CatalogItem{Name: "Physical Therapy", Price: 1500},
	CatalogItem{Name: "Eye Check-up", Price: 1000},
)

// NewCatalog builds a catalog; a repeated name keeps its first position and last price.
func NewCatalog(items ...CatalogItem) Catalog {
	c := Catalog{prices: make(map[string]float64, len(items))}
	for _, item := range items {
		if _, ok := c.prices[item.Name]; !ok {
			c.items = append(c.items, item)
		}
		c.prices[item.Name] = item.Price
	}
	for i := range c.items {
		c.items[i].Price = c.prices[c.items[i].Name]
	}
	return c
}

// Items returns the catalog in listing order.
func (c Catalog) Items() []CatalogItem {
	out := make([]CatalogItem, len(c.items))
	copy(out, c.items)
	return out
}

// Price looks up a service by exact name.
func (c Catalog) Price(name string) (float64, bool) {
	p, ok := c.prices[name]
	return p, ok
}
