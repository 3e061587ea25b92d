// Package domain holds the core storefront data types consumed by the
// chat assistant: catalog snapshots, customer profiles, orders, and carts.
package domain

import "time"

// CatalogItem is one sellable product in the storefront catalog.
type CatalogItem struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Unit        string   `json:"unit"`
	Stock       int      `json:"stock"`
	Origin      string   `json:"origin,omitempty"`
	Description string   `json:"description,omitempty"`
	PrepNote    string   `json:"prepNote,omitempty"`
	Nutrition   string   `json:"nutrition,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Catalog is a point-in-time, read-only snapshot of the product catalog.
// It must not be mutated while a session holds it; sessions and streaming
// exchanges assume the snapshot is stable for their lifetime.
type Catalog struct {
	items []CatalogItem
	byID  map[string]int
}

// NewCatalog builds a catalog snapshot from a list of items. The slice is
// copied so later mutation of the caller's slice cannot affect the snapshot.
func NewCatalog(items []CatalogItem) *Catalog {
	c := &Catalog{
		items: make([]CatalogItem, len(items)),
		byID:  make(map[string]int, len(items)),
	}
	copy(c.items, items)
	for i, it := range c.items {
		c.byID[it.ID] = i
	}
	return c
}

// Items returns the snapshot's items in catalog order.
func (c *Catalog) Items() []CatalogItem {
	return c.items
}

// Len returns the number of items in the snapshot.
func (c *Catalog) Len() int {
	return len(c.items)
}

// Resolve looks up an item by identifier.
func (c *Catalog) Resolve(id string) (CatalogItem, bool) {
	i, ok := c.byID[id]
	if !ok {
		return CatalogItem{}, false
	}
	return c.items[i], true
}

// UserProfile identifies an authenticated customer. A nil profile means
// an anonymous visitor.
type UserProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Tier string `json:"tier,omitempty"` // membership tier label, e.g. "gold"
}

// OrderLine is one purchased item within a past order.
type OrderLine struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Order is a past order summary used for prompt context.
type Order struct {
	ID       string      `json:"id"`
	PlacedAt time.Time   `json:"placedAt"`
	Total    float64     `json:"total"`
	Lines    []OrderLine `json:"lines,omitempty"`
}

// CartLine is one entry in the customer's current cart.
type CartLine struct {
	ItemID   string `json:"itemId"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}
