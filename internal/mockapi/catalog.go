// Package mockapi serves a stand-in for the storefront: a JSON product API,
// a sitemap and server-rendered product pages.
package mockapi

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/adyen/shopcheck/internal/models"
	"github.com/adyen/shopcheck/internal/schema"
)

// ErrProductNotFound is returned when a product ID is unknown
var ErrProductNotFound = errors.New("product not found")

// Catalog is an in-memory, ID-ordered product list safe for concurrent use
type Catalog struct {
	mu       sync.RWMutex
	products []models.Product
}

// NewCatalog creates a catalog from the given products. Products failing
// schema validation or with duplicate IDs are rejected.
func NewCatalog(products ...models.Product) (*Catalog, error) {
	c := &Catalog{}
	for _, p := range products {
		if err := c.Add(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// DefaultCatalog returns the catalog of the demo storefront
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(
		models.Product{
			ID:          "widget-001",
			Name:        "Premium Widget",
			Description: "A high-quality widget perfect for all your widget needs. Durable, reliable, and designed to last.",
			PriceCents:  100,
			Currency:    "USD",
			ImageURL:    "/static/images/widget-placeholder.svg",
		},
		models.Product{
			ID:          "widget-002",
			Name:        "Compact Widget",
			Description: "The same widget, smaller.",
			PriceCents:  75,
			Currency:    "USD",
		},
		models.Product{
			ID:          "widget-003",
			Name:        "Widget Gift Set",
			Description: "Three widgets in a box.",
			PriceCents:  250,
			Currency:    "USD",
		},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Add inserts a product, keeping the catalog ordered by ID
func (c *Catalog) Add(p models.Product) error {
	if err := schema.Validate(p); err != nil {
		return fmt.Errorf("invalid product %q: %w", p.ID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := sort.Search(len(c.products), func(i int) bool { return c.products[i].ID >= p.ID })
	if i < len(c.products) && c.products[i].ID == p.ID {
		return fmt.Errorf("duplicate product %q", p.ID)
	}
	c.products = append(c.products, models.Product{})
	copy(c.products[i+1:], c.products[i:])
	c.products[i] = p
	return nil
}

// Get returns the product with the given ID
func (c *Catalog) Get(id string) (models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i := sort.Search(len(c.products), func(i int) bool { return c.products[i].ID >= id })
	if i < len(c.products) && c.products[i].ID == id {
		return c.products[i], nil
	}
	return models.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
}

// All returns a copy of every product
func (c *Catalog) All() []models.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Product, len(c.products))
	copy(out, c.products)
	return out
}
