// Package memory provides an in-process product catalog loaded from JSON.
package memory

import (
	"context"
	"encoding/json"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/commerce-hub/internal/domain/product"
)

var _ product.Repository = (*Catalog)(nil)

type productJSON struct {
	ID       string          `json:"id"`
	BrandID  string          `json:"brandId"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	Image    struct {
		Thumbnail string `json:"thumbnail"`
		Mobile    string `json:"mobile"`
		Tablet    string `json:"tablet"`
		Desktop   string `json:"desktop"`
	} `json:"image"`
}

func (p productJSON) toDomain() (product.Product, error) {
	if strings.TrimSpace(p.ID) == "" {
		return product.Product{}, errors.New("product id is empty")
	}
	if p.Price.IsNegative() {
		return product.Product{}, errors.Errorf("product %s has negative price", p.ID)
	}
	return product.Product{
		ID:       p.ID,
		BrandID:  p.BrandID,
		Name:     p.Name,
		Price:    p.Price,
		Category: p.Category,
		Image: product.Image{
			Thumbnail: p.Image.Thumbnail,
			Mobile:    p.Image.Mobile,
			Tablet:    p.Image.Tablet,
			Desktop:   p.Image.Desktop,
		},
	}, nil
}

// ParseProduct decodes a single JSON product object.
func ParseProduct(data []byte) (product.Product, error) {
	var pj productJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return product.Product{}, errors.Wrap(err, "decode product")
	}
	return pj.toDomain()
}

// ParseProducts decodes a JSON array of products.
func ParseProducts(data []byte) ([]product.Product, error) {
	var raw []productJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	out := make([]product.Product, 0, len(raw))
	for _, pj := range raw {
		p, err := pj.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Catalog is a read-only product catalog kept in memory.
type Catalog struct {
	products []product.Product
	byID     map[string]int
}

// NewCatalog builds a catalog from products. Later duplicates of an ID are
// rejected.
func NewCatalog(products []product.Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]product.Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	for _, p := range products {
		if _, ok := c.byID[p.ID]; ok {
			return nil, errors.Errorf("duplicate product id %q", p.ID)
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	slices.SortFunc(c.products, func(a, b product.Product) int { return strings.Compare(a.ID, b.ID) })
	for i, p := range c.products {
		c.byID[p.ID] = i
	}
	return c, nil
}

// LoadCatalog parses a JSON array and builds a catalog from it.
func LoadCatalog(data []byte) (*Catalog, error) {
	products, err := ParseProducts(data)
	if err != nil {
		return nil, err
	}
	return NewCatalog(products)
}

// List returns all products ordered by ID.
func (c *Catalog) List(_ context.Context) ([]product.Product, error) {
	return slices.Clone(c.products), nil
}

// GetByID returns a single product.
func (c *Catalog) GetByID(_ context.Context, id string) (*product.Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, &product.NotFoundError{ProductID: id}
	}
	p := c.products[i]
	return &p, nil
}
