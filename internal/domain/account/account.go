// Package account defines the business hub's entity records and the
// per-session directory that owns them.
package account

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNameRequired is returned when a record is missing its display name.
var ErrNameRequired = errors.New("name is required")

// DuplicateBrandError is returned when a brand ID is already registered.
type DuplicateBrandError struct {
	BrandID string
}

func (e *DuplicateBrandError) Error() string {
	return fmt.Sprintf("brand %s already exists", e.BrandID)
}

// Business is the legal entity behind one or more brands.
type Business struct {
	ID          string
	Name        string
	Email       string
	Phone       *string
	Website     *string
	TaxNumber   *string
	Description *string
}

// Validate checks required fields.
func (b Business) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrNameRequired
	}
	return nil
}

// Brand is a storefront operated by a business.
type Brand struct {
	ID         string
	BusinessID string
	Name       string
	Category   *string
	LogoURL    *string
	AgentFee   *decimal.Decimal
}

// Validate checks required fields.
func (b Brand) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrNameRequired
	}
	return nil
}

// OpeningHours is a daily window in "HH:MM" form.
type OpeningHours struct {
	Day   string
	Open  string
	Close string
}

// AgentProfile is a top-up agent's public profile.
type AgentProfile struct {
	ID      string
	Name    string
	Phone   *string
	Address *string
	Fee     decimal.Decimal
	Hours   []OpeningHours
}

// Validate checks required fields.
func (a AgentProfile) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrNameRequired
	}
	return nil
}

// Directory holds the businesses and brands registered in one session.
type Directory struct {
	businesses []Business
	brands     []Brand
}

// AddBusiness registers a business.
func (d *Directory) AddBusiness(b Business) error {
	if err := b.Validate(); err != nil {
		return err
	}
	d.businesses = append(d.businesses, b)
	return nil
}

// AddBrand registers a brand, rejecting duplicate IDs.
func (d *Directory) AddBrand(b Brand) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if d.hasBrand(b.ID) {
		return &DuplicateBrandError{BrandID: b.ID}
	}
	d.brands = append(d.brands, b)
	return nil
}

// Register adds a business together with its first brand. Nothing is
// added unless both are accepted.
func (d *Directory) Register(b Business, br Brand) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := br.Validate(); err != nil {
		return err
	}
	if d.hasBrand(br.ID) {
		return &DuplicateBrandError{BrandID: br.ID}
	}
	d.businesses = append(d.businesses, b)
	d.brands = append(d.brands, br)
	return nil
}

func (d *Directory) hasBrand(id string) bool {
	return slices.ContainsFunc(d.brands, func(x Brand) bool { return x.ID == id })
}

// Brands returns a copy of the registered brands.
func (d *Directory) Brands() []Brand {
	return slices.Clone(d.brands)
}

// Businesses returns a copy of the registered businesses.
func (d *Directory) Businesses() []Business {
	return slices.Clone(d.businesses)
}
