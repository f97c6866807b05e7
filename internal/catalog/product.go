package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// BrandTier classifies a brand for reporting and rule scoping.
type BrandTier string

// Known brand tiers.
const (
	BrandPremium BrandTier = "PREMIUM"
	BrandRegular BrandTier = "REGULAR"
	BrandBudget  BrandTier = "BUDGET"
)

// Product is the catalog's authoritative record. CurrentPrice reflects any
// repricing already persisted; FloorPrice is the lowest value a discount run
// may reach. Pricing never mutates a stored Product, only reservation
// adjusts Quantity.
type Product struct {
	ID           string          `json:"id"`
	Brand        string          `json:"brand"`
	BrandTier    BrandTier       `json:"brandTier,omitempty"`
	Category     string          `json:"category"`
	BasePrice    decimal.Decimal `json:"basePrice"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	FloorPrice   decimal.Decimal `json:"minPricePossible"`
	Quantity     int             `json:"quantity"`
}

// Validate checks the structural rules a product must satisfy before it can
// be stored: a non-empty id, non-negative stock, and a floor within
// [0, basePrice].
func (p Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("product id is required")
	}
	if p.Quantity < 0 {
		return fmt.Errorf("product %s: quantity must not be negative", p.ID)
	}
	if p.FloorPrice.IsNegative() {
		return fmt.Errorf("product %s: floor price must not be negative", p.ID)
	}
	if p.FloorPrice.GreaterThan(p.BasePrice) {
		return fmt.Errorf("product %s: floor price exceeds base price", p.ID)
	}
	return nil
}
