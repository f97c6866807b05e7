// Package seed provides the sample catalog and discount rules used for
// local development and demos.
package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/discount"
)

// SampleProducts returns the demo catalog: three premium sneakers with
// different price floors.
func SampleProducts() []catalog.Product {
	return []catalog.Product{
		sneaker("1", "PUMA", "800"),
		sneaker("2", "ADIDAS", "700"),
		sneaker("3", "NIKE", "850"),
	}
}

// SampleDiscounts returns the demo rule set covering every strategy and
// customer tier.
func SampleDiscounts() []discount.Discount {
	tiers := []discount.Tier{discount.TierPremium, discount.TierRegular, discount.TierBudget}
	brands := []string{"PUMA", "ADIDAS", "NIKE"}
	categories := []string{"SHOES", "T-SHIRTS", "PANTS"}
	cards := []discount.CardType{discount.CardCredit, discount.CardDebit}

	var rules []discount.Discount
	for _, tier := range tiers {
		brandPct := "0.05"
		if tier == discount.TierPremium {
			brandPct = "0.10"
		}
		for _, brand := range brands {
			rules = append(rules, brandRule(tier, brand, brandPct))
		}
		for _, category := range categories {
			rules = append(rules, categoryRule(tier, category, "0.05"))
		}
		for _, card := range cards {
			rules = append(rules, cardRule(tier, card, "0.05"))
		}
		for _, brand := range brands {
			if tier == discount.TierPremium {
				rules = append(rules, couponRule(tier, brand+"10", "0.10"))
			} else {
				rules = append(rules, couponRule(tier, brand+"5", "0.05"))
			}
		}
	}
	return rules
}

// Apply loads the sample data into the given store and registry. Either
// target may be nil.
func Apply(ctx context.Context, store catalog.Store, registry *discount.Registry) error {
	if store != nil {
		for _, p := range SampleProducts() {
			if err := store.Upsert(ctx, p); err != nil {
				return fmt.Errorf("seed product %s: %w", p.ID, err)
			}
		}
	}
	if registry != nil {
		for _, d := range SampleDiscounts() {
			if err := registry.Upsert(d); err != nil {
				return fmt.Errorf("seed rule %s: %w", d.Name, err)
			}
		}
	}
	return nil
}

func sneaker(id, brand, floor string) catalog.Product {
	return catalog.Product{
		ID:           id,
		Brand:        brand,
		BrandTier:    catalog.BrandPremium,
		Category:     "SHOES",
		BasePrice:    dec("1000"),
		CurrentPrice: dec("1000"),
		FloorPrice:   dec(floor),
		Quantity:     10,
	}
}

func brandRule(tier discount.Tier, brand, pct string) discount.Discount {
	return discount.Discount{
		Name:         fmt.Sprintf("brand/%s/%s", tier, brand),
		Percentage:   decPtr(pct),
		CustomerTier: tier,
		BrandName:    brand,
	}
}

func categoryRule(tier discount.Tier, category, pct string) discount.Discount {
	return discount.Discount{
		Name:         fmt.Sprintf("category/%s/%s", tier, category),
		Percentage:   decPtr(pct),
		CustomerTier: tier,
		Category:     category,
	}
}

func cardRule(tier discount.Tier, card discount.CardType, pct string) discount.Discount {
	return discount.Discount{
		Name:         fmt.Sprintf("card/%s/%s", tier, card),
		Percentage:   decPtr(pct),
		CustomerTier: tier,
		CardType:     card,
	}
}

func couponRule(tier discount.Tier, code, pct string) discount.Discount {
	return discount.Discount{
		Name:         fmt.Sprintf("coupon/%s/%s", tier, code),
		Percentage:   decPtr(pct),
		CustomerTier: tier,
		Code:         code,
	}
}

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(value string) *decimal.Decimal {
	d := dec(value)
	return &d
}
