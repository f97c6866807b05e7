package discount

import "github.com/shopspring/decimal"

// Rules is the read-only lookup contract the strategies consult. Every lookup
// is scoped by customer tier and reports whether an entry exists.
type Rules interface {
	BrandPercent(tier Tier, brand string) (decimal.Decimal, bool)
	CategoryPercent(tier Tier, category string) (decimal.Decimal, bool)
	CardPercent(tier Tier, card CardType) (decimal.Decimal, bool)
	CouponPercent(tier Tier, code string) (decimal.Decimal, bool)
}

// Table is a static in-memory Rules implementation backed by per-tier maps.
// Percentages are fractions in [0, 1]. Coupon entries are scoped per tier,
// never globally by code.
type Table struct {
	Brand    map[Tier]map[string]decimal.Decimal
	Category map[Tier]map[string]decimal.Decimal
	Card     map[Tier]map[CardType]decimal.Decimal
	Coupon   map[Tier]map[string]decimal.Decimal
}

// BrandPercent looks up the brand discount for the tier.
func (t *Table) BrandPercent(tier Tier, brand string) (decimal.Decimal, bool) {
	if t == nil {
		return decimal.Zero, false
	}
	pct, ok := t.Brand[tier][brand]
	return pct, ok
}

// CategoryPercent looks up the category discount for the tier.
func (t *Table) CategoryPercent(tier Tier, category string) (decimal.Decimal, bool) {
	if t == nil {
		return decimal.Zero, false
	}
	pct, ok := t.Category[tier][category]
	return pct, ok
}

// CardPercent looks up the card-type discount for the tier.
func (t *Table) CardPercent(tier Tier, card CardType) (decimal.Decimal, bool) {
	if t == nil {
		return decimal.Zero, false
	}
	pct, ok := t.Card[tier][card]
	return pct, ok
}

// CouponPercent looks up the coupon discount for the tier.
func (t *Table) CouponPercent(tier Tier, code string) (decimal.Decimal, bool) {
	if t == nil {
		return decimal.Zero, false
	}
	pct, ok := t.Coupon[tier][code]
	return pct, ok
}

// TableFromDiscounts builds a Table from percentage-based Discount records.
// Records without a percentage or a customer tier are skipped, as are records
// whose scoping fields name none of brand, category, card type, or code.
func TableFromDiscounts(records []Discount) *Table {
	t := &Table{
		Brand:    map[Tier]map[string]decimal.Decimal{},
		Category: map[Tier]map[string]decimal.Decimal{},
		Card:     map[Tier]map[CardType]decimal.Decimal{},
		Coupon:   map[Tier]map[string]decimal.Decimal{},
	}
	for _, d := range records {
		if d.Percentage == nil || d.CustomerTier == "" {
			continue
		}
		tier := d.CustomerTier
		pct := *d.Percentage
		switch {
		case d.BrandName != "":
			if t.Brand[tier] == nil {
				t.Brand[tier] = map[string]decimal.Decimal{}
			}
			t.Brand[tier][d.BrandName] = pct
		case d.Category != "":
			if t.Category[tier] == nil {
				t.Category[tier] = map[string]decimal.Decimal{}
			}
			t.Category[tier][d.Category] = pct
		case d.CardType != "":
			if t.Card[tier] == nil {
				t.Card[tier] = map[CardType]decimal.Decimal{}
			}
			t.Card[tier][d.CardType] = pct
		case d.Code != "":
			if t.Coupon[tier] == nil {
				t.Coupon[tier] = map[string]decimal.Decimal{}
			}
			t.Coupon[tier][d.Code] = pct
		}
	}
	return t
}
