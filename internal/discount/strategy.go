package discount

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Strategy is the contract shared by every discount rule in the chain.
// IsApplicable is a pure eligibility check; Apply re-checks eligibility and
// mutates the item's running price only when eligible, reporting the amount
// actually deducted after the floor clamp.
type Strategy interface {
	Name() string
	IsApplicable(item Item, p Purchase, rules Rules) bool
	Apply(item *Item, p Purchase, rules Rules) (bool, decimal.Decimal)
}

// DefaultChain returns the canonical application order:
// category, brand, payment, coupon. The order matters because strategies
// compound against the running price.
func DefaultChain() []Strategy {
	return []Strategy{NewCategory(""), NewBrand(""), NewPayment(""), NewCoupon("")}
}

// UsesCode reports whether the strategy's eligibility depends on the coupon code.
func UsesCode(s Strategy) bool {
	_, ok := s.(couponStrategy)
	return ok
}

// deduct lowers the running price by pct of itself, clamped to the floor,
// and returns the delta actually taken off.
func deduct(item *Item, pct decimal.Decimal) decimal.Decimal {
	before := item.Price
	after := decimal.Max(before.Sub(before.Mul(pct)), item.Floor)
	item.Price = after
	return before.Sub(after)
}

type brandStrategy struct {
	name string
}

// NewBrand builds the brand-keyed strategy. An empty name defaults to "brand".
func NewBrand(name string) Strategy {
	if strings.TrimSpace(name) == "" {
		name = "brand"
	}
	return brandStrategy{name: name}
}

func (s brandStrategy) Name() string { return s.name }

func (s brandStrategy) IsApplicable(item Item, p Purchase, rules Rules) bool {
	if rules == nil {
		return false
	}
	_, ok := rules.BrandPercent(p.Tier, item.Brand)
	return ok
}

func (s brandStrategy) Apply(item *Item, p Purchase, rules Rules) (bool, decimal.Decimal) {
	if item == nil || !s.IsApplicable(*item, p, rules) {
		return false, decimal.Zero
	}
	pct, _ := rules.BrandPercent(p.Tier, item.Brand)
	return true, deduct(item, pct)
}

type categoryStrategy struct {
	name string
}

// NewCategory builds the category-keyed strategy. An empty name defaults to "category".
func NewCategory(name string) Strategy {
	if strings.TrimSpace(name) == "" {
		name = "category"
	}
	return categoryStrategy{name: name}
}

func (s categoryStrategy) Name() string { return s.name }

func (s categoryStrategy) IsApplicable(item Item, p Purchase, rules Rules) bool {
	if rules == nil {
		return false
	}
	_, ok := rules.CategoryPercent(p.Tier, item.Category)
	return ok
}

func (s categoryStrategy) Apply(item *Item, p Purchase, rules Rules) (bool, decimal.Decimal) {
	if item == nil || !s.IsApplicable(*item, p, rules) {
		return false, decimal.Zero
	}
	pct, _ := rules.CategoryPercent(p.Tier, item.Category)
	return true, deduct(item, pct)
}

type paymentStrategy struct {
	name string
}

// NewPayment builds the card-type strategy. An empty name defaults to "payment".
func NewPayment(name string) Strategy {
	if strings.TrimSpace(name) == "" {
		name = "payment"
	}
	return paymentStrategy{name: name}
}

func (s paymentStrategy) Name() string { return s.name }

// IsApplicable requires a card payment with a card type listed for the tier.
// UPI and missing payment info are never eligible.
func (s paymentStrategy) IsApplicable(item Item, p Purchase, rules Rules) bool {
	if rules == nil || p.Payment == nil {
		return false
	}
	if p.Payment.Method != MethodCard || p.Payment.CardType == "" {
		return false
	}
	_, ok := rules.CardPercent(p.Tier, p.Payment.CardType)
	return ok
}

func (s paymentStrategy) Apply(item *Item, p Purchase, rules Rules) (bool, decimal.Decimal) {
	if item == nil || !s.IsApplicable(*item, p, rules) {
		return false, decimal.Zero
	}
	pct, _ := rules.CardPercent(p.Tier, p.Payment.CardType)
	return true, deduct(item, pct)
}

type couponStrategy struct {
	name string
}

// NewCoupon builds the coupon-code strategy. An empty name defaults to "coupon".
func NewCoupon(name string) Strategy {
	if strings.TrimSpace(name) == "" {
		name = "coupon"
	}
	return couponStrategy{name: name}
}

func (s couponStrategy) Name() string { return s.name }

func (s couponStrategy) IsApplicable(item Item, p Purchase, rules Rules) bool {
	if rules == nil {
		return false
	}
	code := strings.TrimSpace(p.Code)
	if code == "" {
		return false
	}
	_, ok := rules.CouponPercent(p.Tier, code)
	return ok
}

func (s couponStrategy) Apply(item *Item, p Purchase, rules Rules) (bool, decimal.Decimal) {
	if item == nil || !s.IsApplicable(*item, p, rules) {
		return false, decimal.Zero
	}
	pct, _ := rules.CouponPercent(p.Tier, strings.TrimSpace(p.Code))
	return true, deduct(item, pct)
}
