package discount

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tier is the customer loyalty classification selecting which rule-table row applies.
type Tier string

// Known customer tiers.
const (
	TierPremium Tier = "PREMIUM"
	TierRegular Tier = "REGULAR"
	TierBudget  Tier = "BUDGET"
)

// PaymentMethod identifies how the customer intends to pay.
type PaymentMethod string

// Supported payment methods.
const (
	MethodCard PaymentMethod = "CARD"
	MethodUPI  PaymentMethod = "UPI"
)

// CardType distinguishes card kinds for payment discounts.
type CardType string

// Supported card types.
const (
	CardCredit CardType = "CREDIT"
	CardDebit  CardType = "DEBIT"
)

// Payment describes the payment instrument attached to a pricing run.
// Only card payments with a recognised card type qualify for payment discounts.
type Payment struct {
	Method   PaymentMethod `json:"method"`
	CardType CardType      `json:"cardType,omitempty"`
	Bank     string        `json:"bank,omitempty"`
}

// Purchase carries the buyer context shared by every line in a pricing run.
type Purchase struct {
	Tier    Tier
	Payment *Payment
	Code    string
}

// Item is the per-line pricing view the strategies operate on. Price is the
// running price and is mutated by Apply; Floor is the minimum it may reach.
type Item struct {
	ProductID string
	Brand     string
	Category  string
	Price     decimal.Decimal
	Floor     decimal.Decimal
}

// Discount is a generic rule-table entry. Exactly one of Amount or Percentage
// must be set; the scoping fields narrow where the entry applies.
type Discount struct {
	Name         string           `json:"name" validate:"required"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	Percentage   *decimal.Decimal `json:"percentage,omitempty"`
	BrandTier    string           `json:"brandTier,omitempty"`
	BrandName    string           `json:"brandName,omitempty"`
	Category     string           `json:"category,omitempty"`
	CardType     CardType         `json:"cardType,omitempty"`
	CustomerTier Tier             `json:"customerTier,omitempty"`
	Code         string           `json:"code,omitempty"`
	StartDate    *time.Time       `json:"startDate,omitempty"`
	EndDate      *time.Time       `json:"endDate,omitempty"`
}

// ActiveAt reports whether the discount's validity window covers the instant.
// Open-ended sides are treated as unbounded.
func (d Discount) ActiveAt(now time.Time) bool {
	if d.StartDate != nil && now.Before(*d.StartDate) {
		return false
	}
	if d.EndDate != nil && now.After(*d.EndDate) {
		return false
	}
	return true
}
