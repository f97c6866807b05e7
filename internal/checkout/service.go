package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/discount"
	"github.com/noah-isme/backend-kasir/internal/events"
	"github.com/noah-isme/backend-kasir/internal/inventory"
	"github.com/noah-isme/backend-kasir/internal/obs"
)

// CartItem pairs a caller-supplied product snapshot with a requested
// quantity. The snapshot's price fields are advisory; pricing always works
// from a fresh catalog read.
type CartItem struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Customer identifies the buyer. Tier selects which row of every discount
// table applies.
type Customer struct {
	ID    string        `json:"id"`
	Name  string        `json:"name,omitempty"`
	Email string        `json:"email,omitempty"`
	Tier  discount.Tier `json:"tier"`
}

// Quote is the priced result of a pricing run. AppliedDiscounts maps product
// id to strategy name to the per-unit amount that strategy actually deducted
// after the floor clamp.
type Quote struct {
	OriginalPrice    decimal.Decimal                       `json:"originalPrice"`
	FinalPrice       decimal.Decimal                       `json:"finalPrice"`
	AppliedDiscounts map[string]map[string]decimal.Decimal `json:"appliedDiscounts"`
	Message          string                                `json:"message"`
}

// InvalidCodeError reports a discount code failing an applicability check
// for a cart line.
type InvalidCodeError struct {
	Code      string
	ProductID string
}

func (e InvalidCodeError) Error() string {
	return fmt.Sprintf("discount code %s is not valid for product %s", e.Code, e.ProductID)
}

// Service runs the strategy chain over cart lines against live catalog
// state, with optional stock reservation around the run.
type Service struct {
	catalog    *catalog.Service
	inventory  *inventory.Service
	rules      discount.Rules
	strategies []discount.Strategy
	log        zerolog.Logger
	events     *events.Bus
}

// ServiceConfig groups Service dependencies. Inventory and Events are
// optional; Strategies defaults to the canonical chain
// (category, brand, payment, coupon) when empty.
type ServiceConfig struct {
	Catalog    *catalog.Service
	Inventory  *inventory.Service
	Rules      discount.Rules
	Strategies []discount.Strategy
	Log        zerolog.Logger
	Events     *events.Bus
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("checkout: catalog service is required")
	}
	if cfg.Rules == nil {
		return nil, errors.New("checkout: discount rules are required")
	}
	strategies := cfg.Strategies
	if len(strategies) == 0 {
		strategies = discount.DefaultChain()
	}
	return &Service{
		catalog:    cfg.Catalog,
		inventory:  cfg.Inventory,
		rules:      cfg.Rules,
		strategies: append([]discount.Strategy(nil), strategies...),
		log:        cfg.Log,
		events:     cfg.Events,
	}, nil
}

// AddStrategy appends a strategy to the end of the chain. The chain is
// append-only because order is significant: each strategy compounds on the
// running price left by the previous one.
func (s *Service) AddStrategy(st discount.Strategy) {
	if st == nil {
		return
	}
	s.strategies = append(s.strategies, st)
}

// CalculateCartDiscounts prices the cart. Every line's stock is validated
// first; when reserveStock is set the lines are then reserved for the
// duration of the run. Each line is priced from a fresh catalog read, never
// from the caller's snapshot. Any failure after a successful reservation
// releases the reserved stock before the error is returned.
func (s *Service) CalculateCartDiscounts(ctx context.Context, items []CartItem, customer Customer, payment *discount.Payment, code string, reserveStock bool) (Quote, error) {
	start := time.Now()
	quote, err := s.calculate(ctx, items, customer, payment, code, reserveStock)
	s.observeQuote(start, err)
	if err != nil {
		return Quote{}, err
	}
	if s.events != nil {
		payload := map[string]any{
			"customerId":    customer.ID,
			"originalPrice": quote.OriginalPrice,
			"finalPrice":    quote.FinalPrice,
		}
		_, _ = s.events.Emit(ctx, events.TopicQuoteComputed, customer.ID, payload)
	}
	return quote, nil
}

func (s *Service) calculate(ctx context.Context, items []CartItem, customer Customer, payment *discount.Payment, code string, reserveStock bool) (Quote, error) {
	if len(items) == 0 {
		return Quote{}, errors.New("checkout: cart is empty")
	}
	for _, it := range items {
		if err := s.catalog.CheckAvailability(ctx, it.Product.ID, it.Quantity); err != nil {
			return Quote{}, err
		}
	}
	reserved := false
	if reserveStock {
		if s.inventory == nil {
			return Quote{}, errors.New("checkout: inventory service not configured")
		}
		if err := s.inventory.Reserve(ctx, reservationLines(items)); err != nil {
			return Quote{}, err
		}
		reserved = true
	}
	quote, err := s.price(ctx, items, customer, payment, code)
	if err != nil {
		if reserved {
			s.log.Warn().Err(err).Msg("pricing failed after reservation, releasing stock")
			s.inventory.Release(ctx, reservationLines(items))
		}
		return Quote{}, err
	}
	return quote, nil
}

// price runs the strategy chain per line. The running price starts from the
// catalog's current price and every applied deduction is recorded per unit
// under the product's id.
func (s *Service) price(ctx context.Context, items []CartItem, customer Customer, payment *discount.Payment, code string) (Quote, error) {
	purchase := discount.Purchase{Tier: customer.Tier, Payment: payment, Code: code}
	ledger := make(map[string]map[string]decimal.Decimal)
	original := decimal.Zero
	final := decimal.Zero

	for _, it := range items {
		authoritative, err := s.catalog.Get(ctx, it.Product.ID)
		if err != nil {
			return Quote{}, err
		}
		qty := decimal.NewFromInt(int64(it.Quantity))
		original = original.Add(authoritative.CurrentPrice.Mul(qty))

		line := discount.Item{
			ProductID: authoritative.ID,
			Brand:     authoritative.Brand,
			Category:  authoritative.Category,
			Price:     authoritative.CurrentPrice,
			Floor:     authoritative.FloorPrice,
		}
		for _, st := range s.strategies {
			applied, amount := st.Apply(&line, purchase, s.rules)
			if !applied {
				continue
			}
			if ledger[line.ProductID] == nil {
				ledger[line.ProductID] = make(map[string]decimal.Decimal)
			}
			ledger[line.ProductID][st.Name()] = amount
		}
		final = final.Add(line.Price.Mul(qty))
	}

	if obs.QuoteSavingsTotal != nil {
		obs.QuoteSavingsTotal.Add(original.Sub(final).InexactFloat64())
	}
	return Quote{
		OriginalPrice:    original,
		FinalPrice:       final,
		AppliedDiscounts: ledger,
		Message:          fmt.Sprintf("final price after applying discounts: %s", final),
	}, nil
}

// ValidateDiscountCode reports whether the code can be applied to the cart.
// The check is read-only: stock availability is re-validated first, then the
// code-consuming strategies are evaluated per line. Strategies that do not
// consume the code (brand, category, payment) are skipped, so an ineligible
// brand discount cannot invalidate an otherwise valid coupon.
func (s *Service) ValidateDiscountCode(ctx context.Context, code string, items []CartItem, customer Customer) (bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return false, errors.New("checkout: code is required")
	}
	for _, it := range items {
		if err := s.catalog.CheckAvailability(ctx, it.Product.ID, it.Quantity); err != nil {
			return false, err
		}
	}
	purchase := discount.Purchase{Tier: customer.Tier, Code: code}
	for _, it := range items {
		authoritative, err := s.catalog.Get(ctx, it.Product.ID)
		if err != nil {
			return false, err
		}
		line := discount.Item{
			ProductID: authoritative.ID,
			Brand:     authoritative.Brand,
			Category:  authoritative.Category,
			Price:     authoritative.CurrentPrice,
			Floor:     authoritative.FloorPrice,
		}
		for _, st := range s.strategies {
			if !discount.UsesCode(st) {
				continue
			}
			if st.IsApplicable(line, purchase, s.rules) {
				continue
			}
			if obs.CodeValidationTotal != nil {
				obs.CodeValidationTotal.WithLabelValues("rejected").Inc()
			}
			if s.events != nil {
				_, _ = s.events.Emit(ctx, events.TopicCodeRejected, authoritative.ID, map[string]any{
					"code":      code,
					"productId": authoritative.ID,
				})
			}
			return false, InvalidCodeError{Code: code, ProductID: authoritative.ID}
		}
	}
	if obs.CodeValidationTotal != nil {
		obs.CodeValidationTotal.WithLabelValues("accepted").Inc()
	}
	return true, nil
}

func (s *Service) observeQuote(start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	if obs.QuoteTotal != nil {
		obs.QuoteTotal.WithLabelValues(result).Inc()
	}
	if obs.QuoteDuration != nil {
		obs.QuoteDuration.WithLabelValues(result).Observe(obs.DurationMillis(time.Since(start)))
	}
}

func reservationLines(items []CartItem) []inventory.Line {
	lines := make([]inventory.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, inventory.Line{ProductID: it.Product.ID, Quantity: it.Quantity})
	}
	return lines
}
