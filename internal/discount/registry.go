package discount

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrRuleNotFound is returned by Registry.Get for unknown rule names.
var ErrRuleNotFound = errors.New("discount rule not found")

// Registry is the validated write-side store for discount rules. Reads are
// concurrency-safe; Upsert rejects malformed rules before they can reach a
// lookup table.
type Registry struct {
	mu       sync.RWMutex
	byName   map[string]Discount
	validate *validator.Validate
}

// NewRegistry builds an empty registry with the rule validator attached.
func NewRegistry() *Registry {
	v := validator.New()
	v.RegisterCustomTypeFunc(decimalAsFloat, decimal.Decimal{})
	v.RegisterStructValidation(validateDiscount, Discount{})
	return &Registry{
		byName:   make(map[string]Discount),
		validate: v,
	}
}

// decimalAsFloat lets tag-based rules treat decimal fields as numbers.
func decimalAsFloat(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

// validateDiscount enforces the cross-field rules tags cannot express:
// exactly one of Amount or Percentage, both within range, and a validity
// window that does not end before it starts.
func validateDiscount(sl validator.StructLevel) {
	d := sl.Current().Interface().(Discount)
	if (d.Amount == nil) == (d.Percentage == nil) {
		sl.ReportError(d.Amount, "amount", "Amount", "amount_xor_percentage", "")
	}
	if d.Amount != nil && d.Amount.IsNegative() {
		sl.ReportError(d.Amount, "amount", "Amount", "gte", "0")
	}
	if d.Percentage != nil && (d.Percentage.IsNegative() || d.Percentage.GreaterThan(decimal.NewFromInt(1))) {
		sl.ReportError(d.Percentage, "percentage", "Percentage", "unit_interval", "")
	}
	if d.StartDate != nil && d.EndDate != nil && d.EndDate.Before(*d.StartDate) {
		sl.ReportError(d.EndDate, "endDate", "EndDate", "gtefield", "StartDate")
	}
}

// Upsert validates the rule and stores it under its name, replacing any
// previous entry with the same name.
func (r *Registry) Upsert(d Discount) error {
	if err := r.validate.Struct(d); err != nil {
		return fmt.Errorf("discount %q: %w", d.Name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[d.Name] = d
	return nil
}

// Get returns the rule stored under name.
func (r *Registry) Get(name string) (Discount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[name]
	if !ok {
		return Discount{}, fmt.Errorf("%w: %s", ErrRuleNotFound, name)
	}
	return d, nil
}

// List returns every stored rule ordered by name.
func (r *Registry) List() []Discount {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Discount, 0, len(r.byName))
	for _, d := range r.byName {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Table materialises the percentage rules active at the given instant into
// the lookup maps the strategies consult.
func (r *Registry) Table(now time.Time) *Table {
	r.mu.RLock()
	defer r.mu.RUnlock()
	active := make([]Discount, 0, len(r.byName))
	for _, d := range r.byName {
		if d.ActiveAt(now) {
			active = append(active, d)
		}
	}
	return TableFromDiscounts(active)
}

// Rules returns a live Rules view over the registry. Every lookup sees the
// rule set as of the call, including time-windowed activation.
func (r *Registry) Rules() Rules { return registryRules{r} }

type registryRules struct {
	r *Registry
}

func (v registryRules) BrandPercent(tier Tier, brand string) (decimal.Decimal, bool) {
	return v.r.Table(time.Now()).BrandPercent(tier, brand)
}

func (v registryRules) CategoryPercent(tier Tier, category string) (decimal.Decimal, bool) {
	return v.r.Table(time.Now()).CategoryPercent(tier, category)
}

func (v registryRules) CardPercent(tier Tier, card CardType) (decimal.Decimal, bool) {
	return v.r.Table(time.Now()).CardPercent(tier, card)
}

func (v registryRules) CouponPercent(tier Tier, code string) (decimal.Decimal, bool) {
	return v.r.Table(time.Now()).CouponPercent(tier, code)
}
