package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/lock"
)

// ErrFloorOutOfRange is returned by SetFloor when the requested floor falls
// outside [0, basePrice].
var ErrFloorOutOfRange = errors.New("floor price out of range")

// Service owns catalog reads, availability checks, and guarded floor updates.
type Service struct {
	store Store
	locks *lock.Keyed
}

// ServiceConfig groups Service dependencies. Locks is optional; without it
// floor updates are unguarded read-modify-write.
type ServiceConfig struct {
	Store Store
	Locks *lock.Keyed
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	return &Service{store: cfg.Store, locks: cfg.Locks}, nil
}

// Get returns the authoritative product record.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Product{}, badRequest("id", "product id is required", nil)
	}
	return s.store.Get(ctx, id)
}

// List returns every product ordered by id.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.store.ListAll(ctx)
}

// SetFloor updates a product's floor price under its per-product lock so the
// read-modify-write cannot interleave with a reservation on the same product.
func (s *Service) SetFloor(ctx context.Context, id string, floor decimal.Decimal) (Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Product{}, badRequest("id", "product id is required", nil)
	}
	var updated Product
	err := s.withProductLock(ctx, id, func(ctx context.Context) error {
		p, err := s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if floor.IsNegative() || floor.GreaterThan(p.BasePrice) {
			return fmt.Errorf("%w: product %s allows 0..%s", ErrFloorOutOfRange, id, p.BasePrice)
		}
		p.FloorPrice = floor
		if err := s.store.Upsert(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	return updated, nil
}

// CheckAvailability verifies the requested quantity is in stock. It returns
// nil when the line can be served, NotFoundError or InsufficientStockError
// otherwise.
func (s *Service) CheckAvailability(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return badRequest("quantity", "quantity must be positive", nil)
	}
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if p.Quantity < quantity {
		return InsufficientStockError{ProductID: id, Requested: quantity, Available: p.Quantity}
	}
	return nil
}

func (s *Service) withProductLock(ctx context.Context, id string, fn func(context.Context) error) error {
	if s.locks == nil {
		return fn(ctx)
	}
	return s.locks.WithLocks(ctx, []string{id}, fn)
}

func badRequest(field, message string, err error) *common.AppError {
	return &common.AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details: map[string]any{
			"field": field,
		},
	}
}
