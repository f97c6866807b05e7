package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/events"
	"github.com/noah-isme/backend-kasir/internal/lock"
	"github.com/noah-isme/backend-kasir/internal/obs"
)

// Line references a product and the quantity to reserve for it.
type Line struct {
	ProductID string
	Quantity  int
}

// Service performs the two-phase reservation protocol against the catalog:
// read and check every line under the per-product locks, then decrement and
// persist only when every check passed. Locks, Log, and Events are optional.
type Service struct {
	Store  catalog.Store
	Locks  *lock.Keyed
	Log    zerolog.Logger
	Events *events.Bus
}

// Reserve decrements stock for every line or for none at all. Demand is
// aggregated per product first, so duplicate lines for the same id cannot
// jointly overdraw stock that each line alone would pass.
func (s *Service) Reserve(ctx context.Context, lines []Line) error {
	if s.Store == nil {
		return errors.New("inventory: store not configured")
	}
	demand, ids, err := aggregate(lines)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return s.withLocks(ctx, ids, func(ctx context.Context) error {
		products := make(map[string]catalog.Product, len(ids))
		for _, id := range ids {
			p, err := s.Store.Get(ctx, id)
			if err != nil {
				return err
			}
			if p.Quantity < demand[id] {
				if obs.ReservationTotal != nil {
					obs.ReservationTotal.WithLabelValues("rejected").Inc()
				}
				return catalog.InsufficientStockError{ProductID: id, Requested: demand[id], Available: p.Quantity}
			}
			products[id] = p
		}

		// Every check passed; the decrement must finish even if the caller
		// goes away mid-write.
		persist := context.WithoutCancel(ctx)
		for i, id := range ids {
			p := products[id]
			p.Quantity -= demand[id]
			if err := s.Store.Upsert(persist, p); err != nil {
				s.restore(persist, ids[:i], demand)
				return fmt.Errorf("inventory: persist reservation for product %s: %w", id, err)
			}
		}
		if obs.ReservationTotal != nil {
			obs.ReservationTotal.WithLabelValues("reserved").Inc()
		}
		for _, id := range ids {
			s.emit(persist, events.TopicStockReserved, id, demand[id], products[id].Quantity-demand[id])
		}
		return nil
	})
}

// Release returns previously reserved quantities to stock. It is a
// compensating action, not a rollback: the context is detached so a
// cancelled request still restores stock, lines whose product has
// disappeared are skipped, and store failures are logged rather than
// returned.
func (s *Service) Release(ctx context.Context, lines []Line) {
	if s.Store == nil {
		return
	}
	demand, ids, err := aggregate(lines)
	if err != nil || len(ids) == 0 {
		return
	}
	detached := context.WithoutCancel(ctx)
	_ = s.withLocks(detached, ids, func(ctx context.Context) error {
		for _, id := range ids {
			p, err := s.Store.Get(ctx, id)
			if err != nil {
				var notFound catalog.NotFoundError
				if errors.As(err, &notFound) {
					s.Log.Warn().Str("productId", id).Msg("release skipped: product no longer in catalog")
					continue
				}
				s.Log.Error().Err(err).Str("productId", id).Msg("release read failed")
				continue
			}
			p.Quantity += demand[id]
			if err := s.Store.Upsert(ctx, p); err != nil {
				s.Log.Error().Err(err).Str("productId", id).Msg("release write failed")
				continue
			}
			s.emit(ctx, events.TopicStockReleased, id, demand[id], p.Quantity)
		}
		if obs.ReservationTotal != nil {
			obs.ReservationTotal.WithLabelValues("released").Inc()
		}
		return nil
	})
}

// restore undoes already-persisted decrements after a phase-2 write failure.
func (s *Service) restore(ctx context.Context, written []string, demand map[string]int) {
	for _, id := range written {
		p, err := s.Store.Get(ctx, id)
		if err != nil {
			s.Log.Error().Err(err).Str("productId", id).Msg("restore read failed")
			continue
		}
		p.Quantity += demand[id]
		if err := s.Store.Upsert(ctx, p); err != nil {
			s.Log.Error().Err(err).Str("productId", id).Msg("restore write failed")
		}
	}
}

func (s *Service) emit(ctx context.Context, topic, productID string, quantity, remaining int) {
	if s.Events == nil {
		return
	}
	payload := map[string]any{
		"productId": productID,
		"quantity":  quantity,
		"remaining": remaining,
	}
	if _, err := s.Events.Emit(ctx, topic, productID, payload); err != nil {
		s.Log.Warn().Err(err).Str("topic", topic).Msg("event emit failed")
	}
}

func (s *Service) withLocks(ctx context.Context, ids []string, fn func(context.Context) error) error {
	if s.Locks == nil {
		return fn(ctx)
	}
	return s.Locks.WithLocks(ctx, ids, fn)
}

func aggregate(lines []Line) (map[string]int, []string, error) {
	demand := make(map[string]int, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		id := strings.TrimSpace(l.ProductID)
		if id == "" {
			return nil, nil, errors.New("inventory: product id is required")
		}
		if l.Quantity <= 0 {
			return nil, nil, fmt.Errorf("inventory: product %s: quantity must be positive", id)
		}
		if _, ok := demand[id]; !ok {
			ids = append(ids, id)
		}
		demand[id] += l.Quantity
	}
	sort.Strings(ids)
	return demand, ids, nil
}
