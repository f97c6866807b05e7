package catalog

import "fmt"

// NotFoundError reports a product id absent from the catalog.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ID)
}

// InsufficientStockError reports a requested quantity exceeding the stock on
// hand. Requested is the aggregate demand that failed, Available the stock at
// the time of the check.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}
