// Command demo runs the pricing pipeline in-process against the sample data
// and prints each step, without needing the HTTP server or Redis.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/checkout"
	"github.com/noah-isme/backend-kasir/internal/discount"
	"github.com/noah-isme/backend-kasir/internal/inventory"
	"github.com/noah-isme/backend-kasir/internal/lock"
	"github.com/noah-isme/backend-kasir/internal/seed"
)

func main() {
	ctx := context.Background()

	store := catalog.NewMemoryStore()
	registry := discount.NewRegistry()
	if err := seed.Apply(ctx, store, registry); err != nil {
		log.Fatalf("seed sample data: %v", err)
	}

	locks := lock.NewKeyed()
	catalogSvc, err := catalog.NewService(catalog.ServiceConfig{Store: store, Locks: locks})
	if err != nil {
		log.Fatalf("catalog service: %v", err)
	}
	inventorySvc := &inventory.Service{Store: store, Locks: locks}
	pricing, err := checkout.NewService(checkout.ServiceConfig{
		Catalog:   catalogSvc,
		Inventory: inventorySvc,
		Rules:     registry.Rules(),
	})
	if err != nil {
		log.Fatalf("checkout service: %v", err)
	}

	customer := checkout.Customer{ID: "demo", Name: "Demo Customer", Tier: discount.TierPremium}
	payment := &discount.Payment{Method: discount.MethodCard, CardType: discount.CardDebit}
	items := []checkout.CartItem{
		{Product: catalog.Product{ID: "1"}, Quantity: 2},
		{Product: catalog.Product{ID: "2"}, Quantity: 1},
	}

	fmt.Println("== cart ==")
	for _, it := range items {
		p, err := catalogSvc.Get(ctx, it.Product.ID)
		if err != nil {
			log.Fatalf("load product %s: %v", it.Product.ID, err)
		}
		fmt.Printf("%s x%d  %s (floor %s, stock %d)\n", p.Brand, it.Quantity, p.CurrentPrice, p.FloorPrice, p.Quantity)
	}

	valid, err := pricing.ValidateDiscountCode(ctx, "PUMA10", items, customer)
	if err != nil {
		log.Fatalf("validate code: %v", err)
	}
	fmt.Printf("\ncode PUMA10 valid: %v\n", valid)

	quote, err := pricing.CalculateCartDiscounts(ctx, items, customer, payment, "PUMA10", true)
	if err != nil {
		log.Fatalf("quote: %v", err)
	}

	fmt.Println("\n== quote (stock reserved) ==")
	pretty, err := json.MarshalIndent(quote, "", "  ")
	if err != nil {
		log.Fatalf("encode quote: %v", err)
	}
	fmt.Println(string(pretty))

	fmt.Println("\n== stock after reservation ==")
	printStock(ctx, store)

	lines := make([]inventory.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, inventory.Line{ProductID: it.Product.ID, Quantity: it.Quantity})
	}
	inventorySvc.Release(ctx, lines)

	fmt.Println("\n== stock after release ==")
	printStock(ctx, store)
}

func printStock(ctx context.Context, store catalog.Store) {
	products, err := store.ListAll(ctx)
	if err != nil {
		log.Fatalf("list products: %v", err)
	}
	for _, p := range products {
		fmt.Printf("%s: %d\n", p.Brand, p.Quantity)
	}
}
