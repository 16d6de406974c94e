package repository

import (
	"context"
	"errors"
	"testing"

	"restopos/internal/domain"
)

func TestMemoryStore_ProductCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	p := domain.Product{Name: "Latte", SKU: "LAT", Price: 25000, Modifiers: []domain.Modifier{{ID: "oat", Name: "Oat milk", Price: 5000}}}
	if err := store.Create(ctx, &p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == 0 {
		t.Fatalf("no id")
	}

	got, err := store.GetByID(ctx, p.ID)
	if err != nil || got.ID != p.ID {
		t.Fatalf("get: %v", err)
	}
	// returned copy must not alias stored modifiers
	got.Modifiers[0].Price = 1
	again, _ := store.GetByID(ctx, p.ID)
	if again.Modifiers[0].Price != 5000 {
		t.Fatalf("stored modifier mutated through copy")
	}

	p.Price = 27000
	if err := store.Update(ctx, &p); err != nil {
		t.Fatalf("update: %v", err)
	}

	if err := store.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetByID(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryTx_TransactionalUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tx := NewMemoryTx(store)
	orders := NewMemoryOrders(store)

	o := domain.Order{Type: domain.OrderTypeDineIn, Status: domain.OrderStatusOrdered, Items: []domain.LineItem{}}
	if err := orders.Create(ctx, &o); err != nil {
		t.Fatal(err)
	}

	err := tx.WithTransaction(ctx, func(ctx context.Context) error {
		cur, err := orders.GetByID(ctx, o.ID)
		if err != nil {
			return err
		}
		cur.Status = domain.OrderStatusPreparing
		// nested transaction joins the outer one
		return tx.WithTransaction(ctx, func(ctx context.Context) error {
			return orders.Update(ctx, cur)
		})
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	got, _ := orders.GetByID(context.Background(), o.ID)
	if got.Status != domain.OrderStatusPreparing {
		t.Fatalf("status expected PREPARING, got %v", got.Status)
	}
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Fatalf("updated_at not bumped")
	}
}

func TestList_Filtering(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	add := func(n string, price domain.Money) {
		p := domain.Product{Name: n, SKU: n, Price: price}
		if err := store.Create(ctx, &p); err != nil {
			t.Fatal(err)
		}
	}
	add("Espresso", 100)
	add("Cappuccino", 50)
	add("Mocha", 150)

	// name contains
	list, _ := store.List(ctx, ProductFilter{NameSubstring: "ccino"})
	if len(list) != 1 {
		t.Fatalf("name filter returned %d", len(list))
	}

	// min
	min := domain.Money(100)
	list, _ = store.List(ctx, ProductFilter{MinPrice: &min})
	for _, p := range list {
		if p.Price < min {
			t.Fatalf("min filter fail")
		}
	}

	// max
	max := domain.Money(100)
	list, _ = store.List(ctx, ProductFilter{MaxPrice: &max})
	for _, p := range list {
		if p.Price > max {
			t.Fatalf("max filter fail")
		}
	}
	if len(list) != 2 || list[0].ID > list[1].ID {
		t.Fatalf("expected two products ordered by id")
	}
}

func TestMemoryOrders_ListFilter(t *testing.T) {
	ctx := context.Background()
	orders := NewMemoryOrders(NewMemoryStore())
	mk := func(table string, st domain.OrderStatus) {
		o := domain.Order{Status: st, Items: []domain.LineItem{}}
		if table != "" {
			o.Table = &domain.TableRef{ID: table}
		}
		if err := orders.Create(ctx, &o); err != nil {
			t.Fatal(err)
		}
	}
	mk("t1", domain.OrderStatusOrdered)
	mk("t1", domain.OrderStatusReady)
	mk("", domain.OrderStatusOrdered)

	all, _ := orders.List(ctx, OrderFilter{})
	if len(all) != 3 {
		t.Fatalf("expected 3, got %d", len(all))
	}
	byTable, _ := orders.List(ctx, OrderFilter{TableID: "t1"})
	if len(byTable) != 2 {
		t.Fatalf("table filter returned %d", len(byTable))
	}
	both, _ := orders.List(ctx, OrderFilter{TableID: "t1", Status: domain.OrderStatusOrdered})
	if len(both) != 1 || both[0].ID != 1 {
		t.Fatalf("combined filter returned %+v", both)
	}
}

func TestMemoryDrafts(t *testing.T) {
	ctx := context.Background()
	drafts := NewMemoryDrafts(NewMemoryStore())

	if _, err := drafts.LoadDraft(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	o := domain.Order{Status: domain.OrderStatusDraft, Items: []domain.LineItem{{ID: "l1", Quantity: 2, UnitPrice: 5, TotalPrice: 10}}}
	if err := drafts.SaveDraft(ctx, "s1", o); err != nil {
		t.Fatal(err)
	}
	o.Items[0].Quantity = 7

	got, err := drafts.LoadDraft(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Items[0].Quantity != 2 {
		t.Fatalf("draft aliased caller slice")
	}
	if err := drafts.DeleteDraft(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if _, err := drafts.LoadDraft(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("draft not deleted")
	}
}
