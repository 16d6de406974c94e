package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"restopos/internal/domain"
	"restopos/internal/pos"
	"restopos/internal/repository"
)

func TestSession_ScenarioTotals(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	a, _ := f.products.Create(ctx, domain.Product{Name: "Nasi Goreng", SKU: "NG", Price: 50000})
	b, _ := f.products.Create(ctx, domain.Product{Name: "Es Teh Manis", SKU: "ETM", Price: 35000})

	id, snap, err := f.sessions.Open(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Status != domain.OrderStatusDraft || len(snap.Items) != 0 {
		t.Fatalf("unexpected fresh draft %+v", snap)
	}
	if _, err := f.sessions.Dispatch(ctx, id, pos.SetTable{ID: "t1", TableName: "Table 1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.sessions.AddProduct(ctx, id, AddProductInput{ProductID: a.ID, Quantity: 2}); err != nil {
		t.Fatal(err)
	}
	o, err := f.sessions.AddProduct(ctx, id, AddProductInput{ProductID: b.ID, Quantity: 1})
	if err != nil {
		t.Fatal(err)
	}
	if o.Subtotal != 135000 || o.Tax != 13500 || o.Total != 148500 {
		t.Fatalf("totals %d/%d/%d", o.Subtotal, o.Tax, o.Total)
	}
	if o.Table == nil || o.Table.ID != "t1" {
		t.Fatalf("table lost: %+v", o.Table)
	}
}

func TestSession_ModifiersAndPriceSnapshot(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p, _ := f.products.Create(ctx, domain.Product{Name: "Latte", SKU: "LT", Price: 30000,
		Modifiers: []domain.Modifier{{ID: "oat", Name: "Oat milk", Price: 5000}, {ID: "ice", Name: "Iced", Price: 0}}})
	id, _, _ := f.sessions.Open(ctx)

	o, err := f.sessions.AddProduct(ctx, id, AddProductInput{ProductID: p.ID, Quantity: 2, ModifierIDs: []string{"oat"}})
	if err != nil {
		t.Fatal(err)
	}
	if o.Items[0].UnitPrice != 35000 || o.Items[0].TotalPrice != 70000 {
		t.Fatalf("unexpected line %+v", o.Items[0])
	}

	// catalog change does not touch existing lines
	if _, err := f.products.Update(ctx, domain.Product{ID: p.ID, Name: "Latte", Price: 40000}); err != nil {
		t.Fatal(err)
	}
	o, _ = f.sessions.Snapshot(ctx, id)
	if o.Items[0].UnitPrice != 35000 || len(o.Items[0].Modifiers) != 1 {
		t.Fatalf("line changed after catalog update: %+v", o.Items[0])
	}

	_, err = f.sessions.AddProduct(ctx, id, AddProductInput{ProductID: p.ID, ModifierIDs: []string{"oat"}})
	var verr *pos.ValidationError
	if !errors.As(err, &verr) || verr.Field != "modifier_ids" {
		t.Fatalf("expected modifier validation error, got %v", err)
	}
	if _, err := f.sessions.AddProduct(ctx, id, AddProductInput{ProductID: 404}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSession_RejectedCommandKeepsDraft(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	id := f.openWithItem(t, ctx)
	before, _ := f.sessions.Snapshot(ctx, id)

	after, err := f.sessions.Dispatch(ctx, id, pos.UpdateQuantity{Index: 5, Quantity: 1})
	var verr *pos.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if after.Total != before.Total || len(after.Items) != len(before.Items) {
		t.Fatalf("draft changed on rejected command")
	}
	saved, _ := f.drafts.LoadDraft(ctx, id)
	if saved.Total != before.Total {
		t.Fatalf("stored draft diverged")
	}
}

func TestSession_ResumeFromDraftStore(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	drafts := repository.NewMemoryDrafts(store)
	log := zap.NewNop().Sugar()
	ps := NewProductService(store)
	p, _ := ps.Create(ctx, domain.Product{Name: "Soto", SKU: "SO", Price: 20000})

	first := NewSessionService(store, drafts, pos.NewReducer(), log)
	id, _, _ := first.Open(ctx)
	if _, err := first.AddProduct(ctx, id, AddProductInput{ProductID: p.ID, Quantity: 3}); err != nil {
		t.Fatal(err)
	}

	// a fresh process sharing the same draft store
	second := NewSessionService(store, drafts, pos.NewReducer(), log)
	o, err := second.Snapshot(ctx, id)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if len(o.Items) != 1 || o.Items[0].Quantity != 3 || o.Total != 66000 {
		t.Fatalf("unexpected resumed draft %+v", o)
	}
	if _, err := second.Dispatch(ctx, id, pos.SetNotes{Text: "no chili"}); err != nil {
		t.Fatal(err)
	}
	saved, _ := drafts.LoadDraft(ctx, id)
	if saved.Notes != "no chili" {
		t.Fatalf("resumed session does not persist drafts")
	}

	if _, err := second.Snapshot(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func TestSession_Discard(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	id := f.openWithItem(t, ctx)
	if err := f.sessions.Discard(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := f.sessions.Dispatch(ctx, id, pos.Clear{}); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	if err := f.sessions.Discard(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("second discard: %v", err)
	}
}

type interceptingOrders struct {
	repository.OrderRepository
	onCreate func()
	fail     error
}

func (r *interceptingOrders) Create(ctx context.Context, o *domain.Order) error {
	if r.onCreate != nil {
		r.onCreate()
	}
	if r.fail != nil {
		return r.fail
	}
	return r.OrderRepository.Create(ctx, o)
}

func TestSubmit_SessionNotResumedWhileSubmitting(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	store := repository.NewMemoryStore()
	orders := &interceptingOrders{OrderRepository: repository.NewMemoryOrders(store)}
	osvc := NewOrderService(f.sessions, orders, repository.NewMemoryTx(store), f.notifier, zap.NewNop().Sugar())

	id := f.openWithItem(t, ctx)
	_, _ = f.sessions.Dispatch(ctx, id, pos.SetTable{ID: "t1"})

	// storage failure keeps the session open
	orders.fail = errors.New("db down")
	if _, err := osvc.Submit(ctx, id); err == nil {
		t.Fatalf("expected persist error")
	}
	orders.fail = nil
	if _, err := f.sessions.Snapshot(ctx, id); err != nil {
		t.Fatalf("session lost after failed submit: %v", err)
	}

	var during error
	orders.onCreate = func() { _, during = f.sessions.Snapshot(ctx, id) }
	if _, err := osvc.Submit(ctx, id); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !errors.Is(during, ErrSessionNotFound) {
		t.Fatalf("session readable while being submitted: %v", during)
	}
	orders.onCreate = nil

	if _, err := osvc.Submit(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("second submit: %v", err)
	}
	list, _ := orders.List(ctx, repository.OrderFilter{})
	if len(list) != 1 {
		t.Fatalf("expected one stored order, got %d", len(list))
	}
}

func TestDiscard_SessionNotResumedBeforeRelease(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	id := f.openWithItem(t, ctx)

	sess, _, err := f.sessions.detach(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.sessions.Snapshot(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("detached session resumed: %v", err)
	}
	f.sessions.release(ctx, id, sess)

	if _, err := f.sessions.Dispatch(ctx, id, pos.SetNotes{Text: "late"}); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("discarded session accepts commands: %v", err)
	}
	if _, err := f.drafts.LoadDraft(ctx, id); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("discarded draft written back")
	}
}

type stickyDrafts struct {
	repository.DraftStore
}

func (stickyDrafts) DeleteDraft(context.Context, string) error { return errors.New("cache unavailable") }

func TestDiscard_UndeletedDraftStaysClosed(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	drafts := stickyDrafts{DraftStore: repository.NewMemoryDrafts(store)}
	ss := NewSessionService(store, drafts, pos.NewReducer(), zap.NewNop().Sugar())

	id, _, err := ss.Open(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := ss.Discard(ctx, id); err != nil {
		t.Fatal(err)
	}
	if _, err := drafts.LoadDraft(ctx, id); err != nil {
		t.Fatalf("draft should still be stored: %v", err)
	}
	if _, err := ss.Snapshot(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("discarded session resumed from leftover draft: %v", err)
	}
}

func TestAddProduct_RejectsOverflowingLine(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p, err := f.products.Create(ctx, domain.Product{Name: "Gold", SKU: "AU", Price: 1 << 61})
	if err != nil {
		t.Fatal(err)
	}
	id, _, _ := f.sessions.Open(ctx)
	o, err := f.sessions.AddProduct(ctx, id, AddProductInput{ProductID: p.ID, Quantity: 4})
	var verr *pos.ValidationError
	if !errors.As(err, &verr) || verr.Field != "quantity" {
		t.Fatalf("expected quantity validation error, got %v", err)
	}
	if len(o.Items) != 0 || o.Total != 0 {
		t.Fatalf("draft changed: %+v", o)
	}
}
