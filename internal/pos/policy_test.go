package pos

import (
	"errors"
	"testing"

	"restopos/internal/domain"
)

func TestStrictPolicy(t *testing.T) {
	tests := []struct {
		from, to domain.OrderStatus
		ok       bool
	}{
		{domain.OrderStatusDraft, domain.OrderStatusOrdered, true},
		{domain.OrderStatusOrdered, domain.OrderStatusPreparing, true},
		{domain.OrderStatusPreparing, domain.OrderStatusReady, true},
		{domain.OrderStatusReady, domain.OrderStatusCompleted, true},
		{domain.OrderStatusDraft, domain.OrderStatusCancelled, true},
		{domain.OrderStatusReady, domain.OrderStatusCancelled, true},
		{domain.OrderStatusDraft, domain.OrderStatusReady, false},
		{domain.OrderStatusPreparing, domain.OrderStatusOrdered, false},
		{domain.OrderStatusCompleted, domain.OrderStatusCancelled, false},
		{domain.OrderStatusCancelled, domain.OrderStatusDraft, false},
		{domain.OrderStatusOrdered, domain.OrderStatusOrdered, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := Strict.Allow(tt.from, tt.to)
			if (err == nil) != tt.ok {
				t.Fatalf("Allow() error = %v, want ok %v", err, tt.ok)
			}
			if err != nil {
				var ite *IllegalTransitionError
				if !errors.As(err, &ite) || ite.From != tt.from || ite.To != tt.to {
					t.Fatalf("unexpected error %v", err)
				}
			}
		})
	}
}

func TestPermissivePolicyAllowsAnything(t *testing.T) {
	r := newTestReducer()
	o := mustApply(t, r, NewOrder(), SetStatus{Status: domain.OrderStatusCompleted})
	o = mustApply(t, r, o, SetStatus{Status: domain.OrderStatusDraft})
	if o.Status != domain.OrderStatusDraft {
		t.Fatalf("status %s", o.Status)
	}
}

func TestStrictReducerRejectsSkips(t *testing.T) {
	r := newTestReducer(WithPolicy(Strict))
	o := NewOrder()
	if _, err := r.Apply(o, SetStatus{Status: domain.OrderStatusReady}); err == nil {
		t.Fatalf("expected illegal transition")
	}
	o = mustApply(t, r, o, SetStatus{Status: domain.OrderStatusOrdered})
	o = mustApply(t, r, o, SetStatus{Status: domain.OrderStatusCancelled})
	if _, err := r.Apply(o, SetStatus{Status: domain.OrderStatusOrdered}); err == nil {
		t.Fatalf("cancelled order must stay cancelled")
	}
	// clear always returns to a fresh draft
	o = mustApply(t, r, o, Clear{})
	if o.Status != domain.OrderStatusDraft {
		t.Fatalf("clear under strict policy: %s", o.Status)
	}
}

func TestNextStatuses(t *testing.T) {
	if got := NextStatuses(domain.OrderStatusCompleted); got != nil {
		t.Fatalf("terminal status has successors %v", got)
	}
	got := NextStatuses(domain.OrderStatusPreparing)
	if len(got) != 2 || got[0] != domain.OrderStatusReady || got[1] != domain.OrderStatusCancelled {
		t.Fatalf("unexpected successors %v", got)
	}
}
