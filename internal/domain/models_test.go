package domain

import (
	"math"
	"testing"
)

func TestMoney_CheckedArithmetic(t *testing.T) {
	if got, ok := Money(25000).Mul(3); !ok || got != 75000 {
		t.Fatalf("mul: %d %v", got, ok)
	}
	if _, ok := Money(1 << 61).Mul(4); ok {
		t.Fatalf("overflowing mul accepted")
	}
	if _, ok := Money(math.MinInt64).Mul(-1); ok {
		t.Fatalf("min * -1 accepted")
	}
	if got, ok := Money(0).Mul(math.MaxInt); !ok || got != 0 {
		t.Fatalf("zero mul: %d %v", got, ok)
	}
	if got, ok := Money(10).Add(5); !ok || got != 15 {
		t.Fatalf("add: %d %v", got, ok)
	}
	if _, ok := Money(math.MaxInt64).Add(1); ok {
		t.Fatalf("overflowing add accepted")
	}
	if _, ok := Money(math.MinInt64).Add(-1); ok {
		t.Fatalf("underflowing add accepted")
	}
}

func TestOrder_CloneIsDeep(t *testing.T) {
	o := Order{Items: []LineItem{{ID: "a", Modifiers: []Modifier{{ID: "m"}}}}, Table: &TableRef{ID: "t1"}}
	c := o.Clone()
	c.Items[0].Modifiers[0].ID = "changed"
	c.Table.ID = "t2"
	if o.Items[0].Modifiers[0].ID != "m" || o.Table.ID != "t1" {
		t.Fatalf("clone shares memory with the original")
	}
}
