// Package pos кассовый черновик заказа: чистый редьюсер и Aggregator вокруг него
package pos

import (
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"restopos/internal/domain"
)

// DefaultTaxRate ставка налога по умолчанию
var DefaultTaxRate = decimal.New(10, -2)

// Reducer применяет команды к снимкам заказа
type Reducer struct {
	taxRate decimal.Decimal
	policy  TransitionPolicy
	newID   func() string
}

type Option func(*Reducer)

func WithTaxRate(rate decimal.Decimal) Option {
	return func(r *Reducer) { r.taxRate = rate }
}

func WithPolicy(p TransitionPolicy) Option {
	return func(r *Reducer) { r.policy = p }
}

// WithIDGenerator источник id строк, по умолчанию uuid
func WithIDGenerator(fn func() string) Option {
	return func(r *Reducer) { r.newID = fn }
}

func NewReducer(opts ...Option) *Reducer {
	r := &Reducer{
		taxRate: DefaultTaxRate,
		policy:  Permissive,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewOrder пустой черновик
func NewOrder() domain.Order {
	return domain.Order{
		Type:   domain.OrderTypeDineIn,
		Status: domain.OrderStatusDraft,
		Items:  []domain.LineItem{},
	}
}

// Apply возвращает заказ после команды; при ошибке исходный заказ не меняется
func (r *Reducer) Apply(o domain.Order, cmd Command) (domain.Order, error) {
	next := o.Clone()
	if err := cmd.apply(r, &next); err != nil {
		return o, err
	}
	if err := r.recompute(&next); err != nil {
		return o, err
	}
	return next, nil
}

func (r *Reducer) recompute(o *domain.Order) error {
	var (
		subtotal domain.Money
		ok       bool
	)
	for _, it := range o.Items {
		if subtotal, ok = subtotal.Add(it.TotalPrice); !ok {
			return invalid("total", "order subtotal overflows")
		}
	}
	tax, ok := r.tax(subtotal)
	if !ok {
		return invalid("total", "order tax overflows")
	}
	total, ok := subtotal.Add(tax)
	if !ok {
		return invalid("total", "order total overflows")
	}
	o.Subtotal, o.Tax, o.Total = subtotal, tax, total
	return nil
}

var maxMoney = decimal.NewFromInt(math.MaxInt64)

// Tax налог с подытога, округление до целой минимальной единицы от нуля
func (r *Reducer) Tax(subtotal domain.Money) domain.Money {
	tax, _ := r.tax(subtotal)
	return tax
}

func (r *Reducer) tax(subtotal domain.Money) (domain.Money, bool) {
	d := decimal.NewFromInt(int64(subtotal)).Mul(r.taxRate).Round(0)
	if d.GreaterThan(maxMoney) {
		return 0, false
	}
	return domain.Money(d.IntPart()), true
}
