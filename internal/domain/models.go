package domain

import (
	"math"
	"slices"
	"time"
)

// Money денежная сумма в минимальных единицах валюты
type Money int64

// Mul цена строки: единичная цена на количество; false при переполнении
func (m Money) Mul(qty int) (Money, bool) {
	if m == 0 || qty == 0 {
		return 0, true
	}
	if qty == -1 && m == math.MinInt64 {
		return 0, false
	}
	p := m * Money(qty)
	if p/Money(qty) != m {
		return 0, false
	}
	return p, true
}

// Add сумма двух величин; false при переполнении
func (m Money) Add(n Money) (Money, bool) {
	s := m + n
	if (n > 0 && s < m) || (n < 0 && s > m) {
		return 0, false
	}
	return s, true
}

// Modifier платная опция позиции (размер, добавка)
type Modifier struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price Money  `json:"price"`
}

// Product позиция каталога меню
type Product struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	SKU       string     `json:"sku"`
	Price     Money      `json:"price"`
	Modifiers []Modifier `json:"modifiers"`
}

// Ref ссылка на товар, которую принимает кассовый черновик
func (p Product) Ref() ProductRef {
	return ProductRef{ID: p.ID, Name: p.Name, Price: p.Price}
}

// PickModifiers выбирает опции товара по id в порядке запроса
func (p Product) PickModifiers(ids []string) ([]Modifier, bool) {
	out := make([]Modifier, 0, len(ids))
	for _, id := range ids {
		idx := slices.IndexFunc(p.Modifiers, func(m Modifier) bool { return m.ID == id })
		if idx < 0 {
			return nil, false
		}
		out = append(out, p.Modifiers[idx])
	}
	return out, true
}

// ProductRef цена и название товара на момент добавления в заказ
type ProductRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price Money  `json:"price"`
}

// OrderStatus тип статуса заказа
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "DRAFT"
	OrderStatusOrdered   OrderStatus = "ORDERED"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusReady     OrderStatus = "READY"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusOrdered, OrderStatusPreparing,
		OrderStatusReady, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal заказ в этом статусе больше не меняется
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// OrderType тип обслуживания
type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine_in"
	OrderTypeTakeaway OrderType = "takeaway"
	OrderTypeDelivery OrderType = "delivery"
)

func (t OrderType) Valid() bool {
	return t == OrderTypeDineIn || t == OrderTypeTakeaway || t == OrderTypeDelivery
}

// TableRef стол в зале
type TableRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Customer контакт гостя
type Customer struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// LineItem позиция в заказе
type LineItem struct {
	ID          string     `json:"id"`
	ProductID   int64      `json:"product_id"`
	ProductName string     `json:"product_name"`
	Quantity    int        `json:"quantity"`
	UnitPrice   Money      `json:"unit_price"`
	Modifiers   []Modifier `json:"modifiers"`
	TotalPrice  Money      `json:"total_price"`
	Notes       string     `json:"notes,omitempty"`
}

// Order сущность заказа; черновик до отправки на кухню не имеет ID
type Order struct {
	ID        int64       `json:"order_id,omitempty"`
	Type      OrderType   `json:"type"`
	Table     *TableRef   `json:"table,omitempty"`
	Customer  *Customer   `json:"customer,omitempty"`
	Notes     string      `json:"notes,omitempty"`
	Status    OrderStatus `json:"status"`
	Items     []LineItem  `json:"items"`
	Subtotal  Money       `json:"subtotal"`
	Tax       Money       `json:"tax"`
	Total     Money       `json:"total"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Clone глубокая копия, чтобы снимки не делили срезы
func (o Order) Clone() Order {
	cp := o
	if o.Table != nil {
		t := *o.Table
		cp.Table = &t
	}
	if o.Customer != nil {
		c := *o.Customer
		cp.Customer = &c
	}
	cp.Items = make([]LineItem, len(o.Items))
	for i, it := range o.Items {
		it.Modifiers = slices.Clone(it.Modifiers)
		if it.Modifiers == nil {
			it.Modifiers = []Modifier{}
		}
		cp.Items[i] = it
	}
	return cp
}
