package messaging

import (
	"fmt"
	"time"

	"restopos/internal/domain"
)

const (
	OrdersExchange        = "orders_topic"
	NotificationsExchange = "notifications_fanout"
)

// TicketLine строка заказа для кухни, без цен
type TicketLine struct {
	ProductName string   `json:"product_name"`
	Quantity    int      `json:"quantity"`
	Modifiers   []string `json:"modifiers,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// KitchenTicket публикуется один раз на отправленный заказ
type KitchenTicket struct {
	OrderID   int64        `json:"order_id"`
	OrderType string       `json:"order_type"`
	Table     string       `json:"table,omitempty"`
	Customer  string       `json:"customer,omitempty"`
	Notes     string       `json:"notes,omitempty"`
	Lines     []TicketLine `json:"lines"`
	CreatedAt time.Time    `json:"created_at"`
}

// StatusEvent публикуется при каждой смене статуса заказа
type StatusEvent struct {
	OrderID   int64     `json:"order_id"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	Timestamp time.Time `json:"timestamp"`
}

func NewKitchenTicket(o domain.Order) KitchenTicket {
	t := KitchenTicket{
		OrderID:   o.ID,
		OrderType: string(o.Type),
		Notes:     o.Notes,
		Lines:     make([]TicketLine, 0, len(o.Items)),
		CreatedAt: o.CreatedAt,
	}
	if o.Table != nil {
		t.Table = o.Table.Name
		if t.Table == "" {
			t.Table = o.Table.ID
		}
	}
	if o.Customer != nil {
		t.Customer = o.Customer.Name
	}
	for _, it := range o.Items {
		line := TicketLine{ProductName: it.ProductName, Quantity: it.Quantity, Notes: it.Notes}
		for _, m := range it.Modifiers {
			line.Modifiers = append(line.Modifiers, m.Name)
		}
		t.Lines = append(t.Lines, line)
	}
	return t
}

func NewStatusEvent(o domain.Order, from domain.OrderStatus) StatusEvent {
	return StatusEvent{
		OrderID:   o.ID,
		OldStatus: string(from),
		NewStatus: string(o.Status),
		Timestamp: time.Now().UTC(),
	}
}

// RoutingKey kitchen.<тип заказа>
func RoutingKey(t domain.OrderType) string {
	return fmt.Sprintf("kitchen.%s", t)
}
