package pos

import (
	"slices"

	"restopos/internal/domain"
)

// Command одно изменение черновика
type Command interface {
	Name() string
	apply(r *Reducer, o *domain.Order) error
}

// SetTable назначает стол; пустой ID снимает его
type SetTable struct {
	ID        string
	TableName string
}

func (SetTable) Name() string { return "set_table" }

func (c SetTable) apply(_ *Reducer, o *domain.Order) error {
	if c.ID == "" {
		o.Table = nil
		return nil
	}
	o.Table = &domain.TableRef{ID: c.ID, Name: c.TableName}
	return nil
}

// AddItem добавляет новую строку. Количество 0 означает 1, одинаковые товары не сливаются
type AddItem struct {
	Product   domain.ProductRef
	Quantity  int
	Modifiers []domain.Modifier
	Notes     string
}

func (AddItem) Name() string { return "add_item" }

func (c AddItem) apply(r *Reducer, o *domain.Order) error {
	qty := c.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return invalid("quantity", "must be positive, got %d", qty)
	}
	if c.Product.ID <= 0 {
		return invalid("product.id", "is required")
	}
	if c.Product.Price < 0 {
		return invalid("product.price", "must not be negative")
	}
	unit := c.Product.Price
	for _, m := range c.Modifiers {
		if m.Price < 0 {
			return invalid("modifiers", "modifier %q has negative price", m.ID)
		}
		var ok bool
		if unit, ok = unit.Add(m.Price); !ok {
			return invalid("unit_price", "modifier prices overflow")
		}
	}
	total, ok := unit.Mul(qty)
	if !ok {
		return invalid("quantity", "line total overflows for %d x %d", qty, unit)
	}
	mods := slices.Clone(c.Modifiers)
	if mods == nil {
		mods = []domain.Modifier{}
	}
	o.Items = append(o.Items, domain.LineItem{
		ID:          r.newID(),
		ProductID:   c.Product.ID,
		ProductName: c.Product.Name,
		Quantity:    qty,
		UnitPrice:   unit,
		Modifiers:   mods,
		TotalPrice:  total,
		Notes:       c.Notes,
	})
	return nil
}

// UpdateQuantity меняет количество; ноль и меньше удаляет строку
type UpdateQuantity struct {
	Index    int
	Quantity int
}

func (UpdateQuantity) Name() string { return "update_quantity" }

func (c UpdateQuantity) apply(r *Reducer, o *domain.Order) error {
	if c.Quantity <= 0 {
		return RemoveItem{Index: c.Index}.apply(r, o)
	}
	it, err := item(o, c.Index)
	if err != nil {
		return err
	}
	total, ok := it.UnitPrice.Mul(c.Quantity)
	if !ok {
		return invalid("quantity", "line total overflows for %d x %d", c.Quantity, it.UnitPrice)
	}
	it.Quantity = c.Quantity
	it.TotalPrice = total
	return nil
}

// ItemPatch поля строки для UpdateItem; nil оставляет как было
type ItemPatch struct {
	ProductName *string
	Quantity    *int
	UnitPrice   *domain.Money
	Notes       *string
}

// UpdateItem сливает патч со строкой и пересчитывает её сумму
type UpdateItem struct {
	Index int
	Patch ItemPatch
}

func (UpdateItem) Name() string { return "update_item" }

func (c UpdateItem) apply(_ *Reducer, o *domain.Order) error {
	it, err := item(o, c.Index)
	if err != nil {
		return err
	}
	p := c.Patch
	if p.Quantity != nil && *p.Quantity <= 0 {
		return invalid("quantity", "must be positive, use remove to drop a line")
	}
	if p.UnitPrice != nil && *p.UnitPrice < 0 {
		return invalid("unit_price", "must not be negative")
	}
	if p.ProductName != nil {
		it.ProductName = *p.ProductName
	}
	if p.Quantity != nil {
		it.Quantity = *p.Quantity
	}
	if p.UnitPrice != nil {
		it.UnitPrice = *p.UnitPrice
	}
	if p.Notes != nil {
		it.Notes = *p.Notes
	}
	total, ok := it.UnitPrice.Mul(it.Quantity)
	if !ok {
		field := "unit_price"
		if p.Quantity != nil {
			field = "quantity"
		}
		return invalid(field, "line total overflows for %d x %d", it.Quantity, it.UnitPrice)
	}
	it.TotalPrice = total
	return nil
}

// RepriceItem меняет цену за единицу
type RepriceItem struct {
	Index     int
	UnitPrice domain.Money
}

func (RepriceItem) Name() string { return "reprice_item" }

func (c RepriceItem) apply(r *Reducer, o *domain.Order) error {
	price := c.UnitPrice
	return UpdateItem{Index: c.Index, Patch: ItemPatch{UnitPrice: &price}}.apply(r, o)
}

// RemoveItem удаляет строку, порядок остальных сохраняется
type RemoveItem struct {
	Index int
}

func (RemoveItem) Name() string { return "remove_item" }

func (c RemoveItem) apply(_ *Reducer, o *domain.Order) error {
	if _, err := item(o, c.Index); err != nil {
		return err
	}
	o.Items = slices.Delete(o.Items, c.Index, c.Index+1)
	return nil
}

// SetCustomer контакт гостя; оба поля пустые сбрасывают его
type SetCustomer struct {
	CustomerName string
	Phone        string
}

func (SetCustomer) Name() string { return "set_customer" }

func (c SetCustomer) apply(_ *Reducer, o *domain.Order) error {
	if c.CustomerName == "" && c.Phone == "" {
		o.Customer = nil
		return nil
	}
	o.Customer = &domain.Customer{Name: c.CustomerName, Phone: c.Phone}
	return nil
}

type SetNotes struct {
	Text string
}

func (SetNotes) Name() string { return "set_notes" }

func (c SetNotes) apply(_ *Reducer, o *domain.Order) error {
	o.Notes = c.Text
	return nil
}

type SetOrderType struct {
	Type domain.OrderType
}

func (SetOrderType) Name() string { return "set_order_type" }

func (c SetOrderType) apply(_ *Reducer, o *domain.Order) error {
	if !c.Type.Valid() {
		return invalid("type", "unknown order type %q", c.Type)
	}
	o.Type = c.Type
	return nil
}

// SetStatus меняет статус, если это разрешает политика переходов
type SetStatus struct {
	Status domain.OrderStatus
}

func (SetStatus) Name() string { return "set_status" }

func (c SetStatus) apply(r *Reducer, o *domain.Order) error {
	if !c.Status.Valid() {
		return invalid("status", "unknown status %q", c.Status)
	}
	if err := r.policy.Allow(o.Status, c.Status); err != nil {
		return err
	}
	o.Status = c.Status
	return nil
}

// Clear возвращает пустой черновик DRAFT
type Clear struct{}

func (Clear) Name() string { return "clear" }

func (Clear) apply(_ *Reducer, o *domain.Order) error {
	*o = NewOrder()
	return nil
}

func item(o *domain.Order, idx int) (*domain.LineItem, error) {
	if idx < 0 || idx >= len(o.Items) {
		return nil, invalid("index", "%d out of range [0,%d)", idx, len(o.Items))
	}
	return &o.Items[idx], nil
}
