package repository

import (
	"context"
	"errors"
	"strings"

	"restopos/internal/domain"
)

// ErrNotFound возвращается, когда сущность не найдена
var ErrNotFound = errors.New("not found")

// ProductFilter параметры фильтрации меню
type ProductFilter struct {
	NameSubstring string
	MinPrice      *domain.Money
	MaxPrice      *domain.Money
}

// ProductRepository интерфейс репозитория меню
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f ProductFilter) ([]domain.Product, error)
}

// OrderFilter параметры выборки отправленных заказов
type OrderFilter struct {
	Status  domain.OrderStatus
	TableID string
}

func (f OrderFilter) match(o domain.Order) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.TableID != "" && (o.Table == nil || o.Table.ID != f.TableID) {
		return false
	}
	return true
}

// OrderRepository интерфейс репозитория отправленных заказов
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	Update(ctx context.Context, o *domain.Order) error
	List(ctx context.Context, f OrderFilter) ([]domain.Order, error)
}

// DraftStore хранит снимки черновиков кассовых сессий
type DraftStore interface {
	SaveDraft(ctx context.Context, sessionID string, o domain.Order) error
	LoadDraft(ctx context.Context, sessionID string) (*domain.Order, error)
	DeleteDraft(ctx context.Context, sessionID string) error
}

// TxManager абстракция транзакции: в памяти это блокировка записи, в PostgreSQL настоящая транзакция
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// helper: case-insensitive contains
func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
