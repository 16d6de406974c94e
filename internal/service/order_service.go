package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"restopos/internal/domain"
	"restopos/internal/pos"
	"restopos/internal/repository"
)

// Notifier уведомляет кухню и подписчиков об изменениях заказа
type Notifier interface {
	OrderSubmitted(ctx context.Context, o domain.Order) error
	StatusChanged(ctx context.Context, o domain.Order, from domain.OrderStatus) error
}

// OrderService реализует логику заказов: отправка черновика, смена статуса, отмена
type OrderService struct {
	sessions *SessionService
	orders   repository.OrderRepository
	tx       repository.TxManager
	notifier Notifier
	log      *zap.SugaredLogger
}

func NewOrderService(sessions *SessionService, orders repository.OrderRepository, tx repository.TxManager, notifier Notifier, log *zap.SugaredLogger) *OrderService {
	return &OrderService{sessions: sessions, orders: orders, tx: tx, notifier: notifier, log: log}
}

var (
	ErrInvalidState = errors.New("invalid state")
	ErrEmptyOrder   = errors.New("order has no items")
)

func validateSubmission(o domain.Order) error {
	if len(o.Items) == 0 {
		return ErrEmptyOrder
	}
	if o.Type == domain.OrderTypeDineIn && o.Table == nil {
		return &pos.ValidationError{Field: "table", Message: "dine-in order needs a table"}
	}
	if err := pos.Strict.Allow(o.Status, domain.OrderStatusOrdered); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	return nil
}

// Submit сохраняет черновик как заказ со статусом ORDERED и закрывает сессию
func (s *OrderService) Submit(ctx context.Context, sessionID string) (*domain.Order, error) {
	sess, snap, err := s.sessions.detach(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := validateSubmission(snap); err != nil {
		s.sessions.reattach(sess)
		return nil, err
	}

	o := snap
	o.Status = domain.OrderStatusOrdered
	if err := s.orders.Create(ctx, &o); err != nil {
		s.sessions.reattach(sess)
		return nil, fmt.Errorf("persist order: %w", err)
	}
	s.sessions.release(ctx, sessionID, sess)

	// the order is already stored; a lost ticket is logged, not returned
	if err := s.notifier.OrderSubmitted(ctx, o); err != nil {
		s.log.Errorw("kitchen ticket not published", "order_id", o.ID, "error", err)
	}
	s.log.Infow("order submitted", "order_id", o.ID, "session_id", sessionID, "items", len(o.Items), "total", o.Total)
	return &o, nil
}

// GetOrder возвращает заказ по id
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	return s.orders.GetByID(ctx, id)
}

func (s *OrderService) ListOrders(ctx context.Context, f repository.OrderFilter) ([]domain.Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, ErrInvalidInput
	}
	return s.orders.List(ctx, f)
}

// UpdateStatus двигает отправленный заказ по строгому графу статусов
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, to domain.OrderStatus) (*domain.Order, error) {
	if id <= 0 || !to.Valid() {
		return nil, ErrInvalidInput
	}
	var (
		updated *domain.Order
		from    domain.OrderStatus
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := pos.Strict.Allow(o.Status, to); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidState, err)
		}
		from = o.Status
		o.Status = to
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.notifier.StatusChanged(ctx, *updated, from); err != nil {
		s.log.Errorw("status event not published", "order_id", id, "error", err)
	}
	s.log.Infow("order status changed", "order_id", id, "from", from, "to", to)
	return updated, nil
}

// CancelOrder отмена доступна из любого нетерминального статуса
func (s *OrderService) CancelOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return s.UpdateStatus(ctx, id, domain.OrderStatusCancelled)
}
