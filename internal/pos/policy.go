package pos

import (
	"slices"

	"restopos/internal/domain"
)

// TransitionPolicy решает, допустим ли переход между статусами
type TransitionPolicy interface {
	Allow(from, to domain.OrderStatus) error
}

// Permissive разрешает любой переход: статусом управляет тот, кто принял заказ
var Permissive TransitionPolicy = permissive{}

// Strict DRAFT -> ORDERED -> PREPARING -> READY -> COMPLETED, CANCELLED из любого нетерминального
var Strict TransitionPolicy = strict{}

type permissive struct{}

func (permissive) Allow(_, _ domain.OrderStatus) error { return nil }

var forward = map[domain.OrderStatus]domain.OrderStatus{
	domain.OrderStatusDraft:     domain.OrderStatusOrdered,
	domain.OrderStatusOrdered:   domain.OrderStatusPreparing,
	domain.OrderStatusPreparing: domain.OrderStatusReady,
	domain.OrderStatusReady:     domain.OrderStatusCompleted,
}

type strict struct{}

func (strict) Allow(from, to domain.OrderStatus) error {
	if slices.Contains(NextStatuses(from), to) {
		return nil
	}
	return &IllegalTransitionError{From: from, To: to}
}

// NextStatuses статусы, которые Strict разрешает после from
func NextStatuses(from domain.OrderStatus) []domain.OrderStatus {
	if from.Terminal() || !from.Valid() {
		return nil
	}
	return []domain.OrderStatus{forward[from], domain.OrderStatusCancelled}
}
