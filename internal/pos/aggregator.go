package pos

import (
	"sync"

	"restopos/internal/domain"
)

// Aggregator владеет одним черновиком; команды выполняются строго по одной
type Aggregator struct {
	reducer *Reducer

	mu      sync.Mutex
	order   domain.Order
	subs    map[uint64]func(domain.Order)
	nextSub uint64

	// held while subscribers run so snapshots reach them in dispatch order
	notifyMu sync.Mutex
}

func NewAggregator(r *Reducer) *Aggregator {
	return Restore(r, NewOrder())
}

// Restore продолжает ранее сохранённый черновик
func Restore(r *Reducer, o domain.Order) *Aggregator {
	return &Aggregator{
		reducer: r,
		order:   o.Clone(),
		subs:    make(map[uint64]func(domain.Order)),
	}
}

// Dispatch применяет команду и возвращает новый снимок. При ошибке возвращает
// текущий снимок, подписчики не вызываются. Подписчикам нельзя вызывать Dispatch
func (a *Aggregator) Dispatch(cmd Command) (domain.Order, error) {
	a.mu.Lock()
	next, err := a.reducer.Apply(a.order, cmd)
	if err != nil {
		cur := a.order.Clone()
		a.mu.Unlock()
		return cur, err
	}
	a.order = next
	subs := make([]func(domain.Order), 0, len(a.subs))
	for _, fn := range a.subs {
		subs = append(subs, fn)
	}
	a.notifyMu.Lock()
	a.mu.Unlock()
	defer a.notifyMu.Unlock()

	for _, fn := range subs {
		fn(next.Clone())
	}
	return next.Clone(), nil
}

func (a *Aggregator) Snapshot() domain.Order {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.order.Clone()
}

// Subscribe вызывает fn после каждой принятой команды; результат отписывает
func (a *Aggregator) Subscribe(fn func(domain.Order)) (unsubscribe func()) {
	a.mu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = fn
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.subs, id)
			a.mu.Unlock()
		})
	}
}
