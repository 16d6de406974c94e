package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"restopos/internal/domain"
	"restopos/internal/pos"
	"restopos/internal/repository"
)

var ErrSessionNotFound = errors.New("session not found")

const draftSaveTimeout = 2 * time.Second

// SessionService держит открытые кассовые сессии: по одному черновику на сессию
type SessionService struct {
	products repository.ProductRepository
	drafts   repository.DraftStore
	reducer  *pos.Reducer
	log      *zap.SugaredLogger

	mu       sync.Mutex
	sessions map[string]*session
	// растёт при каждом release; по нему lookup узнаёт, что черновик мог быть удалён
	releases uint64
}

type session struct {
	agg  *pos.Aggregator
	stop func()

	mu     sync.Mutex
	closed bool
}

func NewSessionService(products repository.ProductRepository, drafts repository.DraftStore, reducer *pos.Reducer, log *zap.SugaredLogger) *SessionService {
	return &SessionService{
		products: products,
		drafts:   drafts,
		reducer:  reducer,
		log:      log,
		sessions: make(map[string]*session),
	}
}

// Open начинает новую продажу. Смена стола посреди продажи означает новую сессию
func (s *SessionService) Open(ctx context.Context) (string, domain.Order, error) {
	id := uuid.NewString()
	agg := pos.NewAggregator(s.reducer)
	snap := agg.Snapshot()
	if err := s.drafts.SaveDraft(ctx, id, snap); err != nil {
		return "", domain.Order{}, fmt.Errorf("save draft: %w", err)
	}
	s.mu.Lock()
	s.attachLocked(id, agg)
	s.mu.Unlock()
	s.log.Infow("session opened", "session_id", id)
	return id, snap, nil
}

func (s *SessionService) attachLocked(id string, agg *pos.Aggregator) *session {
	sess := &session{agg: agg}
	sess.stop = agg.Subscribe(func(o domain.Order) { s.saveDraft(id, o) })
	s.sessions[id] = sess
	return sess
}

func (s *SessionService) saveDraft(id string, o domain.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), draftSaveTimeout)
	defer cancel()
	if err := s.drafts.SaveDraft(ctx, id, o); err != nil {
		s.log.Warnw("draft not saved", "session_id", id, "error", err)
	}
}

func (sess *session) isClosed() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.closed
}

// lookup finds a live session or resumes it from the draft store. A closed
// session stays in the map until its draft is deleted, so it is never
// resumed while submit or discard is in flight.
func (s *SessionService) lookup(ctx context.Context, id string) (*session, error) {
	for {
		s.mu.Lock()
		sess, ok := s.sessions[id]
		gen := s.releases
		s.mu.Unlock()
		if ok {
			if sess.isClosed() {
				return nil, ErrSessionNotFound
			}
			return sess, nil
		}

		saved, err := s.drafts.LoadDraft(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("load draft: %w", err)
		}

		s.mu.Lock()
		if _, ok := s.sessions[id]; ok || s.releases != gen {
			// raced with attach or release: look again
			s.mu.Unlock()
			continue
		}
		sess = s.attachLocked(id, pos.Restore(s.reducer, *saved))
		s.mu.Unlock()
		s.log.Infow("session resumed", "session_id", id, "items", len(saved.Items))
		return sess, nil
	}
}

func (s *SessionService) Snapshot(ctx context.Context, id string) (domain.Order, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return sess.agg.Snapshot(), nil
}

// Dispatch применяет команду к черновику сессии
func (s *SessionService) Dispatch(ctx context.Context, id string, cmd pos.Command) (domain.Order, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return domain.Order{}, ErrSessionNotFound
	}
	o, err := sess.agg.Dispatch(cmd)
	if err != nil {
		s.log.Debugw("command rejected", "session_id", id, "command", cmd.Name(), "error", err)
		return o, err
	}
	s.log.Debugw("command applied", "session_id", id, "command", cmd.Name(), "items", len(o.Items), "total", o.Total)
	return o, nil
}

// AddProductInput позиция меню с выбранными опциями
type AddProductInput struct {
	ProductID   int64
	Quantity    int
	ModifierIDs []string
	Notes       string
}

// AddProduct берёт цену товара и опций из меню и фиксирует её в строке заказа
func (s *SessionService) AddProduct(ctx context.Context, id string, in AddProductInput) (domain.Order, error) {
	if in.ProductID <= 0 {
		return domain.Order{}, ErrInvalidInput
	}
	p, err := s.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return domain.Order{}, err
	}
	mods, ok := p.PickModifiers(in.ModifierIDs)
	if !ok {
		return domain.Order{}, &pos.ValidationError{Field: "modifier_ids", Message: fmt.Sprintf("not offered for product %d", p.ID)}
	}
	return s.Dispatch(ctx, id, pos.AddItem{Product: p.Ref(), Quantity: in.Quantity, Modifiers: mods, Notes: in.Notes})
}

// Discard бросает черновик без отправки
func (s *SessionService) Discard(ctx context.Context, id string) error {
	sess, _, err := s.detach(ctx, id)
	if err != nil {
		return err
	}
	s.release(ctx, id, sess)
	s.log.Infow("session discarded", "session_id", id)
	return nil
}

// detach closes the session to further commands and hands back its last
// snapshot. The closed session stays in the map; either release or
// reattach must follow.
func (s *SessionService) detach(ctx context.Context, id string) (*session, domain.Order, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return nil, domain.Order{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return nil, domain.Order{}, ErrSessionNotFound
	}
	sess.closed = true
	return sess, sess.agg.Snapshot(), nil
}

func (s *SessionService) reattach(sess *session) {
	sess.mu.Lock()
	sess.closed = false
	sess.mu.Unlock()
}

// release drops the draft first and only then forgets the session. If the
// draft cannot be deleted the closed session is kept so this process never
// resumes it.
func (s *SessionService) release(ctx context.Context, id string, sess *session) {
	sess.stop()
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), draftSaveTimeout)
	defer cancel()
	if err := s.drafts.DeleteDraft(dctx, id); err != nil {
		s.log.Warnw("draft not deleted", "session_id", id, "error", err)
		return
	}
	s.mu.Lock()
	if s.sessions[id] == sess {
		delete(s.sessions, id)
	}
	s.releases++
	s.mu.Unlock()
}
