package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"restopos/internal/domain"
)

// ErrClosed публикация после Close
var ErrClosed = errors.New("publisher closed")

// Publisher отправляет тикеты и события статуса в RabbitMQ
type Publisher struct {
	url    string
	log    *zap.SugaredLogger
	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	closed bool
}

func NewPublisher(url string, log *zap.SugaredLogger) (*Publisher, error) {
	p := &Publisher{url: url, log: log}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	p.conn = conn
	if err := p.openChannel(); err != nil {
		conn.Close()
		p.conn = nil
		return err
	}
	return nil
}

// openChannel открывает канал на текущем соединении и объявляет обменники
func (p *Publisher) openChannel() error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(OrdersExchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		return fmt.Errorf("failed to declare %s exchange: %w", OrdersExchange, err)
	}
	if err := ch.ExchangeDeclare(NotificationsExchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		return fmt.Errorf("failed to declare %s exchange: %w", NotificationsExchange, err)
	}
	p.ch = ch
	return nil
}

// ensureChannel переподключается, если упало соединение, и переоткрывает канал, если закрыт только он
func (p *Publisher) ensureChannel() error {
	if p.conn == nil || p.conn.IsClosed() {
		return p.connect()
	}
	if p.ch == nil || p.ch.IsClosed() {
		p.log.Warn("RabbitMQ channel closed, reopening")
		return p.openChannel()
	}
	return nil
}

func (p *Publisher) OrderSubmitted(ctx context.Context, o domain.Order) error {
	return p.publish(ctx, OrdersExchange, RoutingKey(o.Type), NewKitchenTicket(o), true)
}

func (p *Publisher) StatusChanged(ctx context.Context, o domain.Order, from domain.OrderStatus) error {
	return p.publish(ctx, NotificationsExchange, "", NewStatusEvent(o, from), false)
}

func (p *Publisher) publish(ctx context.Context, exchange, key string, msg any, persistent bool) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if err := p.ensureChannel(); err != nil {
		return err
	}

	mode := amqp.Transient
	if persistent {
		mode = amqp.Persistent
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	err = p.ch.PublishWithContext(ctx, exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: mode,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", exchange, err)
	}
	p.log.Debugw("message published", "exchange", exchange, "routing_key", key, "size", len(body))
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	var errs []error
	if p.ch != nil && !p.ch.IsClosed() {
		if err := p.ch.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if p.conn != nil && !p.conn.IsClosed() {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// LogPublisher пишет события в лог, когда брокер не настроен
type LogPublisher struct {
	log *zap.SugaredLogger
}

func NewLogPublisher(log *zap.SugaredLogger) *LogPublisher { return &LogPublisher{log: log} }

func (l *LogPublisher) OrderSubmitted(_ context.Context, o domain.Order) error {
	t := NewKitchenTicket(o)
	l.log.Infow("kitchen ticket", "order_id", t.OrderID, "routing_key", RoutingKey(o.Type), "lines", len(t.Lines))
	return nil
}

func (l *LogPublisher) StatusChanged(_ context.Context, o domain.Order, from domain.OrderStatus) error {
	l.log.Infow("order status changed", "order_id", o.ID, "from", from, "to", o.Status)
	return nil
}

func (l *LogPublisher) Close() error { return nil }
