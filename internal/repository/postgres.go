package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"restopos/internal/domain"
)

const (
	createOrdersTableSQL = `
		CREATE TABLE IF NOT EXISTS pos_orders (
			id             BIGSERIAL PRIMARY KEY,
			order_type     TEXT        NOT NULL,
			table_id       TEXT,
			table_name     TEXT,
			customer_name  TEXT,
			customer_phone TEXT,
			notes          TEXT        NOT NULL DEFAULT '',
			status         TEXT        NOT NULL,
			items          JSONB       NOT NULL,
			subtotal       BIGINT      NOT NULL,
			tax            BIGINT      NOT NULL,
			total          BIGINT      NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`

	insertOrderSQL = `
		INSERT INTO pos_orders (order_type, table_id, table_name, customer_name, customer_phone,
		                        notes, status, items, subtotal, tax, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	updateOrderSQL = `
		UPDATE pos_orders SET order_type = $2, table_id = $3, table_name = $4, customer_name = $5,
		       customer_phone = $6, notes = $7, status = $8, items = $9, subtotal = $10, tax = $11,
		       total = $12, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	selectOrderSQL = `
		SELECT id, order_type, table_id, table_name, customer_name, customer_phone, notes, status,
		       items, subtotal, tax, total, created_at, updated_at
		FROM pos_orders`
)

// PostgresOrders хранилище отправленных заказов в PostgreSQL
type PostgresOrders struct {
	pool *pgxpool.Pool
}

var (
	_ OrderRepository = (*PostgresOrders)(nil)
	_ TxManager       = (*PostgresOrders)(nil)
)

// NewPostgresOrders подключается с повторами и создаёт таблицу
func NewPostgresOrders(ctx context.Context, url string, maxConns int) (*PostgresOrders, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if maxConns < 2 {
		maxConns = 2
	}
	cfg.MaxConns = int32(maxConns)
	cfg.MinConns = 2
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute

	var pool *pgxpool.Pool
	const maxRetries = 5
	for i := 0; i < maxRetries; i++ {
		pool, err = pgxpool.NewWithConfig(ctx, cfg)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = pool.Ping(pingCtx)
			cancel()
			if err == nil {
				break
			}
			pool.Close()
		}
		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(i+1) * time.Second):
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	if _, err := pool.Exec(ctx, createOrdersTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create orders table: %w", err)
	}
	return &PostgresOrders{pool: pool}, nil
}

func (p *PostgresOrders) Close() { p.pool.Close() }

func (p *PostgresOrders) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

type pgTxKey struct{}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (p *PostgresOrders) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(pgTxKey{}).(pgx.Tx); ok {
		return tx
	}
	return p.pool
}

func (p *PostgresOrders) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(pgTxKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		return fn(context.WithValue(ctx, pgTxKey{}, tx))
	})
}

// orderColumns плоское представление заказа для SQL
type orderColumns struct {
	tableID, tableName, customerName, customerPhone *string
	items                                           []byte
}

func flatten(o *domain.Order) (orderColumns, error) {
	var c orderColumns
	items, err := json.Marshal(o.Items)
	if err != nil {
		return c, fmt.Errorf("failed to encode items: %w", err)
	}
	c.items = items
	if o.Table != nil {
		c.tableID, c.tableName = &o.Table.ID, &o.Table.Name
	}
	if o.Customer != nil {
		c.customerName, c.customerPhone = &o.Customer.Name, &o.Customer.Phone
	}
	return c, nil
}

func (p *PostgresOrders) Create(ctx context.Context, o *domain.Order) error {
	c, err := flatten(o)
	if err != nil {
		return err
	}
	return p.q(ctx).QueryRow(ctx, insertOrderSQL,
		o.Type, c.tableID, c.tableName, c.customerName, c.customerPhone,
		o.Notes, o.Status, c.items, o.Subtotal, o.Tax, o.Total,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

func (p *PostgresOrders) Update(ctx context.Context, o *domain.Order) error {
	c, err := flatten(o)
	if err != nil {
		return err
	}
	err = p.q(ctx).QueryRow(ctx, updateOrderSQL,
		o.ID, o.Type, c.tableID, c.tableName, c.customerName, c.customerPhone,
		o.Notes, o.Status, c.items, o.Subtotal, o.Tax, o.Total,
	).Scan(&o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// orderByIDSQL внутри транзакции строка блокируется до коммита,
// чтобы параллельные смены статуса шли по очереди
func orderByIDSQL(ctx context.Context) string {
	if _, ok := ctx.Value(pgTxKey{}).(pgx.Tx); ok {
		return selectOrderSQL + " WHERE id = $1 FOR UPDATE"
	}
	return selectOrderSQL + " WHERE id = $1"
}

func (p *PostgresOrders) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	row := p.q(ctx).QueryRow(ctx, orderByIDSQL(ctx), id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (p *PostgresOrders) List(ctx context.Context, f OrderFilter) ([]domain.Order, error) {
	rows, err := p.q(ctx).Query(ctx,
		selectOrderSQL+" WHERE ($1 = '' OR status = $1) AND ($2 = '' OR table_id = $2) ORDER BY id",
		string(f.Status), f.TableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o                                               domain.Order
		tableID, tableName, customerName, customerPhone *string
		items                                           []byte
	)
	err := row.Scan(&o.ID, &o.Type, &tableID, &tableName, &customerName, &customerPhone,
		&o.Notes, &o.Status, &items, &o.Subtotal, &o.Tax, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("failed to decode items of order %d: %w", o.ID, err)
	}
	if tableID != nil {
		o.Table = &domain.TableRef{ID: *tableID, Name: deref(tableName)}
	}
	if customerName != nil || customerPhone != nil {
		o.Customer = &domain.Customer{Name: deref(customerName), Phone: deref(customerPhone)}
	}
	return &o, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
