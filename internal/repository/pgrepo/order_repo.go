package pgrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nutrastore-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type orderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) domain.OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id::text, customer_id, idempotency_key, shipment_order_id, shipment_id,
	status, payment_status, payment_method, total_amount::text, created_at, updated_at`

const itemColumns = `id::text, order_id::text, product_id, name, quantity,
	unit_price::text, discount::text, total_amount::text`

// --- Mappers ---

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o     domain.Order
		total string
	)
	if err := row.Scan(&o.ID, &o.CustomerID, &o.IdempotencyKey, &o.ShipmentOrderID, &o.ShipmentID,
		&o.Status, &o.PaymentStatus, &o.PaymentMethod, &total, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("parse order total %q: %w", total, err)
	}
	o.TotalAmount = amount
	o.Items = []domain.OrderItem{}
	return &o, nil
}

func scanItem(rows pgx.Rows) (domain.OrderItem, error) {
	var (
		it                         domain.OrderItem
		unitPrice, discount, total string
	)
	if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Quantity,
		&unitPrice, &discount, &total); err != nil {
		return it, err
	}
	var err error
	if it.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
		return it, err
	}
	if it.Discount, err = decimal.NewFromString(discount); err != nil {
		return it, err
	}
	if it.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return it, err
	}
	return it, nil
}

// --- Writes ---

func (r *orderRepository) CreatePending(ctx context.Context, order *domain.Order) error {
	q := conn(ctx, r.db)

	_, err := q.Exec(ctx, `
		INSERT INTO orders (id, customer_id, idempotency_key, status, payment_status, payment_method,
			total_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9)`,
		order.ID, order.CustomerID, order.IdempotencyKey, domain.OrderStatusPending,
		order.PaymentStatus, order.PaymentMethod, order.TotalAmount.StringFixed(2),
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.InvalidState("An order with this idempotency key already exists.")
		}
		return fmt.Errorf("insert order: %w", err)
	}

	batch := &pgx.Batch{}
	for _, it := range order.Items {
		batch.Queue(`
			INSERT INTO order_items (id, order_id, product_id, name, quantity, unit_price, discount, total_amount)
			VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8::numeric)`,
			it.ID, order.ID, it.ProductID, it.Name, it.Quantity,
			it.UnitPrice.StringFixed(2), it.Discount.StringFixed(2), it.TotalAmount.StringFixed(2),
		)
	}
	br := q.SendBatch(ctx, batch)
	for range order.Items {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}

	order.Status = domain.OrderStatusPending
	return nil
}

func (r *orderRepository) MarkPlaced(ctx context.Context, orderID, shipmentOrderID, shipmentID string) error {
	tag, err := conn(ctx, r.db).Exec(ctx, `
		UPDATE orders
		SET status = $2, shipment_order_id = $3, shipment_id = $4, updated_at = now()
		WHERE id = $1 AND status = $5`,
		orderID, domain.OrderStatusPlaced, shipmentOrderID, shipmentID, domain.OrderStatusPending,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %s is not pending", orderID)
	}
	return nil
}

func (r *orderRepository) DiscardPending(ctx context.Context, orderID string) error {
	_, err := conn(ctx, r.db).Exec(ctx,
		`DELETE FROM orders WHERE id = $1 AND status = $2`, orderID, domain.OrderStatusPending)
	return err
}

// UpdateStatus moves an order from one status to another. It fails with
// InvalidState when the order is no longer in the from status.
func (r *orderRepository) UpdateStatus(ctx context.Context, id, from, to string) error {
	q := conn(ctx, r.db)
	tag, err := q.Exec(ctx,
		`UPDATE orders SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`, id, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.NotFound("Order %s not found.", id)
	}
	return domain.InvalidState("Order is no longer %s.", from)
}

func (r *orderRepository) CreateOrderHistory(ctx context.Context, history *domain.OrderHistory) error {
	_, err := conn(ctx, r.db).Exec(ctx, `
		INSERT INTO order_history (id, order_id, previous_status, new_status, reason, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		history.ID, history.OrderID, history.PreviousStatus, history.NewStatus,
		history.Reason, history.CreatedBy, history.CreatedAt,
	)
	return err
}

// --- Reads ---

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *orderRepository) GetByIdempotencyKey(ctx context.Context, customerID, key string) (*domain.Order, error) {
	return r.getOne(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 AND idempotency_key = $2`,
		customerID, key)
}

func (r *orderRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return r.list(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE customer_id = $1 AND status <> $2
		ORDER BY created_at DESC`,
		customerID, domain.OrderStatusPending)
}

func (r *orderRepository) ListPending(ctx context.Context, createdBefore time.Time) ([]domain.Order, error) {
	return r.list(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC`,
		domain.OrderStatusPending, createdBefore)
}

func (r *orderRepository) getOne(ctx context.Context, sql string, args ...any) (*domain.Order, error) {
	q := conn(ctx, r.db)
	order, err := scanOrder(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.attachItems(ctx, q, []*domain.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) list(ctx context.Context, sql string, args ...any) ([]domain.Order, error) {
	q := conn(ctx, r.db)
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachItems(ctx, q, orders); err != nil {
		return nil, err
	}
	result := make([]domain.Order, len(orders))
	for i, o := range orders {
		result[i] = *o
	}
	return result, nil
}

// attachItems loads the items of all orders in one query.
func (r *orderRepository) attachItems(ctx context.Context, q querier, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	byID := make(map[string]*domain.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
	}

	rows, err := q.Query(ctx,
		`SELECT `+itemColumns+` FROM order_items WHERE order_id = ANY($1::uuid[]) ORDER BY order_id, product_id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return err
		}
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}
