package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Repository is the order storage the gateway relies on: it reads orders,
// keeps one metadata value per key and moves orders between statuses.
type Repository interface {
	GetOrder(ctx context.Context, orderID int64) (*Record, error)
	SetMeta(ctx context.Context, orderID int64, key, value string) error
	FindByMeta(ctx context.Context, key, value string) ([]int64, error)

	// UpdateStatus reports whether the status actually changed. The note is
	// only appended when it did.
	UpdateStatus(ctx context.Context, orderID int64, status Status, note string) (bool, error)

	// CompletePayment stamps paid_at once, moves the order to status and
	// appends note, all in one transaction. It reports whether anything
	// changed; a replay on a paid order in that status writes nothing.
	CompletePayment(ctx context.Context, orderID int64, status Status, note string) (bool, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetOrder(ctx context.Context, orderID int64) (*Record, error) {
	var o Record
	err := r.db.QueryRowContext(ctx, `
		SELECT id, status, shipping_total, tax_total, total,
			billing_first_name, billing_last_name, billing_phone, billing_email,
			paid_at, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, orderID).Scan(
		&o.OrderID, &o.CurrentStatus, &o.Shipping, &o.Tax, &o.GrandTotal,
		&o.Contact.FirstName, &o.Contact.LastName, &o.Contact.Phone, &o.Contact.Email,
		&o.PaidAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", orderID, err)
	}

	if o.Lines, err = r.getItems(ctx, orderID); err != nil {
		return nil, err
	}
	if o.FeeLines, err = r.getFees(ctx, orderID); err != nil {
		return nil, err
	}

	return &o, nil
}

func (r *repository) getItems(ctx context.Context, orderID int64) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.name, COALESCE(p.description, ''), oi.quantity, oi.line_total, p.id IS NOT NULL
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.Name, &it.Description, &it.Quantity, &it.Total, &it.HasProduct); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) getFees(ctx context.Context, orderID int64) ([]Fee, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, total
		FROM order_fees
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order fees: %w", err)
	}
	defer rows.Close()

	var fees []Fee
	for rows.Next() {
		var f Fee
		if err := rows.Scan(&f.Name, &f.Total); err != nil {
			return nil, err
		}
		fees = append(fees, f)
	}
	return fees, rows.Err()
}

func (r *repository) SetMeta(ctx context.Context, orderID int64, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO order_meta (order_id, meta_key, meta_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id, meta_key)
		DO UPDATE SET meta_value = EXCLUDED.meta_value
	`, orderID, key, value)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrOrderNotFound
		}
		return fmt.Errorf("set order meta: %w", err)
	}
	return nil
}

func (r *repository) FindByMeta(ctx context.Context, key, value string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id
		FROM order_meta
		WHERE meta_key = $1 AND meta_value = $2
		ORDER BY order_id
	`, key, value)
	if err != nil {
		return nil, fmt.Errorf("find orders by meta: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repository) UpdateStatus(ctx context.Context, orderID int64, status Status, note string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = now()
		WHERE id = $2 AND status <> $1
	`, status, orderID)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	if note != "" {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_notes (order_id, note) VALUES ($1, $2)
		`, orderID, note); err != nil {
			return false, fmt.Errorf("add order note: %w", err)
		}
	}

	return true, tx.Commit()
}

func (r *repository) CompletePayment(ctx context.Context, orderID int64, status Status, note string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET paid_at = COALESCE(paid_at, now()), status = $1, updated_at = now()
		WHERE id = $2 AND (paid_at IS NULL OR status <> $1)
	`, status, orderID)
	if err != nil {
		return false, fmt.Errorf("complete payment: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	if note != "" {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_notes (order_id, note) VALUES ($1, $2)
		`, orderID, note); err != nil {
			return false, fmt.Errorf("add order note: %w", err)
		}
	}

	return true, tx.Commit()
}
